// Package resolver is the capability boundary to the upstream video site.
// Everything that deals with the site's obfuscation and wire formats lives
// behind the Resolver interface; the rest of the service only sees domain
// types and classified errors.
package resolver

import (
	"context"
	"io"

	"github.com/tubegrab/tubegrab/internal/types"
)

// Resolver exposes the three upstream capabilities the service needs:
// descriptive metadata, the raw rendition list, and a byte stream for one
// selected rendition.
type Resolver interface {
	// ResolveMetadata fetches descriptive metadata for the source URL.
	ResolveMetadata(ctx context.Context, url string) (*types.Metadata, error)

	// ListRenditions fetches the raw rendition list for the source URL.
	ListRenditions(ctx context.Context, url string) ([]types.Rendition, error)

	// OpenStream opens exactly one upstream byte stream for the rendition
	// identified by itag. It returns types.ErrRenditionNotFound when the
	// source does not currently offer that itag; no bytes have been
	// transferred in that case. The stream is bound to ctx: cancelling ctx
	// aborts the upstream transfer.
	OpenStream(ctx context.Context, url, itag string) (io.ReadCloser, *types.Rendition, error)
}
