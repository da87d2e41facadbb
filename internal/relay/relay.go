// Package relay moves bytes from one upstream rendition stream to one
// downstream writer. It opens exactly one upstream stream per invocation,
// preserves byte order, and tears the upstream stream down when the
// downstream consumer goes away.
package relay

import (
	"context"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tubegrab/tubegrab/internal/resolver"
	"github.com/tubegrab/tubegrab/internal/types"
)

const defaultChunkSize = 64 * 1024

// Options tune relay behavior.
type Options struct {
	// FirstByteTimeout bounds the wait for the first upstream byte.
	// Zero disables the timeout.
	FirstByteTimeout time.Duration

	// ChunkSize is the forwarding buffer size. Zero picks a default.
	ChunkSize int
}

// Relay opens and forwards upstream streams. Invocations are independent;
// concurrent requests for the same source each open their own stream.
type Relay struct {
	resolver resolver.Resolver
	logger   *zap.Logger
	opts     Options
}

func New(res resolver.Resolver, logger *zap.Logger, opts Options) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	return &Relay{resolver: res, logger: logger, opts: opts}
}

// Download is one opened upstream stream plus the response metadata a caller
// needs before writing any bytes downstream.
type Download struct {
	Meta          *types.Metadata
	Rendition     types.Rendition
	Filename      string
	ContentType   string
	ContentLength int64 // 0 when unknown

	body      io.ReadCloser
	logger    *zap.Logger
	opts      Options
	closeOnce sync.Once
	firstByte atomic.Bool
	timedOut  atomic.Bool
}

// Open resolves the source, locates the requested rendition and opens the
// upstream byte stream. When Open returns an error no bytes have been
// transferred: unknown itags surface types.ErrRenditionNotFound before any
// stream is opened.
func (r *Relay) Open(ctx context.Context, url, itag string) (*Download, error) {
	if strings.TrimSpace(itag) == "" {
		return nil, &types.InvalidInputError{Message: "Format (itag) is required"}
	}

	meta, err := r.resolver.ResolveMetadata(ctx, url)
	if err != nil {
		return nil, err
	}

	body, rendition, err := r.resolver.OpenStream(ctx, url, itag)
	if err != nil {
		return nil, err
	}

	d := &Download{
		Meta:        meta,
		Rendition:   *rendition,
		Filename:    filenameFor(meta.Title, rendition.Container),
		ContentType: contentTypeFor(*rendition),
		body:        body,
		logger:      r.logger.With(zap.String("video", meta.ID), zap.String("itag", itag)),
		opts:        r.opts,
	}
	if rendition.ContentLength != "" {
		if n, perr := strconv.ParseInt(rendition.ContentLength, 10, 64); perr == nil {
			d.ContentLength = n
		}
	}
	d.logger.Info("upstream stream opened",
		zap.String("filename", d.Filename),
		zap.Int64("contentLength", d.ContentLength))
	return d, nil
}

// Stream forwards the upstream body to w until EOF. Byte order is preserved;
// chunk boundaries are not. Cancelling ctx (the downstream consumer
// disconnecting) tears down the upstream stream and returns ctx's error.
// Upstream failures mid-stream return a typed stream failure after the
// partial write. The upstream stream is closed exactly once on every path.
func (d *Download) Stream(ctx context.Context, w io.Writer) (int64, error) {
	defer d.teardown()

	stopCancelWatch := context.AfterFunc(ctx, d.teardown)
	defer stopCancelWatch()

	var firstByteTimer *time.Timer
	if d.opts.FirstByteTimeout > 0 {
		firstByteTimer = time.AfterFunc(d.opts.FirstByteTimeout, d.onFirstByteTimeout)
		defer firstByteTimer.Stop()
	}

	var written int64
	buf := make([]byte, d.opts.ChunkSize)
	for {
		n, rerr := d.body.Read(buf)
		if n > 0 {
			d.firstByte.Store(true)
			if firstByteTimer != nil {
				firstByteTimer.Stop()
				firstByteTimer = nil
			}
			nw, werr := w.Write(buf[:n])
			written += int64(nw)
			if werr != nil {
				if ctx.Err() != nil {
					d.logger.Info("download cancelled by client", zap.Int64("bytes", written))
					return written, ctx.Err()
				}
				d.logger.Warn("downstream write failed", zap.Int64("bytes", written), zap.Error(werr))
				return written, &types.ResolveError{
					Reason:  types.ReasonStream,
					Message: "Download stream interrupted",
					Cause:   werr,
				}
			}
		}
		switch {
		case rerr == nil:
		case rerr == io.EOF:
			d.logger.Info("download completed", zap.Int64("bytes", written))
			return written, nil
		case ctx.Err() != nil:
			d.logger.Info("download cancelled by client", zap.Int64("bytes", written))
			return written, ctx.Err()
		case d.timedOut.Load():
			d.logger.Warn("timed out waiting for first upstream byte")
			return written, &types.ResolveError{
				Reason:  types.ReasonTimeout,
				Message: "Timed out waiting for the video stream",
				Cause:   rerr,
			}
		default:
			d.logger.Warn("upstream stream failed", zap.Int64("bytes", written), zap.Error(rerr))
			return written, &types.ResolveError{
				Reason:  types.ReasonStream,
				Message: "Download stream interrupted",
				Cause:   rerr,
			}
		}
	}
}

// Close tears down the upstream stream. Safe to call more than once and
// after Stream has returned.
func (d *Download) Close() error {
	d.teardown()
	return nil
}

// onFirstByteTimeout runs when the first-byte deadline fires. The timer can
// race the first successful read, so a stream that has already delivered
// bytes is left alone.
func (d *Download) onFirstByteTimeout() {
	if d.firstByte.Load() {
		return
	}
	d.timedOut.Store(true)
	d.teardown()
}

func (d *Download) teardown() {
	d.closeOnce.Do(func() { _ = d.body.Close() })
}
