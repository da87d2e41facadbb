// Package history keeps a capped, most-recent-first record of completed
// downloads behind a small store interface with interchangeable backends.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tubegrab/tubegrab/internal/types"
)

// MaxEntries caps the store; Add evicts the oldest entries beyond it.
const MaxEntries = 50

// Store records completed downloads. Entries are ordered most-recent-first
// and never deduplicated by content: repeat downloads each get their own
// entry. All mutation goes through the store so a backend can make writes
// atomic with respect to List.
type Store interface {
	// Add prepends an entry, evicting the oldest entries beyond MaxEntries.
	Add(ctx context.Context, entry types.HistoryEntry) error

	// Remove deletes the entry with the given id. Removing an unknown id is
	// a no-op.
	Remove(ctx context.Context, id string) error

	// Clear empties the store.
	Clear(ctx context.Context) error

	// List returns entries most-recent-first. The returned slice is a copy.
	List(ctx context.Context) ([]types.HistoryEntry, error)
}

// NewEntry builds a HistoryEntry with a collision-resistant identifier and
// the current time.
func NewEntry(sourceID, title, thumbnail, mediaKind, quality string) types.HistoryEntry {
	return types.HistoryEntry{
		ID:             uuid.NewString(),
		SourceID:       sourceID,
		Title:          title,
		Thumbnail:      thumbnail,
		DownloadedAt:   time.Now().UTC(),
		MediaKind:      mediaKind,
		DisplayQuality: quality,
	}
}
