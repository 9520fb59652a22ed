package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrSourceClosed is returned when subscribing to or publishing on a source
// that has been shut down.
var ErrSourceClosed = errors.New("event source closed")

// ChangeEvent announces the creation of one document.
type ChangeEvent struct {
	// Collection names the document kind, e.g. "tasks".
	Collection string `json:"collection"`

	// DocumentID identifies the created document within its collection.
	DocumentID string `json:"document_id"`

	// Snapshot holds the document's fields as observed when the event fired.
	Snapshot json.RawMessage `json:"snapshot"`

	// ObservedAt is when the source saw the change.
	ObservedAt time.Time `json:"observed_at"`
}

// UnmarshalSnapshot decodes the snapshot into the provided structure.
func (e ChangeEvent) UnmarshalSnapshot(v any) error {
	return json.Unmarshal(e.Snapshot, v)
}

// NewChangeEvent builds an event whose snapshot is the JSON form of doc.
func NewChangeEvent(collection, documentID string, doc any) (ChangeEvent, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return ChangeEvent{}, err
	}

	return ChangeEvent{
		Collection: collection,
		DocumentID: documentID,
		Snapshot:   raw,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// Source delivers creation events until ctx is cancelled.
//
// The returned channel is closed when ctx is done or the source can no longer
// deliver; callers should range over it.
type Source interface {
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}
