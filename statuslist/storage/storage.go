// Package storage implements the pluggable persistence capability for
// status lists (spec §4.7): load/save/list-all over a single
// serialized snapshot per list id. Memory, filesystem, and S3 backends
// are provided; any store that can hold one blob per list id qualifies.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Note records who changed a bit and why (spec §4.7 set_status:
// "records an internal metadata note with actor and reason").
type Note struct {
	Index     int       `json:"index"`
	Value     bool      `json:"value"`
	Actor     string    `json:"actor,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the full persisted state of one status list (spec §4.7
// "a mapping from list_id to {bitstring, next_free_index, metadata,
// last_published_credential}").
type Snapshot struct {
	ListID                  string          `json:"list_id"`
	Purpose                 string          `json:"purpose"`
	EncodedBitstring        string          `json:"encoded_bitstring"`
	Length                  int             `json:"length"`
	NextFreeIndex           int             `json:"next_free_index"`
	Notes                   []Note          `json:"notes,omitempty"`
	LastPublishedCredential json.RawMessage `json:"last_published_credential,omitempty"`
}

// StatusListStorage is the capability interface the manager persists
// through, selected at construction per spec §9's "capability
// interfaces selected at construction" guidance.
type StatusListStorage interface {
	Load(ctx context.Context, listID string) (*Snapshot, error)
	Save(ctx context.Context, listID string, snapshot *Snapshot) error
	ListAll(ctx context.Context) ([]string, error)
}
