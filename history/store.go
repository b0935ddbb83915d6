// Package history persists finished debates in NATS KV.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/yo2158/break/debate"
)

// BucketDebates is the KV bucket finished debates are written to.
const BucketDebates = "BREAK_DEBATES"

// ErrNotFound is returned when no debate exists for the given ID.
var ErrNotFound = errors.New("debate not found")

// Record is one finished debate, stored verbatim as it was streamed.
type Record struct {
	ID        string               `json:"id"`
	Topic     string               `json:"topic"`
	Axis      debate.Axis          `json:"axis"`
	Round1    debate.Round1Payload `json:"round1"`
	Round2    debate.Round2Payload `json:"round2"`
	Judgment  debate.Judgment      `json:"judgment"`
	CreatedAt time.Time            `json:"created_at"`
}

// Summary is the listing view of a record: enough to render a history
// index without loading full transcripts.
type Summary struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Winner    debate.Debater `json:"winner"`
	AxisLeft  string         `json:"axis_left"`
	AxisRight string         `json:"axis_right"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store provides debate persistence backed by NATS KV.
type Store struct {
	debates jetstream.KeyValue
}

// NewStore creates the debates bucket if needed and returns a Store.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	kv, err := js.KeyValue(ctx, BucketDebates)
	if err != nil {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      BucketDebates,
			Description: "Finished debate transcripts",
			History:     1,
		})
		if err != nil {
			return nil, fmt.Errorf("create debates bucket: %w", err)
		}
	}
	return &Store{debates: kv}, nil
}

// Create stores a finished debate and returns its ID. The record's ID and
// CreatedAt are assigned here when unset; passing the session ID through
// keeps history entries linkable to streams.
func (s *Store) Create(ctx context.Context, r *Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal debate: %w", err)
	}
	if _, err := s.debates.Create(ctx, r.ID, data); err != nil {
		return "", fmt.Errorf("store debate: %w", err)
	}
	return r.ID, nil
}

// Get retrieves a full debate record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	entry, err := s.debates.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get debate: %w", err)
	}

	var r Record
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return nil, fmt.Errorf("unmarshal debate: %w", err)
	}
	return &r, nil
}

// List returns summaries newest-first, with the total record count for
// pagination. limit <= 0 means no limit; offset past the end yields an
// empty page.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	keys, err := s.debates.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("list debate keys: %w", err)
	}

	summaries := make([]Summary, 0, len(keys))
	for _, key := range keys {
		entry, err := s.debates.Get(ctx, key)
		if err != nil {
			continue // skip entries that fail to load
		}
		var r Record
		if err := json.Unmarshal(entry.Value(), &r); err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			ID:        r.ID,
			Topic:     r.Topic,
			Winner:    r.Judgment.Winner,
			AxisLeft:  r.Axis.Left,
			AxisRight: r.Axis.Right,
			CreatedAt: r.CreatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	total := len(summaries)
	if offset >= total {
		return []Summary{}, total, nil
	}
	summaries = summaries[offset:]
	if limit > 0 && limit < len(summaries) {
		summaries = summaries[:limit]
	}
	return summaries, total, nil
}

// Delete removes a debate record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.debates.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete debate: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
