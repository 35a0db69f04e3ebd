package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// IngestionStore keeps text and vision ingestion records in arrival order
type IngestionStore struct {
	text   []types.TextIngestion
	vision []types.VisionIngestion
	mutex  sync.RWMutex
	now    func() time.Time
}

var _ interfaces.IngestionRepository = (*IngestionStore)(nil)

// NewIngestionStore creates an empty ingestion store
func NewIngestionStore() *IngestionStore {
	return &IngestionStore{now: time.Now}
}

// AddText stores a text record
func (s *IngestionStore) AddText(ctx context.Context, item *types.TextIngestion) (*types.TextIngestion, error) {
	if item == nil || strings.TrimSpace(item.Content) == "" {
		return nil, types.NewValidationError(types.ErrCodeValidationFailed, "content is required",
			map[string]interface{}{"field": "content"})
	}

	rec := *item
	rec.Metadata = copyMetadata(item.Metadata)
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	s.mutex.Lock()
	s.text = append(s.text, rec)
	s.mutex.Unlock()

	rec.Metadata = copyMetadata(rec.Metadata)
	return &rec, nil
}

// ListText returns all text records
func (s *IngestionStore) ListText(ctx context.Context) []types.TextIngestion {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := make([]types.TextIngestion, len(s.text))
	for i, rec := range s.text {
		rec.Metadata = copyMetadata(rec.Metadata)
		items[i] = rec
	}
	return items
}

// AddVision stores a vision record. Every field is optional.
func (s *IngestionStore) AddVision(ctx context.Context, item *types.VisionIngestion) (*types.VisionIngestion, error) {
	if item == nil {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "vision ingestion is required", nil)
	}

	rec := *item
	rec.Metadata = copyMetadata(item.Metadata)
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}

	s.mutex.Lock()
	s.vision = append(s.vision, rec)
	s.mutex.Unlock()

	rec.Metadata = copyMetadata(rec.Metadata)
	return &rec, nil
}

// ListVision returns all vision records
func (s *IngestionStore) ListVision(ctx context.Context) []types.VisionIngestion {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	items := make([]types.VisionIngestion, len(s.vision))
	for i, rec := range s.vision {
		rec.Metadata = copyMetadata(rec.Metadata)
		items[i] = rec
	}
	return items
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
