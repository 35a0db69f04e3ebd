package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// ParameterStore holds the process-wide threshold parameters and their audit log.
// One mutex covers both so an update and its audit entry are applied together.
type ParameterStore struct {
	params types.ThresholdParameters
	audit  []types.ParameterAuditEntry
	mutex  sync.Mutex
	logger *logger.Logger
	now    func() time.Time
}

var _ interfaces.ParameterRepository = (*ParameterStore)(nil)

// NewParameterStore creates a parameter store seeded with initial values
func NewParameterStore(initial types.ThresholdParameters, log *logger.Logger) *ParameterStore {
	return &ParameterStore{
		params: initial,
		audit:  []types.ParameterAuditEntry{},
		logger: log,
		now:    time.Now,
	}
}

// Get returns the current parameters
func (s *ParameterStore) Get(ctx context.Context) types.ThresholdParameters {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.params
}

// Update applies the supplied fields only and records one audit entry.
// Nothing changes when validation fails.
func (s *ParameterStore) Update(ctx context.Context, update *types.ParameterUpdate) (types.ThresholdParameters, error) {
	if update == nil {
		return types.ThresholdParameters{}, types.NewValidationError(types.ErrCodeInvalidInput, "parameter update is required", nil)
	}
	actor := strings.TrimSpace(update.UpdatedBy)
	if actor == "" {
		return types.ThresholdParameters{}, types.NewValidationError(types.ErrCodeValidationFailed, "updated_by is required",
			map[string]interface{}{"field": "updated_by"})
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	previous := s.params
	next := s.params
	changed := make(map[string]float64)

	fields := []struct {
		name   string
		value  *float64
		target *float64
	}{
		{"pa_min", update.SystolicMin, &next.SystolicMin},
		{"pa_max", update.SystolicMax, &next.SystolicMax},
		{"fc_min", update.HeartRateMin, &next.HeartRateMin},
		{"fc_max", update.HeartRateMax, &next.HeartRateMax},
		{"peso_delta", update.WeightDelta, &next.WeightDelta},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if *f.value <= 0 {
			return previous, types.NewValidationError(types.ErrCodeValidationFailed, f.name+" must be greater than zero",
				map[string]interface{}{"field": f.name, "value": *f.value})
		}
		*f.target = *f.value
		changed[f.name] = *f.value
	}

	if next.SystolicMin >= next.SystolicMax {
		return previous, types.NewValidationError(types.ErrCodeValidationFailed, "pa_min must be lower than pa_max",
			map[string]interface{}{"pa_min": next.SystolicMin, "pa_max": next.SystolicMax})
	}
	if next.HeartRateMin >= next.HeartRateMax {
		return previous, types.NewValidationError(types.ErrCodeValidationFailed, "fc_min must be lower than fc_max",
			map[string]interface{}{"fc_min": next.HeartRateMin, "fc_max": next.HeartRateMax})
	}

	s.params = next
	s.audit = append(s.audit, types.ParameterAuditEntry{
		Timestamp:      s.now().UTC(),
		UpdatedBy:      actor,
		PreviousValues: previous,
		NewValues:      changed,
	})

	details := make(map[string]interface{}, len(changed))
	for k, v := range changed {
		details[k] = v
	}
	s.logger.Audit(actor, "update_parameters", "threshold_parameters", true, details)

	return next, nil
}

// AuditLog returns a copy of the audit log, oldest first
func (s *ParameterStore) AuditLog(ctx context.Context) []types.ParameterAuditEntry {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries := make([]types.ParameterAuditEntry, len(s.audit))
	for i, e := range s.audit {
		e.NewValues = copyValues(e.NewValues)
		entries[i] = e
	}
	return entries
}

func copyValues(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
