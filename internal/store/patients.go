package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// PatientStore is an in-memory PatientRepository.
// The map is guarded by an RWMutex and every patient record carries its own mutex,
// so work on one patient never blocks another. All reads return snapshots.
type PatientStore struct {
	records    map[string]*patientRecord
	order      []string
	recordsMux sync.RWMutex
	logger     *logger.Logger
	now        func() time.Time
}

type patientRecord struct {
	patient *types.Patient
	deleted bool
	mutex   sync.Mutex
}

var _ interfaces.PatientRepository = (*PatientStore)(nil)

// NewPatientStore creates an empty patient store
func NewPatientStore(log *logger.Logger) *PatientStore {
	return &PatientStore{
		records: make(map[string]*patientRecord),
		logger:  log,
		now:     time.Now,
	}
}

// Create stores a new patient. Measurements and history supplied by the caller are ignored.
func (s *PatientStore) Create(ctx context.Context, patient *types.Patient) (*types.Patient, error) {
	if err := validatePatient(patient); err != nil {
		return nil, err
	}

	p := &types.Patient{
		ID:                  strings.TrimSpace(patient.ID),
		Name:                strings.TrimSpace(patient.Name),
		Age:                 patient.Age,
		Phone:               strings.TrimSpace(patient.Phone),
		Measurements:        []types.Measurement{},
		InterventionHistory: []types.Intervention{},
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	s.recordsMux.Lock()
	defer s.recordsMux.Unlock()

	if _, exists := s.records[p.ID]; exists {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "patient already exists", map[string]interface{}{"id": p.ID})
	}
	s.records[p.ID] = &patientRecord{patient: p}
	s.order = append(s.order, p.ID)

	s.logger.WithPatient(p.ID).Info("Patient created")
	return p.Clone(), nil
}

// Get returns a snapshot of the patient
func (s *PatientStore) Get(ctx context.Context, patientID string) (*types.Patient, error) {
	var snapshot *types.Patient
	err := s.withRecord(patientID, func(p *types.Patient) error {
		snapshot = p.Clone()
		return nil
	})
	return snapshot, err
}

// List returns snapshots of all patients in creation order
func (s *PatientStore) List(ctx context.Context) ([]*types.Patient, error) {
	s.recordsMux.RLock()
	records := make([]*patientRecord, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id])
	}
	s.recordsMux.RUnlock()

	patients := make([]*types.Patient, 0, len(records))
	for _, rec := range records {
		rec.mutex.Lock()
		if !rec.deleted {
			patients = append(patients, rec.patient.Clone())
		}
		rec.mutex.Unlock()
	}
	return patients, nil
}

// Update replaces identity and contact fields, keeping measurements and intervention history
func (s *PatientStore) Update(ctx context.Context, patientID string, patient *types.Patient) (*types.Patient, error) {
	if err := validatePatient(patient); err != nil {
		return nil, err
	}

	var snapshot *types.Patient
	err := s.withRecord(patientID, func(p *types.Patient) error {
		p.Name = strings.TrimSpace(patient.Name)
		p.Age = patient.Age
		p.Phone = strings.TrimSpace(patient.Phone)
		snapshot = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithPatient(patientID).Info("Patient updated")
	return snapshot, nil
}

// Delete removes the patient and everything it owns
func (s *PatientStore) Delete(ctx context.Context, patientID string) error {
	s.recordsMux.Lock()
	rec, exists := s.records[patientID]
	if exists {
		delete(s.records, patientID)
		for i, id := range s.order {
			if id == patientID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.recordsMux.Unlock()

	if !exists {
		return notFound(patientID)
	}

	// Writers already holding the record observe the deletion
	rec.mutex.Lock()
	rec.deleted = true
	rec.mutex.Unlock()

	s.logger.WithPatient(patientID).Info("Patient deleted")
	return nil
}

// AppendMeasurement validates and appends a measurement, stamping it with the current time if unset
func (s *PatientStore) AppendMeasurement(ctx context.Context, patientID string, m types.Measurement) (types.Measurement, error) {
	if err := validateMeasurement(m); err != nil {
		return types.Measurement{}, err
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now().UTC()
	}
	if m.Symptoms == nil {
		m.Symptoms = []string{}
	} else {
		m.Symptoms = append([]string{}, m.Symptoms...)
	}

	err := s.withRecord(patientID, func(p *types.Patient) error {
		p.Measurements = append(p.Measurements, m)
		return nil
	})
	if err != nil {
		return types.Measurement{}, err
	}

	stored := m
	stored.Symptoms = append([]string{}, m.Symptoms...)
	return stored, nil
}

// Measurements returns a copy of the patient's measurement history
func (s *PatientStore) Measurements(ctx context.Context, patientID string) ([]types.Measurement, error) {
	var history []types.Measurement
	err := s.withRecord(patientID, func(p *types.Patient) error {
		history = p.Clone().Measurements
		return nil
	})
	return history, err
}

// LatestMeasurement returns the most recent measurement, or nil when there is none
func (s *PatientStore) LatestMeasurement(ctx context.Context, patientID string) (*types.Measurement, error) {
	var latest *types.Measurement
	err := s.withRecord(patientID, func(p *types.Patient) error {
		if n := len(p.Measurements); n > 0 {
			m := p.Clone().Measurements[n-1]
			latest = &m
		}
		return nil
	})
	return latest, err
}

// AppendIntervention appends an entry to the patient's intervention history
func (s *PatientStore) AppendIntervention(ctx context.Context, patientID string, entry types.Intervention) error {
	return s.withRecord(patientID, func(p *types.Patient) error {
		p.InterventionHistory = append(p.InterventionHistory, entry)
		return nil
	})
}

// Interventions returns a copy of the patient's intervention history
func (s *PatientStore) Interventions(ctx context.Context, patientID string) ([]types.Intervention, error) {
	var history []types.Intervention
	err := s.withRecord(patientID, func(p *types.Patient) error {
		history = append([]types.Intervention{}, p.InterventionHistory...)
		return nil
	})
	return history, err
}

// withRecord runs fn with the patient's lock held
func (s *PatientStore) withRecord(patientID string, fn func(p *types.Patient) error) error {
	s.recordsMux.RLock()
	rec, exists := s.records[patientID]
	s.recordsMux.RUnlock()

	if !exists {
		return notFound(patientID)
	}

	rec.mutex.Lock()
	defer rec.mutex.Unlock()

	if rec.deleted {
		return notFound(patientID)
	}
	return fn(rec.patient)
}

func notFound(patientID string) error {
	return fmt.Errorf("patient %s: %w", patientID, types.ErrPatientNotFound)
}

func validatePatient(p *types.Patient) error {
	if p == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "patient is required", nil)
	}
	if strings.TrimSpace(p.Name) == "" {
		return types.NewValidationError(types.ErrCodeValidationFailed, "name is required", map[string]interface{}{"field": "nombre"})
	}
	if p.Age < 0 {
		return types.NewValidationError(types.ErrCodeValidationFailed, "age must not be negative", map[string]interface{}{"field": "edad"})
	}
	return nil
}

func validateMeasurement(m types.Measurement) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"peso", m.Weight},
		{"presion_sistolica", m.Systolic},
		{"presion_diastolica", m.Diastolic},
		{"frecuencia_cardiaca", m.HeartRate},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return types.NewValidationError(types.ErrCodeValidationFailed,
				fmt.Sprintf("%s must be greater than zero", f.name),
				map[string]interface{}{"field": f.name, "value": f.value})
		}
	}
	return nil
}
