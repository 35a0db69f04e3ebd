package interfaces

import (
	"context"

	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// PatientRepository defines the interface for patient and measurement persistence.
// Returned patients are snapshots; mutating them does not affect stored state.
type PatientRepository interface {
	Create(ctx context.Context, patient *types.Patient) (*types.Patient, error)
	Get(ctx context.Context, patientID string) (*types.Patient, error)
	List(ctx context.Context) ([]*types.Patient, error)
	Update(ctx context.Context, patientID string, patient *types.Patient) (*types.Patient, error)
	Delete(ctx context.Context, patientID string) error

	// Measurements
	AppendMeasurement(ctx context.Context, patientID string, m types.Measurement) (types.Measurement, error)
	Measurements(ctx context.Context, patientID string) ([]types.Measurement, error)
	LatestMeasurement(ctx context.Context, patientID string) (*types.Measurement, error)

	// Intervention history
	AppendIntervention(ctx context.Context, patientID string, entry types.Intervention) error
	Interventions(ctx context.Context, patientID string) ([]types.Intervention, error)
}

// ParameterRepository defines the interface for threshold parameters and their audit log
type ParameterRepository interface {
	Get(ctx context.Context) types.ThresholdParameters
	Update(ctx context.Context, update *types.ParameterUpdate) (types.ThresholdParameters, error)
	AuditLog(ctx context.Context) []types.ParameterAuditEntry
}

// IngestionRepository defines the interface for text and vision ingestion records
type IngestionRepository interface {
	AddText(ctx context.Context, item *types.TextIngestion) (*types.TextIngestion, error)
	ListText(ctx context.Context) []types.TextIngestion
	AddVision(ctx context.Context, item *types.VisionIngestion) (*types.VisionIngestion, error)
	ListVision(ctx context.Context) []types.VisionIngestion
}

// TextGenerator produces free text from a prompt, bounded by maxTokens
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// MessageSender delivers a text message to a contact address
type MessageSender interface {
	Send(ctx context.Context, to, body string) error
}

// NotificationDispatcher sends one best-effort notification for an alert evaluation
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, patient *types.Patient, alerts []types.Alert) bool
}
