package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/monitoring"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

// InterventionAction is the action label recorded after a critical evaluation
const InterventionAction = "AI-generated WhatsApp notification sent"

// Outcome summarizes what the policy did for one evaluation
type Outcome struct {
	Alerts       []types.Alert
	Notified     bool
	Delivered    bool
	Intervention *types.Intervention
}

// Policy evaluates a patient's alerts and, when any is critical, dispatches one
// notification and records one intervention entry.
type Policy struct {
	patients   interfaces.PatientRepository
	parameters interfaces.ParameterRepository
	dispatcher interfaces.NotificationDispatcher
	metrics    *monitoring.MetricsCollector
	tracing    *monitoring.TracingManager
	logger     *logger.Logger
	now        func() time.Time
}

// NewPolicy creates a new notification policy
func NewPolicy(
	patients interfaces.PatientRepository,
	parameters interfaces.ParameterRepository,
	dispatcher interfaces.NotificationDispatcher,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingManager,
	log *logger.Logger,
) *Policy {
	return &Policy{
		patients:   patients,
		parameters: parameters,
		dispatcher: dispatcher,
		metrics:    metrics,
		tracing:    tracing,
		logger:     log,
		now:        time.Now,
	}
}

// CheckPatient evaluates the stored history of a patient and applies the notification policy.
// Only a missing patient is reported as an error; notification failures are absorbed.
func (p *Policy) CheckPatient(ctx context.Context, patientID string) (*Outcome, error) {
	ctx, span := p.tracing.StartSpan(ctx, "alerts.check_patient")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", patientID))

	patient, err := p.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	alerts := Evaluate(patient.Measurements, p.parameters.Get(ctx))
	p.metrics.RecordAlerts(alerts)
	span.SetAttributes(attribute.Int("alerts.count", len(alerts)))

	return p.Apply(ctx, patient, alerts)
}

// Apply runs the notification policy for an already evaluated alert list
func (p *Policy) Apply(ctx context.Context, patient *types.Patient, alerts []types.Alert) (*Outcome, error) {
	outcome := &Outcome{Alerts: alerts}
	if !RequiresNotification(alerts) {
		return outcome, nil
	}

	outcome.Notified = true
	outcome.Delivered = p.dispatcher.Dispatch(ctx, patient, alerts)

	entry := types.Intervention{
		Timestamp: p.now().UTC().Format(time.RFC3339Nano),
		Action:    InterventionAction,
		Alerts:    strings.Join(Messages(alerts), "; "),
	}
	if err := p.patients.AppendIntervention(ctx, patient.ID, entry); err != nil {
		return nil, fmt.Errorf("failed to record intervention: %w", err)
	}
	outcome.Intervention = &entry

	p.logger.WithPatient(patient.ID).WithField("delivered", outcome.Delivered).
		Info("Critical alerts recorded in intervention history")

	return outcome, nil
}
