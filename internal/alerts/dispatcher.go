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

const (
	// DefaultCallTimeout bounds each external call made during a dispatch
	DefaultCallTimeout = 10 * time.Second

	// DefaultAlertMaxTokens bounds the generated alert message
	DefaultAlertMaxTokens = 300

	notificationChannel = "whatsapp"
)

// Dispatch outcome reasons
const (
	ReasonDelivered      = "delivered"
	ReasonNoContact      = "no_contact"
	ReasonNotConfigured  = "not_configured"
	ReasonDeliveryFailed = "delivery_failed"
)

// DispatchResult describes what happened during one dispatch
type DispatchResult struct {
	Message   string
	Generated bool
	Delivered bool
	Reason    string
}

// DispatcherConfig holds the limits applied to a dispatch
type DispatcherConfig struct {
	CallTimeout    time.Duration
	AlertMaxTokens int
}

// Dispatcher composes a patient message through a TextGenerator and delivers it
// through a MessageSender. Provider failures never propagate past Dispatch.
type Dispatcher struct {
	generator interfaces.TextGenerator
	sender    interfaces.MessageSender
	config    DispatcherConfig
	metrics   *monitoring.MetricsCollector
	tracing   *monitoring.TracingManager
	logger    *logger.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(
	generator interfaces.TextGenerator,
	sender interfaces.MessageSender,
	cfg DispatcherConfig,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingManager,
	log *logger.Logger,
) *Dispatcher {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.AlertMaxTokens <= 0 {
		cfg.AlertMaxTokens = DefaultAlertMaxTokens
	}

	return &Dispatcher{
		generator: generator,
		sender:    sender,
		config:    cfg,
		metrics:   metrics,
		tracing:   tracing,
		logger:    log,
	}
}

// Dispatch sends one notification for the given alerts and reports whether it was delivered
func (d *Dispatcher) Dispatch(ctx context.Context, patient *types.Patient, alerts []types.Alert) bool {
	return d.Run(ctx, patient, alerts).Delivered
}

// Run performs the generate-then-send pipeline and returns the detailed result
func (d *Dispatcher) Run(ctx context.Context, patient *types.Patient, alerts []types.Alert) DispatchResult {
	ctx, span := d.tracing.StartSpan(ctx, "alerts.dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", patient.ID), attribute.Int("alerts.count", len(alerts)))

	result := d.run(ctx, patient, alerts)

	span.SetAttributes(
		attribute.Bool("notification.delivered", result.Delivered),
		attribute.Bool("notification.generated", result.Generated),
		attribute.String("notification.reason", result.Reason),
	)
	d.metrics.RecordDispatch(result.Reason, result.Generated)
	d.logger.Notification(ctx, patient.ID, notificationChannel, result.Delivered, map[string]interface{}{
		"reason":    result.Reason,
		"generated": result.Generated,
	})

	return result
}

func (d *Dispatcher) run(ctx context.Context, patient *types.Patient, alerts []types.Alert) DispatchResult {
	log := d.logger.WithComponent("dispatcher").WithField("patient_id", patient.ID)

	if patient.Phone == "" {
		log.Info("Patient has no registered phone number")
		return DispatchResult{Reason: ReasonNoContact}
	}

	message, generated := d.compose(ctx, patient, alerts)
	result := DispatchResult{Message: message, Generated: generated}

	sendCtx, cancel := context.WithTimeout(ctx, d.config.CallTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, patient.Phone, message); err != nil {
		if types.IsType(err, types.ErrorTypeConfiguration) {
			log.WithError(err).Info("Messaging provider not configured, notification skipped")
			result.Reason = ReasonNotConfigured
			return result
		}
		log.WithError(err).Error("Failed to send notification")
		result.Reason = ReasonDeliveryFailed
		return result
	}

	log.Info("AI-generated notification sent")
	result.Delivered = true
	result.Reason = ReasonDelivered
	return result
}

// compose asks the generator for a personalized message and falls back to a fixed template
func (d *Dispatcher) compose(ctx context.Context, patient *types.Patient, alerts []types.Alert) (string, bool) {
	genCtx, cancel := context.WithTimeout(ctx, d.config.CallTimeout)
	defer cancel()

	text, err := d.generator.Generate(genCtx, AlertPrompt(patient, alerts), d.config.AlertMaxTokens)
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if err != nil || text == "" {
		d.logger.WithComponent("dispatcher").WithError(err).Warn("Error generating alert message, using fallback text")
		return FallbackMessage(alerts), false
	}
	return text, true
}

// FallbackMessage is the deterministic text used when message generation fails
func FallbackMessage(alerts []types.Alert) string {
	return fmt.Sprintf("ALERTA: %s. Por favor contacte a su médico lo antes posible.", strings.Join(Messages(alerts), ", "))
}

// AlertPrompt builds the instruction sent to the text generator
func AlertPrompt(patient *types.Patient, alerts []types.Alert) string {
	detected := make([]string, 0, len(alerts))
	for _, a := range alerts {
		detected = append(detected, fmt.Sprintf("%s (Level: %s)", a.Message, a.Level))
	}

	var b strings.Builder
	b.WriteString("You are a medical assistant for Nexo+, a platform that helps cardiac patients after discharge.\n\n")
	b.WriteString("Patient information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", patient.Name)
	fmt.Fprintf(&b, "- Age: %d\n\n", patient.Age)
	b.WriteString("The following alerts have been detected:\n")
	b.WriteString(strings.Join(detected, ", "))
	b.WriteString("\n\nGenerate a personalized, empathetic WhatsApp message for this patient that:\n")
	b.WriteString("1. Clearly communicates the medical concern without causing panic\n")
	b.WriteString("2. Provides specific, actionable advice based on the alerts\n")
	b.WriteString("3. Encourages the patient to contact their healthcare provider if needed\n")
	b.WriteString("4. Is written in a warm, supportive tone\n")
	b.WriteString("5. Is concise (maximum 3-4 sentences)\n\n")
	b.WriteString("The message should be in Spanish, as this is for patients in Chile.")
	return b.String()
}
