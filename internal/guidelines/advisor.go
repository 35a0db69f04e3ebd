package guidelines

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ranvier2d2/nexo-plus-project/internal/alerts"
	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/monitoring"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

// Follow-up schedules
const (
	UrgentSchedule   = "Urgent check-up in 7 days; intensive follow-up."
	StandardSchedule = "First check-up in 7-14 days; then monthly check-ups for 3 months and every 3-6 months based on stability."
)

// UnknownSource is returned for any source other than AHA or GES
const UnknownSource = "Unrecognized source. Use 'AHA' or 'GES'."

const (
	interpretMaxTokens       = 500
	recommendationsMaxTokens = 800
	defaultCallTimeout       = 10 * time.Second
)

// FallbackRecommendations are returned when recommendations cannot be generated or parsed
func FallbackRecommendations() map[string]string {
	return map[string]string{
		"medicamentos":     "Tome sus medicamentos según lo prescrito por su médico.",
		"dieta":            "Siga una dieta baja en sodio y grasas saturadas.",
		"actividad_fisica": "Realice actividad física moderada según las recomendaciones de su médico.",
		"monitoreo":        "Registre sus síntomas y mediciones regularmente en la aplicación Nexo+.",
	}
}

// Advisor derives follow-up schedules and guideline answers for patients
type Advisor struct {
	generator   interfaces.TextGenerator
	callTimeout time.Duration
	tracing     *monitoring.TracingManager
	logger      *logger.Logger
}

// NewAdvisor creates a new guideline advisor
func NewAdvisor(generator interfaces.TextGenerator, callTimeout time.Duration, tracing *monitoring.TracingManager, log *logger.Logger) *Advisor {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Advisor{
		generator:   generator,
		callTimeout: callTimeout,
		tracing:     tracing,
		logger:      log,
	}
}

// Schedule re-evaluates the patient and picks the follow-up schedule
func (a *Advisor) Schedule(patient *types.Patient, params types.ThresholdParameters) string {
	if alerts.RequiresNotification(alerts.Evaluate(patient.Measurements, params)) {
		return UrgentSchedule
	}
	return StandardSchedule
}

// Clinical returns the summary guideline text for a source, matched case-insensitively
func (a *Advisor) Clinical(source string) string {
	switch strings.ToLower(source) {
	case "aha":
		return ahaSummary
	case "ges":
		return gesSummary
	default:
		return UnknownSource
	}
}

// Interpret answers a question about a guideline source. Generation failures yield a fixed apology.
func (a *Advisor) Interpret(ctx context.Context, source, query string) string {
	ctx, span := a.tracing.StartSpan(ctx, "guidelines.interpret")
	defer span.End()
	span.SetAttributes(attribute.String("guidelines.source", strings.ToUpper(source)))

	text, err := a.generate(ctx, interpretPrompt(source, query), interpretMaxTokens)
	if err != nil || text == "" {
		a.logger.WithComponent("guidelines").WithError(err).Warn("Error interpreting clinical guidelines")
		return fmt.Sprintf("Lo siento, no pude interpretar las guías clínicas de %s en este momento. Por favor, consulte directamente las guías oficiales.", source)
	}
	return text
}

// Recommendations generates adherence recommendations keyed by category
func (a *Advisor) Recommendations(ctx context.Context, patient *types.Patient) map[string]string {
	ctx, span := a.tracing.StartSpan(ctx, "guidelines.recommendations")
	defer span.End()
	span.SetAttributes(attribute.String("patient.id", patient.ID))

	text, err := a.generate(ctx, recommendationsPrompt(patient), recommendationsMaxTokens)
	if err != nil {
		a.logger.WithPatient(patient.ID).WithError(err).Warn("Error generating adherence recommendations")
		return FallbackRecommendations()
	}

	recommendations := ParseRecommendations(text)
	if len(recommendations) == 0 {
		a.logger.WithPatient(patient.ID).Warn("Could not parse adherence recommendations, using fallback")
		return FallbackRecommendations()
	}
	span.SetAttributes(attribute.Int("recommendations.count", len(recommendations)))
	return recommendations
}

func (a *Advisor) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	text, err := a.generator.Generate(ctx, prompt, maxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ParseRecommendations reads `"key": value` lines from loosely JSON-shaped text.
// Lines that do not start with a quote or lack a colon are skipped.
func ParseRecommendations(text string) map[string]string {
	recommendations := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `"`) || !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		key := strings.Trim(strings.Trim(strings.TrimSpace(parts[0]), `"`), ":")
		value := strings.Trim(strings.TrimRight(strings.TrimSpace(parts[1]), ","), `"`)
		if key == "" {
			continue
		}
		recommendations[key] = value
	}
	return recommendations
}

func interpretPrompt(source, query string) string {
	var b strings.Builder
	b.WriteString("You are a medical AI assistant specializing in cardiac care guidelines.\n\n")
	fmt.Fprintf(&b, "The following are the %s guidelines for post-myocardial infarction care:\n\n", source)
	b.WriteString(extendedGuidelines(source))
	fmt.Fprintf(&b, "\n\nUser question: %s\n\n", query)
	b.WriteString("Please provide a clear, accurate answer based specifically on these guidelines.\n")
	b.WriteString("If the guidelines don't address the question directly, acknowledge this and provide\n")
	b.WriteString("general information based on the guidelines' overall approach.\n\n")
	b.WriteString("Your answer should be:\n")
	b.WriteString("1. Medically accurate and based on the guidelines\n")
	b.WriteString("2. Easy to understand for healthcare providers\n")
	b.WriteString("3. Concise but comprehensive\n")
	b.WriteString("4. Include specific recommendations from the guidelines when applicable")
	return b.String()
}

func recommendationsPrompt(patient *types.Patient) string {
	var b strings.Builder
	b.WriteString("You are a cardiac care specialist helping patients after myocardial infarction.\n\n")
	b.WriteString("Patient information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", patient.Name)
	fmt.Fprintf(&b, "- Age: %d\n", patient.Age)

	if n := len(patient.Measurements); n > 0 {
		latest := patient.Measurements[n-1]
		symptoms := "None"
		if len(latest.Symptoms) > 0 {
			symptoms = strings.Join(latest.Symptoms, ", ")
		}
		b.WriteString("- Latest measurements:\n")
		fmt.Fprintf(&b, "  - Weight: %s kg\n", number(latest.Weight))
		fmt.Fprintf(&b, "  - Blood pressure: %s/%s mmHg\n", number(latest.Systolic), number(latest.Diastolic))
		fmt.Fprintf(&b, "  - Heart rate: %s bpm\n", number(latest.HeartRate))
		fmt.Fprintf(&b, "- Reported symptoms: %s\n", symptoms)
	}

	b.WriteString("\nGenerate personalized recommendations for this post-myocardial infarction patient in the following categories:\n")
	b.WriteString("1. Medication adherence\n2. Diet recommendations\n3. Physical activity\n4. Symptom monitoring\n\n")
	b.WriteString("Each category should have 2-3 specific, actionable recommendations that are evidence-based and aligned with AHA and GES guidelines for post-MI care.\n\n")
	b.WriteString("Format your response as a JSON-like structure with these categories as keys and the recommendations as values.\n")
	b.WriteString("The recommendations should be in Spanish, as this is for patients in Chile.")
	return b.String()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
