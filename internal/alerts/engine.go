package alerts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// Symptom keywords, matched against lower-cased reported symptoms
var (
	chestPainSymptoms         = []string{"dolor torácico", "chest pain"}
	shortnessOfBreathSymptoms = []string{"disnea", "shortness of breath"}
)

// Evaluate applies the alert rules to the most recent measurement of history.
// It is pure: history is never modified and the result depends only on its inputs.
// Alerts are ordered by rule (weight, pressure, heart rate, symptoms), not by severity.
func Evaluate(history []types.Measurement, params types.ThresholdParameters) []types.Alert {
	alerts := []types.Alert{}
	if len(history) == 0 {
		return alerts
	}

	latest := history[len(history)-1]

	// Weight trend against the baseline (first) measurement
	if len(history) > 1 {
		delta := latest.Weight - history[0].Weight
		if delta > params.WeightDelta {
			alerts = append(alerts, types.Alert{
				Message: fmt.Sprintf("Weight increase of %.1f kg detected. Check for fluid retention.", delta),
				Level:   types.AlertLevelYellow,
			})
		}
	}

	if latest.Systolic < params.SystolicMin {
		alerts = append(alerts, types.Alert{
			Message: fmt.Sprintf("Low systolic pressure: %s mmHg.", formatReading(latest.Systolic)),
			Level:   types.AlertLevelRed,
		})
	} else if latest.Systolic > params.SystolicMax {
		alerts = append(alerts, types.Alert{
			Message: fmt.Sprintf("Elevated systolic pressure: %s mmHg.", formatReading(latest.Systolic)),
			Level:   types.AlertLevelRed,
		})
	}

	// Heart rate checks the upper bound first
	if latest.HeartRate > params.HeartRateMax {
		alerts = append(alerts, types.Alert{
			Message: fmt.Sprintf("Elevated heart rate: %s bpm.", formatReading(latest.HeartRate)),
			Level:   types.AlertLevelRed,
		})
	} else if latest.HeartRate < params.HeartRateMin {
		alerts = append(alerts, types.Alert{
			Message: fmt.Sprintf("Low heart rate: %s bpm.", formatReading(latest.HeartRate)),
			Level:   types.AlertLevelRed,
		})
	}

	if len(latest.Symptoms) > 0 {
		reported := normalizeSymptoms(latest.Symptoms)
		if reported.hasAny(chestPainSymptoms) {
			alerts = append(alerts, types.Alert{
				Message: "Chest pain detected. Evaluate possible ischemia.",
				Level:   types.AlertLevelRed,
			})
		}
		if reported.hasAny(shortnessOfBreathSymptoms) {
			alerts = append(alerts, types.Alert{
				Message: "Dyspnea reported. Check for possible congestion signs.",
				Level:   types.AlertLevelYellow,
			})
		}
	}

	return alerts
}

// RequiresNotification reports whether any alert is critical
func RequiresNotification(alerts []types.Alert) bool {
	for _, a := range alerts {
		if a.Level == types.AlertLevelRed {
			return true
		}
	}
	return false
}

// Messages returns the alert messages in order
func Messages(alerts []types.Alert) []string {
	msgs := make([]string, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, a.Message)
	}
	return msgs
}

type symptomSet map[string]struct{}

func normalizeSymptoms(symptoms []string) symptomSet {
	set := make(symptomSet, len(symptoms))
	for _, s := range symptoms {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return set
}

func (s symptomSet) hasAny(keywords []string) bool {
	for _, k := range keywords {
		if _, ok := s[k]; ok {
			return true
		}
	}
	return false
}

// formatReading renders whole readings with one decimal ("190.0") and keeps
// fractional ones as entered ("92.5").
func formatReading(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
