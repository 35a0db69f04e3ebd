package guidelines

import "strings"

const ahaSummary = "AHA: Post-AMI Recommendations:\n" +
	"• BP <130/80 mmHg (minimum <140/90).\n" +
	"• Beta-blockers: HR 50-70 bpm, prolonged use based on condition.\n" +
	"• LDL <70 mg/dL; consider additional therapies if 55–69 mg/dL.\n" +
	"• HbA1c ~7% in diabetics.\n" +
	"• Echocardiogram 6–12 weeks; consider ICD if LVEF ≤35%.\n" +
	"• Intensive initial follow-up."

const gesSummary = "GES (Chile): Post-AMI/HF Recommendations:\n" +
	"• First check-up in 7–14 days; initial monthly check-ups, spaced after stabilization.\n" +
	"• Early cardiac rehabilitation (minimum 15 sessions in 2 months).\n" +
	"• Focus on adherence, low-sodium diet, and moderate activity.\n" +
	"• Education in self-care and symptom awareness."

// Extended texts are only used as context for interpretation
const ahaExtension = "\n" +
	"• Dual antiplatelet therapy for at least 12 months.\n" +
	"• ACE inhibitors or ARBs for patients with LVEF <40%.\n" +
	"• Statins for all patients regardless of baseline LDL levels.\n" +
	"• Cardiac rehabilitation program enrollment.\n" +
	"• Smoking cessation counseling and support.\n" +
	"• Depression screening and treatment if needed.\n" +
	"• Regular follow-up visits: 2 weeks, 1 month, 3 months, 6 months, and 1 year."

const gesExtension = "\n" +
	"• Guaranteed access to medications through GES program.\n" +
	"• Echocardiogram within first month post-discharge.\n" +
	"• Stress test before 3 months if indicated.\n" +
	"• Psychological support for patients and families.\n" +
	"• Nutritional counseling with focus on Mediterranean diet.\n" +
	"• Smoking cessation program enrollment.\n" +
	"• Regular monitoring of blood pressure, heart rate, and weight.\n" +
	"• Alert system for early detection of decompensation signs."

func extendedGuidelines(source string) string {
	switch strings.ToLower(source) {
	case "aha":
		return ahaSummary + ahaExtension
	case "ges":
		return gesSummary + gesExtension
	default:
		return UnknownSource
	}
}
