package types

import "time"

// JSON tags keep the wire names used by the existing web client.

// Measurement is a single self-reported clinical reading
type Measurement struct {
	Timestamp time.Time `json:"timestamp"`
	Weight    float64   `json:"peso"`
	Systolic  float64   `json:"presion_sistolica"`
	Diastolic float64   `json:"presion_diastolica"`
	HeartRate float64   `json:"frecuencia_cardiaca"`
	Symptoms  []string  `json:"sintomas"`
}

// Intervention is an audit record appended to a patient's history
type Intervention struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Alerts    string `json:"alerts"`
}

// Patient holds identity, contact address and the patient's owned histories
type Patient struct {
	ID                  string         `json:"id"`
	Name                string         `json:"nombre"`
	Age                 int            `json:"edad"`
	Phone               string         `json:"telefono,omitempty"`
	Measurements        []Measurement  `json:"measurements"`
	InterventionHistory []Intervention `json:"intervention_history"`
}

// Clone returns a deep copy that shares no slices with p
func (p *Patient) Clone() *Patient {
	c := *p
	c.Measurements = make([]Measurement, len(p.Measurements))
	for i, m := range p.Measurements {
		c.Measurements[i] = m.clone()
	}
	c.InterventionHistory = append([]Intervention{}, p.InterventionHistory...)
	return &c
}

func (m Measurement) clone() Measurement {
	if m.Symptoms != nil {
		m.Symptoms = append([]string{}, m.Symptoms...)
	}
	return m
}

// AlertLevel represents alert severity values
type AlertLevel string

const (
	AlertLevelGreen  AlertLevel = "green"
	AlertLevelYellow AlertLevel = "yellow"
	AlertLevelRed    AlertLevel = "red"
)

// Alert is one rule engine finding
type Alert struct {
	Message string     `json:"mensaje"`
	Level   AlertLevel `json:"nivel"`
}

// ThresholdParameters are the process-wide limits used by the rule engine
type ThresholdParameters struct {
	SystolicMin  float64 `json:"pa_min"`
	SystolicMax  float64 `json:"pa_max"`
	HeartRateMin float64 `json:"fc_min"`
	HeartRateMax float64 `json:"fc_max"`
	WeightDelta  float64 `json:"peso_delta"`
}

// DefaultThresholdParameters returns the clinical defaults
func DefaultThresholdParameters() ThresholdParameters {
	return ThresholdParameters{
		SystolicMin:  90,
		SystolicMax:  180,
		HeartRateMin: 50,
		HeartRateMax: 120,
		WeightDelta:  2.0,
	}
}

// ParameterUpdate represents a partial update; nil fields are left untouched
type ParameterUpdate struct {
	SystolicMin  *float64 `json:"pa_min,omitempty"`
	SystolicMax  *float64 `json:"pa_max,omitempty"`
	HeartRateMin *float64 `json:"fc_min,omitempty"`
	HeartRateMax *float64 `json:"fc_max,omitempty"`
	WeightDelta  *float64 `json:"peso_delta,omitempty"`
	UpdatedBy    string   `json:"updated_by"`
}

// ParameterAuditEntry records one parameter update
type ParameterAuditEntry struct {
	Timestamp      time.Time           `json:"timestamp"`
	UpdatedBy      string              `json:"updated_by"`
	PreviousValues ThresholdParameters `json:"previous_values"`
	NewValues      map[string]float64  `json:"new_values"`
}

// TextIngestion is free text captured for later processing
type TextIngestion struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// VisionIngestion is an image reference plus text extracted from it
type VisionIngestion struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	ImageURL       string            `json:"image_url,omitempty"`
	Caption        string            `json:"caption,omitempty"`
	AdditionalText string            `json:"additional_text,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
