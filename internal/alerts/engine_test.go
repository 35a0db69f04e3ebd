package alerts

import (
	"testing"

	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normal() types.Measurement {
	return types.Measurement{Weight: 70, Systolic: 125, Diastolic: 82, HeartRate: 75}
}

func withWeight(w float64) types.Measurement {
	m := normal()
	m.Weight = w
	return m
}

func TestEvaluate_EmptyHistory(t *testing.T) {
	alerts := Evaluate(nil, types.DefaultThresholdParameters())
	require.NotNil(t, alerts)
	assert.Empty(t, alerts)

	alerts = Evaluate([]types.Measurement{}, types.DefaultThresholdParameters())
	require.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestEvaluate_NormalReading(t *testing.T) {
	alerts := Evaluate([]types.Measurement{normal()}, types.DefaultThresholdParameters())
	assert.Empty(t, alerts)
}

func TestEvaluate_WeightTrend(t *testing.T) {
	tests := []struct {
		name    string
		history []types.Measurement
		want    string
	}{
		{"single measurement never compares", []types.Measurement{withWeight(90)}, ""},
		{"at threshold", []types.Measurement{withWeight(70), withWeight(72)}, ""},
		{"below threshold", []types.Measurement{withWeight(70), withWeight(71.5)}, ""},
		{"loss", []types.Measurement{withWeight(70), withWeight(60)}, ""},
		{"above threshold", []types.Measurement{withWeight(70), withWeight(73)}, "Weight increase of 3.0 kg detected. Check for fluid retention."},
		{"rounded to one decimal", []types.Measurement{withWeight(70), withWeight(72.26)}, "Weight increase of 2.3 kg detected. Check for fluid retention."},
		{
			"compares against baseline not previous",
			[]types.Measurement{withWeight(70), withWeight(71.5), withWeight(72.5)},
			"Weight increase of 2.5 kg detected. Check for fluid retention.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Evaluate(tt.history, types.DefaultThresholdParameters())
			if tt.want == "" {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.want, alerts[0].Message)
			assert.Equal(t, types.AlertLevelYellow, alerts[0].Level)
		})
	}
}

func TestEvaluate_Systolic(t *testing.T) {
	tests := []struct {
		name     string
		systolic float64
		want     string
	}{
		{"lower bound inclusive", 90, ""},
		{"upper bound inclusive", 180, ""},
		{"low", 85, "Low systolic pressure: 85.0 mmHg."},
		{"low fractional", 89.5, "Low systolic pressure: 89.5 mmHg."},
		{"elevated", 190, "Elevated systolic pressure: 190.0 mmHg."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := normal()
			m.Systolic = tt.systolic
			alerts := Evaluate([]types.Measurement{m}, types.DefaultThresholdParameters())
			if tt.want == "" {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.want, alerts[0].Message)
			assert.Equal(t, types.AlertLevelRed, alerts[0].Level)
		})
	}
}

func TestEvaluate_HeartRate(t *testing.T) {
	tests := []struct {
		name string
		hr   float64
		want string
	}{
		{"lower bound inclusive", 50, ""},
		{"upper bound inclusive", 120, ""},
		{"elevated", 130, "Elevated heart rate: 130.0 bpm."},
		{"low", 45, "Low heart rate: 45.0 bpm."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := normal()
			m.HeartRate = tt.hr
			alerts := Evaluate([]types.Measurement{m}, types.DefaultThresholdParameters())
			if tt.want == "" {
				assert.Empty(t, alerts)
				return
			}
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.want, alerts[0].Message)
			assert.Equal(t, types.AlertLevelRed, alerts[0].Level)
		})
	}
}

func TestEvaluate_InvertedRangeChecksElevatedFirst(t *testing.T) {
	// With min > max a reading can be outside both bounds; only one alert fires per vital.
	params := types.DefaultThresholdParameters()
	params.SystolicMin, params.SystolicMax = 150, 100
	params.HeartRateMin, params.HeartRateMax = 100, 60

	m := normal()
	m.Systolic = 120
	m.HeartRate = 80

	alerts := Evaluate([]types.Measurement{m}, params)
	require.Len(t, alerts, 2)
	assert.Equal(t, "Low systolic pressure: 120.0 mmHg.", alerts[0].Message)
	assert.Equal(t, "Elevated heart rate: 80.0 bpm.", alerts[1].Message)
}

func TestEvaluate_Symptoms(t *testing.T) {
	const (
		ischemia   = "Chest pain detected. Evaluate possible ischemia."
		congestion = "Dyspnea reported. Check for possible congestion signs."
	)

	tests := []struct {
		name     string
		symptoms []string
		want     []types.Alert
	}{
		{"none", nil, nil},
		{"chest pain", []string{"chest pain"}, []types.Alert{{Message: ischemia, Level: types.AlertLevelRed}}},
		{"upper case", []string{"CHEST PAIN"}, []types.Alert{{Message: ischemia, Level: types.AlertLevelRed}}},
		{"spanish", []string{"Dolor Torácico"}, []types.Alert{{Message: ischemia, Level: types.AlertLevelRed}}},
		{"surrounding whitespace", []string{"  chest pain "}, []types.Alert{{Message: ischemia, Level: types.AlertLevelRed}}},
		{"substring does not match", []string{"mild chest pain today"}, nil},
		{"dyspnea", []string{"Shortness of breath"}, []types.Alert{{Message: congestion, Level: types.AlertLevelYellow}}},
		{"dyspnea spanish", []string{"disnea"}, []types.Alert{{Message: congestion, Level: types.AlertLevelYellow}}},
		{
			"both fire in rule order",
			[]string{"disnea", "fatigue", "chest pain"},
			[]types.Alert{
				{Message: ischemia, Level: types.AlertLevelRed},
				{Message: congestion, Level: types.AlertLevelYellow},
			},
		},
		{"duplicates fire once", []string{"chest pain", "Chest Pain", "dolor torácico"}, []types.Alert{{Message: ischemia, Level: types.AlertLevelRed}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := normal()
			m.Symptoms = tt.symptoms
			alerts := Evaluate([]types.Measurement{m}, types.DefaultThresholdParameters())
			if tt.want == nil {
				assert.Empty(t, alerts)
				return
			}
			assert.Equal(t, tt.want, alerts)
		})
	}
}

func TestEvaluate_RuleOrder(t *testing.T) {
	first := withWeight(70)
	latest := types.Measurement{
		Weight:    75,
		Systolic:  80,
		Diastolic: 50,
		HeartRate: 140,
		Symptoms:  []string{"disnea", "chest pain"},
	}

	alerts := Evaluate([]types.Measurement{first, latest}, types.DefaultThresholdParameters())

	assert.Equal(t, []string{
		"Weight increase of 5.0 kg detected. Check for fluid retention.",
		"Low systolic pressure: 80.0 mmHg.",
		"Elevated heart rate: 140.0 bpm.",
		"Chest pain detected. Evaluate possible ischemia.",
		"Dyspnea reported. Check for possible congestion signs.",
	}, Messages(alerts))
}

func TestEvaluate_DoesNotMutateHistory(t *testing.T) {
	history := []types.Measurement{
		withWeight(70),
		{Weight: 74, Systolic: 190, Diastolic: 95, HeartRate: 80, Symptoms: []string{"  CHEST PAIN "}},
	}
	before := make([]types.Measurement, len(history))
	for i, m := range history {
		before[i] = m
		before[i].Symptoms = append([]string(nil), m.Symptoms...)
	}

	Evaluate(history, types.DefaultThresholdParameters())

	assert.Equal(t, before, history)
}

func TestEvaluate_Scenarios(t *testing.T) {
	t.Run("weight gain yields one yellow alert", func(t *testing.T) {
		history := []types.Measurement{
			{Weight: 70, Systolic: 125, Diastolic: 82, HeartRate: 75, Symptoms: []string{}},
			{Weight: 73, Systolic: 128, Diastolic: 85, HeartRate: 78, Symptoms: []string{}},
		}

		alerts := Evaluate(history, types.DefaultThresholdParameters())

		require.Len(t, alerts, 1)
		assert.Equal(t, types.AlertLevelYellow, alerts[0].Level)
		assert.Contains(t, alerts[0].Message, "3.0")
		assert.False(t, RequiresNotification(alerts))
	})

	t.Run("elevated systolic yields one red alert", func(t *testing.T) {
		history := []types.Measurement{
			{Weight: 75, Systolic: 190, Diastolic: 95, HeartRate: 80, Symptoms: []string{}},
		}

		alerts := Evaluate(history, types.DefaultThresholdParameters())

		require.Len(t, alerts, 1)
		assert.Equal(t, types.AlertLevelRed, alerts[0].Level)
		assert.Equal(t, "Elevated systolic pressure: 190.0 mmHg.", alerts[0].Message)
		assert.True(t, RequiresNotification(alerts))
	})
}

func TestRequiresNotification(t *testing.T) {
	tests := []struct {
		name   string
		alerts []types.Alert
		want   bool
	}{
		{"nil", nil, false},
		{"empty", []types.Alert{}, false},
		{"yellow only", []types.Alert{{Level: types.AlertLevelYellow}, {Level: types.AlertLevelGreen}}, false},
		{"one red", []types.Alert{{Level: types.AlertLevelYellow}, {Level: types.AlertLevelRed}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiresNotification(tt.alerts))
		})
	}
}
