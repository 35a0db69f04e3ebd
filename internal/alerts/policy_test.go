package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ranvier2d2/nexo-plus-project/internal/store"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDispatcher is a mock implementation of NotificationDispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, patient *types.Patient, alerts []types.Alert) bool {
	args := m.Called(ctx, patient, alerts)
	return args.Bool(0)
}

func newPolicyFixture(t *testing.T, measurements ...types.Measurement) (*Policy, *store.PatientStore, *MockDispatcher, string) {
	t.Helper()
	log := logger.NewNop()
	patients := store.NewPatientStore(log)
	params := store.NewParameterStore(types.DefaultThresholdParameters(), log)
	dispatcher := &MockDispatcher{}

	created, err := patients.Create(context.Background(), &types.Patient{Name: "Ana", Age: 64, Phone: "569"})
	require.NoError(t, err)
	for _, m := range measurements {
		_, err := patients.AppendMeasurement(context.Background(), created.ID, m)
		require.NoError(t, err)
	}

	policy := NewPolicy(patients, params, dispatcher, nil, nil, log)
	policy.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return policy, patients, dispatcher, created.ID
}

func TestPolicy_NoCriticalAlerts(t *testing.T) {
	policy, patients, dispatcher, id := newPolicyFixture(t,
		types.Measurement{Weight: 70, Systolic: 125, Diastolic: 82, HeartRate: 75},
		types.Measurement{Weight: 73, Systolic: 128, Diastolic: 85, HeartRate: 78},
	)

	outcome, err := policy.CheckPatient(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, outcome.Alerts, 1)
	assert.False(t, outcome.Notified)
	assert.Nil(t, outcome.Intervention)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)

	history, err := patients.Interventions(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPolicy_CriticalAlertRecordsOneIntervention(t *testing.T) {
	for _, delivered := range []bool{true, false} {
		delivered := delivered
		name := "delivered"
		if !delivered {
			name = "dispatch failed"
		}

		t.Run(name, func(t *testing.T) {
			policy, patients, dispatcher, id := newPolicyFixture(t,
				types.Measurement{Weight: 75, Systolic: 190, Diastolic: 95, HeartRate: 80, Symptoms: []string{"disnea"}},
			)
			dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(p *types.Patient) bool { return p.ID == id }), mock.Anything).
				Return(delivered).Once()

			outcome, err := policy.CheckPatient(context.Background(), id)
			require.NoError(t, err)

			assert.True(t, outcome.Notified)
			assert.Equal(t, delivered, outcome.Delivered)
			require.Len(t, outcome.Alerts, 2)
			dispatcher.AssertExpectations(t)

			// All alerts are dispatched, not only the critical ones
			dispatched := dispatcher.Calls[0].Arguments.Get(2).([]types.Alert)
			assert.Equal(t, outcome.Alerts, dispatched)

			history, err := patients.Interventions(context.Background(), id)
			require.NoError(t, err)
			require.Len(t, history, 1)
			assert.Equal(t, types.Intervention{
				Timestamp: "2024-05-01T12:00:00Z",
				Action:    InterventionAction,
				Alerts:    "Elevated systolic pressure: 190.0 mmHg.; Dyspnea reported. Check for possible congestion signs.",
			}, history[0])
			assert.Equal(t, history[0], *outcome.Intervention)
		})
	}
}

func TestPolicy_EachEvaluationAppendsOneEntry(t *testing.T) {
	policy, patients, dispatcher, id := newPolicyFixture(t,
		types.Measurement{Weight: 75, Systolic: 190, Diastolic: 95, HeartRate: 80},
	)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(false)

	for i := 0; i < 3; i++ {
		_, err := policy.CheckPatient(context.Background(), id)
		require.NoError(t, err)
	}

	history, err := patients.Interventions(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 3)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 3)
}

func TestPolicy_UnknownPatient(t *testing.T) {
	policy, _, dispatcher, _ := newPolicyFixture(t)

	_, err := policy.CheckPatient(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestPolicy_PatientRemovedBeforeAppend(t *testing.T) {
	policy, patients, dispatcher, id := newPolicyFixture(t)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			require.NoError(t, patients.Delete(context.Background(), id))
		}).
		Return(true)

	_, err := policy.Apply(context.Background(), &types.Patient{ID: id}, []types.Alert{{Message: "x", Level: types.AlertLevelRed}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPatientNotFound))
}
