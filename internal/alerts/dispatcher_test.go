package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/monitoring"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockTextGenerator is a mock implementation of TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, prompt, maxTokens)
	return args.String(0), args.Error(1)
}

// MockMessageSender is a mock implementation of MessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) Send(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

func newTestDispatcher(gen *MockTextGenerator, sender *MockMessageSender) *Dispatcher {
	return NewDispatcher(gen, sender, DispatcherConfig{},
		monitoring.NewMetricsCollector("test", prometheus.NewRegistry()),
		monitoring.NewTracingManager("test"),
		logger.NewNop(),
	)
}

var criticalAlerts = []types.Alert{
	{Message: "Elevated systolic pressure: 190.0 mmHg.", Level: types.AlertLevelRed},
	{Message: "Dyspnea reported. Check for possible congestion signs.", Level: types.AlertLevelYellow},
}

func TestDispatcher_NoContactAddress(t *testing.T) {
	gen := &MockTextGenerator{}
	sender := &MockMessageSender{}
	d := newTestDispatcher(gen, sender)

	result := d.Run(context.Background(), &types.Patient{ID: "p1", Name: "Ana"}, criticalAlerts)

	assert.False(t, result.Delivered)
	assert.Equal(t, ReasonNoContact, result.Reason)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Delivered(t *testing.T) {
	gen := &MockTextGenerator{}
	sender := &MockMessageSender{}
	d := newTestDispatcher(gen, sender)
	patient := &types.Patient{ID: "p1", Name: "Ana", Age: 64, Phone: "56911112222"}

	gen.On("Generate", mock.Anything, AlertPrompt(patient, criticalAlerts), DefaultAlertMaxTokens).
		Return("  Hola Ana, su presión está elevada.  ", nil)
	sender.On("Send", mock.Anything, "56911112222", "Hola Ana, su presión está elevada.").Return(nil)

	assert.True(t, d.Dispatch(context.Background(), patient, criticalAlerts))
	gen.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestDispatcher_GenerationFailureUsesFallback(t *testing.T) {
	want := "ALERTA: Elevated systolic pressure: 190.0 mmHg., Dyspnea reported. Check for possible congestion signs.. Por favor contacte a su médico lo antes posible."

	tests := []struct {
		name string
		text string
		err  error
	}{
		{"error", "", errors.New("provider down")},
		{"blank text", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockTextGenerator{}
			sender := &MockMessageSender{}
			d := newTestDispatcher(gen, sender)

			gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(tt.text, tt.err)
			sender.On("Send", mock.Anything, "569", want).Return(nil)

			result := d.Run(context.Background(), &types.Patient{ID: "p1", Phone: "569"}, criticalAlerts)

			assert.True(t, result.Delivered)
			assert.False(t, result.Generated)
			assert.Equal(t, want, result.Message)
			sender.AssertExpectations(t)
		})
	}
}

func TestDispatcher_SendFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"transport", errors.New("connection reset"), ReasonDeliveryFailed},
		{"provider rejected", types.NewExternalError(types.ErrCodeDeliveryFailed, "status 400", nil), ReasonDeliveryFailed},
		{"not configured", types.NewConfigurationError(types.ErrCodeNotConfigured, "missing credentials"), ReasonNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockTextGenerator{}
			sender := &MockMessageSender{}
			d := newTestDispatcher(gen, sender)

			gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("mensaje", nil)
			sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(tt.err).Once()

			result := d.Run(context.Background(), &types.Patient{ID: "p1", Phone: "569"}, criticalAlerts)

			assert.False(t, result.Delivered)
			assert.True(t, result.Generated)
			assert.Equal(t, tt.reason, result.Reason)
			sender.AssertNumberOfCalls(t, "Send", 1)
		})
	}
}

func TestDispatcher_CallsAreBoundedByTimeout(t *testing.T) {
	gen := &MockTextGenerator{}
	sender := &MockMessageSender{}
	d := NewDispatcher(gen, sender, DispatcherConfig{CallTimeout: 50 * time.Millisecond}, nil, nil, logger.NewNop())

	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, ok := ctx.Deadline()
			assert.True(t, ok)
		}).
		Return("", context.DeadlineExceeded)
	sender.On("Send", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			deadline, ok := ctx.Deadline()
			assert.True(t, ok)
			assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		}).
		Return(nil)

	result := d.Run(context.Background(), &types.Patient{ID: "p1", Phone: "569"}, criticalAlerts)

	assert.True(t, result.Delivered)
	assert.False(t, result.Generated)
}

func TestAlertPrompt(t *testing.T) {
	prompt := AlertPrompt(&types.Patient{Name: "Ana", Age: 64}, criticalAlerts)

	assert.Contains(t, prompt, "- Name: Ana")
	assert.Contains(t, prompt, "- Age: 64")
	assert.Contains(t, prompt, "Elevated systolic pressure: 190.0 mmHg. (Level: red)")
	assert.Contains(t, prompt, "(Level: yellow)")
	assert.Contains(t, prompt, "Spanish")
}
