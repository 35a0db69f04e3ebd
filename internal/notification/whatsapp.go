package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ranvier2d2/nexo-plus-project/pkg/interfaces"
	"github.com/ranvier2d2/nexo-plus-project/pkg/logger"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

// WhatsAppConfig configures the WhatsApp Cloud API client
type WhatsAppConfig struct {
	BaseURL    string
	APIVersion string
	PhoneID    string
	Token      string
	Timeout    time.Duration
}

// whatsAppMessage is the Cloud API text message body
type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppText struct {
	Body string `json:"body"`
}

// WhatsAppClient sends text messages through the WhatsApp Cloud API
type WhatsAppClient struct {
	httpClient *resty.Client
	apiVersion string
	phoneID    string
	token      string
	logger     *logger.Logger
}

var _ interfaces.MessageSender = (*WhatsAppClient)(nil)

// NewWhatsAppClient creates a Cloud API client. Requests are never retried.
func NewWhatsAppClient(cfg WhatsAppConfig, log *logger.Logger) *WhatsAppClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v14.0"
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &WhatsAppClient{
		httpClient: client,
		apiVersion: cfg.APIVersion,
		phoneID:    cfg.PhoneID,
		token:      cfg.Token,
		logger:     log,
	}
}

// Configured reports whether both the phone number ID and the token are present
func (c *WhatsAppClient) Configured() bool {
	return c.phoneID != "" && c.token != ""
}

// Send delivers body to the given phone number. Only 200 and 201 count as success.
func (c *WhatsAppClient) Send(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return types.NewConfigurationError(types.ErrCodeNotConfigured, "WhatsApp phone ID or token is not configured")
	}
	if to == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "recipient phone number is required", nil)
	}

	message := whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             whatsAppText{Body: body},
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.token).
		SetBody(message).
		Post(fmt.Sprintf("/%s/%s/messages", c.apiVersion, c.phoneID))

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return types.NewTimeoutError(types.ErrCodeTimeout, "WhatsApp request timed out", err)
		}
		return types.NewExternalError(types.ErrCodeDeliveryFailed, "failed to call WhatsApp API", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		return nil
	default:
		c.logger.WithComponent("whatsapp").WithFields(map[string]interface{}{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Warn("WhatsApp API rejected message")
		return &types.ServiceError{
			Type:    types.ErrorTypeExternal,
			Code:    types.ErrCodeDeliveryFailed,
			Message: fmt.Sprintf("WhatsApp API returned status %d", resp.StatusCode()),
			Details: map[string]interface{}{"status_code": resp.StatusCode()},
		}
	}
}
