// Package learningbox talks to the LearningBox content API: catalog listing
// and asynchronous SCORM export requests.
package learningbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"scorm-bridge/internal/domain"
	"scorm-bridge/internal/httpx"
)

const apiKeyHeader = "X-Gravitee-Api-Key"

// ExportDefaults are the fixed fields of every SCORM export request.
type ExportDefaults struct {
	ClientID    string
	Type        string
	Format      string
	Navigation  string
	WebhookVerb string
}

type Client struct {
	BaseURL  string
	APIKey   string
	Defaults ExportDefaults
	HTTP     *http.Client
	Log      zerolog.Logger
}

func New(baseURL, apiKey string, defaults ExportDefaults, log zerolog.Logger) *Client {
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Defaults: defaults,
		HTTP: &http.Client{
			Timeout: 2 * time.Minute,
		},
		Log: log,
	}
}

type catalogResponse struct {
	Status  string                    `json:"status"`
	Modules []domain.CourseDescriptor `json:"modules"`
}

// GetCatalog lists every course in the LearningBox catalog.
func (c *Client) GetCatalog(ctx context.Context) ([]domain.CourseDescriptor, error) {
	var out catalogResponse
	err := httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/learningbox/list", nil)
			if err != nil {
				return nil, err
			}
			r.Header.Set(apiKeyHeader, c.APIKey)
			r.Header.Set("Accept", "application/json")
			return r, nil
		},
		&out,
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("learningbox: list catalog failed: %w", err)
	}
	if out.Status != "ok" {
		return nil, fmt.Errorf("learningbox: list catalog returned status=%q", out.Status)
	}

	c.Log.Info().Int("count", len(out.Modules)).Msg("fetched LearningBox catalog")
	return out.Modules, nil
}

type exportRequest struct {
	ID          int64  `json:"id"`
	ClientID    string `json:"client_id"`
	Type        string `json:"type"`
	Format      string `json:"format"`
	Navigation  string `json:"navigation"`
	WebhookURL  string `json:"webhook_url"`
	WebhookVerb string `json:"webhook_verb"`
}

// RequestExport asks LearningBox to generate a SCORM package for courseID and
// deliver it, minutes to hours later, to webhookURL. Fire-and-forget: a nil
// return only means the request was accepted.
func (c *Client) RequestExport(ctx context.Context, courseID int64, webhookURL string) error {
	payload := exportRequest{
		ID:          courseID,
		ClientID:    c.Defaults.ClientID,
		Type:        c.Defaults.Type,
		Format:      c.Defaults.Format,
		Navigation:  c.Defaults.Navigation,
		WebhookURL:  webhookURL,
		WebhookVerb: c.Defaults.WebhookVerb,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, _, err = httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/learningbox/request-by-id", bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			r.Header.Set(apiKeyHeader, c.APIKey)
			r.Header.Set("Content-Type", "application/json")
			r.Header.Set("Accept", "application/json")
			return r, nil
		},
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return fmt.Errorf("learningbox: export request for course %d failed: %w", courseID, err)
	}

	c.Log.Info().Int64("course", courseID).Str("webhook", webhookURL).Msg("requested SCORM export")
	return nil
}
