// Package riseup talks to the Rise Up platform API: course/module/step
// creation and content uploads, behind an OAuth2 client-credentials token.
package riseup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"scorm-bridge/internal/httpx"
)

type Client struct {
	BaseURL       string
	PublicKey     string
	PrivateKey    string
	CreatorUserID int64
	HTTP          *http.Client
	Log           zerolog.Logger

	tokens *tokenSource
}

func New(baseURL, publicKey, privateKey string, creatorUserID int64, log zerolog.Logger) *Client {
	tr := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	c := &Client{
		BaseURL:       baseURL,
		PublicKey:     publicKey,
		PrivateKey:    privateKey,
		CreatorUserID: creatorUserID,
		HTTP: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: tr,
		},
		Log: log,
	}
	c.tokens = newTokenSource(c.fetchToken)
	return c
}

// Entity is the slice of a Rise Up creation response this system keeps: the
// id of the created course, module, or step. A zero ID means the response
// carried none.
type Entity struct {
	ID int64 `json:"id"`
}

// CourseCreate mirrors the Rise Up POST /courses payload.
type CourseCreate struct {
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	IDUser      int64    `json:"iduser"`
	Language    string   `json:"language"`
	Description string   `json:"description"`
	Objective   string   `json:"objective"`
	Reference   string   `json:"reference"`
	EduDuration int      `json:"eduduration"`
	State       string   `json:"state"`
	Visible     bool     `json:"visible"`
	Keywords    []string `json:"keywords"`
}

// ModuleCreate mirrors the Rise Up POST /modules payload.
type ModuleCreate struct {
	IDTraining  int64  `json:"idtraining"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Position    int    `json:"position"`
	EduDuration int    `json:"eduduration"`
}

// StepCreate mirrors the Rise Up POST /steps payload.
type StepCreate struct {
	IDModule    int64  `json:"idmodule"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Position    int    `json:"position"`
}

func (c *Client) CreateCourse(ctx context.Context, req CourseCreate) (*Entity, error) {
	if req.IDUser == 0 {
		req.IDUser = c.CreatorUserID
	}
	if req.Keywords == nil {
		req.Keywords = []string{}
	}
	return c.create(ctx, "/courses", req)
}

func (c *Client) CreateModule(ctx context.Context, req ModuleCreate) (*Entity, error) {
	return c.create(ctx, "/modules", req)
}

func (c *Client) CreateStep(ctx context.Context, req StepCreate) (*Entity, error) {
	return c.create(ctx, "/steps", req)
}

func (c *Client) create(ctx context.Context, endpoint string, payload any) (*Entity, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var ent Entity
	err = httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return nil, err
			}
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Authorization", "Bearer "+token)
			r.Header.Set("Content-Type", "application/json")
			r.Header.Set("Accept", "application/json")
			return r, nil
		},
		&ent,
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return nil, fmt.Errorf("riseup: create %s failed: %w", endpoint, err)
	}
	return &ent, nil
}

// UploadStepContent uploads a SCORM zip to POST /steps/content/{stepID}.
// stepID is the string form kept in the mapping store. Single attempt: the
// webhook path reports upload failures upstream instead of retrying locally.
func (c *Client) UploadStepContent(ctx context.Context, stepID string, content []byte, filename string) error {
	return c.uploadFile(ctx, "/steps/content/"+stepID, content, filename, "application/zip", httpx.NoRetry())
}

// UploadCourseImage uploads a course cover image. Best-effort at the caller.
func (c *Client) UploadCourseImage(ctx context.Context, courseID int64, content []byte, filename string) error {
	return c.uploadFile(ctx, fmt.Sprintf("/courses/image/%d", courseID), content, filename, "", httpx.DefaultRetryConfig())
}

// UploadCourseBanner uploads a course banner image. Best-effort at the caller.
func (c *Client) UploadCourseBanner(ctx context.Context, courseID int64, content []byte, filename string) error {
	return c.uploadFile(ctx, fmt.Sprintf("/courses/banner/%d", courseID), content, filename, "", httpx.DefaultRetryConfig())
}

func (c *Client) uploadFile(ctx context.Context, endpoint string, content []byte, filename, contentType string, retry httpx.RetryConfig) error {
	body, mime, err := httpx.EncodeMultipart(httpx.FilePart{
		FieldName:   "file",
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return err
	}

	_, _, err = httpx.DoWithRetry(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			token, err := c.tokens.Token(ctx)
			if err != nil {
				return nil, err
			}
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Authorization", "Bearer "+token)
			r.Header.Set("Content-Type", mime)
			r.Header.Set("Accept", "application/json")
			return r, nil
		},
		retry,
	)
	if err != nil {
		return fmt.Errorf("riseup: upload to %s failed: %w", endpoint, err)
	}

	c.Log.Info().Str("endpoint", endpoint).Str("file", filename).Int("bytes", len(content)).Msg("upload to Rise Up succeeded")
	return nil
}
