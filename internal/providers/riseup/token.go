package riseup

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"scorm-bridge/internal/httpx"
)

// refreshMargin renews the token this long before its announced expiry so an
// in-flight call never races the server-side cutoff.
const refreshMargin = 60 * time.Second

type tokenState int

const (
	stateUnauthenticated tokenState = iota
	stateValid
	stateExpiringSoon
)

func (s tokenState) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateValid:
		return "valid"
	case stateExpiringSoon:
		return "expiring-soon"
	}
	return "unknown"
}

// tokenSource owns the cached bearer token and its refresh cycle. It is safe
// for concurrent use; one refresh runs at a time and other callers wait on it.
type tokenSource struct {
	fetch func(ctx context.Context) (token string, ttl time.Duration, err error)
	now   func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newTokenSource(fetch func(ctx context.Context) (string, time.Duration, error)) *tokenSource {
	return &tokenSource{fetch: fetch, now: time.Now}
}

func (t *tokenSource) state() tokenState {
	if t.token == "" {
		return stateUnauthenticated
	}
	now := t.now()
	if now.After(t.expiry) || now.After(t.expiry.Add(-refreshMargin)) {
		return stateExpiringSoon
	}
	return stateValid
}

// Token returns a bearer token, refreshing when unauthenticated or inside the
// expiry margin. The lock is held across the refresh so concurrent webhook
// deliveries trigger exactly one token request.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state() == stateValid {
		return t.token, nil
	}

	token, ttl, err := t.fetch(ctx)
	if err != nil {
		t.token = ""
		t.expiry = time.Time{}
		return "", err
	}

	t.token = token
	t.expiry = t.now().Add(ttl)
	return t.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// fetchToken performs the OAuth2 client-credentials exchange against the
// Rise Up token endpoint using Basic auth over the API key pair.
func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	creds := base64.StdEncoding.EncodeToString([]byte(c.PublicKey + ":" + c.PrivateKey))
	form := url.Values{"grant_type": {"client_credentials"}}.Encode()

	var tr tokenResponse
	err := httpx.DoJSON(
		ctx,
		c.HTTP,
		func(ctx context.Context) (*http.Request, error) {
			r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/oauth/token", strings.NewReader(form))
			if err != nil {
				return nil, err
			}
			r.Header.Set("Authorization", "Basic "+creds)
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			r.Header.Set("Accept", "application/json")
			return r, nil
		},
		&tr,
		httpx.DefaultRetryConfig(),
	)
	if err != nil {
		return "", 0, fmt.Errorf("riseup: token request failed: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("riseup: token response carried no access_token")
	}

	c.Log.Debug().Int64("expires_in", tr.ExpiresIn).Msg("obtained Rise Up token")
	return tr.AccessToken, time.Duration(tr.ExpiresIn) * time.Second, nil
}
