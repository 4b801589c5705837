package learningbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testAPIKey = "test-api-key"

func testDefaults() ExportDefaults {
	return ExportDefaults{
		ClientID:    "001",
		Type:        "light",
		Format:      "scorm2004",
		Navigation:  "free",
		WebhookVerb: "POST",
	}
}

func TestNew(t *testing.T) {
	client := New("https://lb.test", testAPIKey, testDefaults(), zerolog.Nop())

	if client.BaseURL != "https://lb.test" {
		t.Errorf("Expected BaseURL to be 'https://lb.test', got '%s'", client.BaseURL)
	}
	if client.APIKey != testAPIKey {
		t.Errorf("Expected APIKey to be '%s', got '%s'", testAPIKey, client.APIKey)
	}
	if client.HTTP == nil {
		t.Fatal("Expected HTTP client to be initialized")
	}
	if client.HTTP.Timeout != 2*time.Minute {
		t.Errorf("Expected HTTP timeout to be 2 minutes, got %v", client.HTTP.Timeout)
	}
}

func TestGetCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET request, got %s", r.Method)
		}
		if r.URL.Path != "/learningbox/list" {
			t.Errorf("Expected path '/learningbox/list', got '%s'", r.URL.Path)
		}
		if r.Header.Get("X-Gravitee-Api-Key") != testAPIKey {
			t.Errorf("Expected api key header '%s', got '%s'", testAPIKey, r.Header.Get("X-Gravitee-Api-Key"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"status": "ok",
			"modules": [
				{
					"id": 42,
					"name": "Intro to Compliance",
					"description": "Long description",
					"short_description": "Short",
					"duration": 90,
					"code": "CMP-101",
					"image": "https://cdn.lb.test/42.png",
					"banner": "https://cdn.lb.test/42-banner.png",
					"tags": [{"id": 1, "name": "compliance"}, {"id": 2, "name": ""}]
				}
			]
		}`))
	}))
	defer server.Close()

	client := New(server.URL, testAPIKey, testDefaults(), zerolog.Nop())

	courses, err := client.GetCatalog(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("Expected 1 course, got %d", len(courses))
	}

	c := courses[0]
	if c.ID != 42 {
		t.Errorf("Expected ID 42, got %d", c.ID)
	}
	if c.Name != "Intro to Compliance" {
		t.Errorf("Expected name 'Intro to Compliance', got '%s'", c.Name)
	}
	if c.Duration != 90 {
		t.Errorf("Expected duration 90, got %d", c.Duration)
	}
	if got := c.Keywords(); len(got) != 1 || got[0] != "compliance" {
		t.Errorf("Expected keywords [compliance], got %v", got)
	}
}

func TestGetCatalogBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "error", "modules": []}`))
	}))
	defer server.Close()

	client := New(server.URL, testAPIKey, testDefaults(), zerolog.Nop())

	_, err := client.GetCatalog(context.Background())
	if err == nil {
		t.Fatal("Expected an error for a non-ok catalog status")
	}
}

func TestRequestExportPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/learningbox/request-by-id" {
			t.Errorf("Expected path '/learningbox/request-by-id', got '%s'", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := New(server.URL, testAPIKey, testDefaults(), zerolog.Nop())

	err := client.RequestExport(context.Background(), 42, "https://bridge.test/learningbox_webhook")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if received["id"] != float64(42) {
		t.Errorf("Expected id 42, got %v", received["id"])
	}
	if received["client_id"] != "001" {
		t.Errorf("Expected client_id '001', got %v", received["client_id"])
	}
	if received["format"] != "scorm2004" {
		t.Errorf("Expected format 'scorm2004', got %v", received["format"])
	}
	if received["webhook_url"] != "https://bridge.test/learningbox_webhook" {
		t.Errorf("Expected webhook_url to round-trip, got %v", received["webhook_url"])
	}
	if received["webhook_verb"] != "POST" {
		t.Errorf("Expected webhook_verb 'POST', got %v", received["webhook_verb"])
	}
}

func TestRequestExportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"status": "error", "message": "unknown course"}`))
	}))
	defer server.Close()

	client := New(server.URL, testAPIKey, testDefaults(), zerolog.Nop())

	err := client.RequestExport(context.Background(), 42, "https://bridge.test/hook")
	if err == nil {
		t.Fatal("Expected an error for a 422 response")
	}
}
