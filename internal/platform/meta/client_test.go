package meta

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient(&Config{GraphURL: srv.URL, APIVersion: "v19.0"})
	return client, srv
}

func TestFetchLead(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v19.0/L1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("access_token"); got != "page-token" {
			t.Errorf("access_token = %q, want page-token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "L1",
			"created_time": "2026-08-01T10:00:00+0000",
			"field_data": [
				{"name": "email", "values": ["a@b.com"]},
				{"name": "full_name", "values": ["Ada Lovelace"]}
			]
		}`))
	}))
	defer srv.Close()

	lead, err := client.FetchLead(context.Background(), "L1", "page-token")
	if err != nil {
		t.Fatalf("FetchLead() error: %v", err)
	}
	if lead.ID != "L1" {
		t.Errorf("lead.ID = %q, want L1", lead.ID)
	}
	if len(lead.FieldData) != 2 {
		t.Fatalf("len(FieldData) = %d, want 2", len(lead.FieldData))
	}
	if lead.FieldData[0].Name != "email" || lead.FieldData[0].Values[0] != "a@b.com" {
		t.Errorf("FieldData[0] = %+v", lead.FieldData[0])
	}
}

func TestFetchLeadAPIError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "Invalid OAuth access token", "type": "OAuthException", "code": 190}}`))
	}))
	defer srv.Close()

	_, err := client.FetchLead(context.Background(), "L1", "expired-token")
	if err == nil {
		t.Fatal("FetchLead() expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.Message != "Invalid OAuth access token" {
		t.Errorf("Message = %q, want provider message", apiErr.Message)
	}
	if apiErr.Code != 190 {
		t.Errorf("Code = %d, want 190", apiErr.Code)
	}
}

func TestFetchPageFormsDefaultsToEmpty(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	forms, err := client.FetchPageForms(context.Background(), "P1", "page-token")
	if err != nil {
		t.Fatalf("FetchPageForms() error: %v", err)
	}
	if forms == nil || len(forms) != 0 {
		t.Errorf("FetchPageForms() = %v, want empty non-nil slice", forms)
	}
}

func TestSubscribePageWebhook(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v19.0/P1/subscribed_apps" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	if err := client.SubscribePageWebhook(context.Background(), "P1", "page-token"); err != nil {
		t.Fatalf("SubscribePageWebhook() error: %v", err)
	}
}
