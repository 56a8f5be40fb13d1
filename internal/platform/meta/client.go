// Package meta is a thin client for the ads-platform Graph endpoints the
// pipeline consumes: lead retrieval plus the page form/subscription calls
// used when an automation is wired up.
package meta

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps the Graph API. It is stateless: every call takes the page
// access token it should act with.
type Client struct {
	http       *resty.Client
	apiVersion string
}

// Config holds configuration for the Graph client.
type Config struct {
	// GraphURL is the API origin, e.g. https://graph.facebook.com.
	// Overridable for tests.
	GraphURL   string
	APIVersion string
}

// APIError is returned for non-success Graph responses and carries the
// provider's error message when one was present.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("graph API error: status %d", e.StatusCode)
}

// errorBody is the Graph error wrapper.
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// NewClient creates a new Graph client.
func NewClient(cfg *Config) *Client {
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = "https://graph.facebook.com"
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "v19.0"
	}

	client := resty.New()
	client.SetBaseURL(graphURL)
	client.SetTimeout(30 * time.Second)

	return &Client{http: client, apiVersion: apiVersion}
}

// FieldData is one captured form field of a lead.
type FieldData struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Lead is the field data of one captured lead.
type Lead struct {
	ID          string      `json:"id"`
	CreatedTime string      `json:"created_time"`
	FieldData   []FieldData `json:"field_data"`
}

// FetchLead retrieves the field data for a leadgen id using the page access
// token.
func (c *Client) FetchLead(ctx context.Context, leadID, accessToken string) (*Lead, error) {
	var lead Lead
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "id,created_time,field_data").
		SetQueryParam("access_token", accessToken).
		SetResult(&lead).
		SetError(&apiErr).
		Get(fmt.Sprintf("/%s/%s", c.apiVersion, leadID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lead %s: %w", leadID, err)
	}
	if resp.IsError() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    apiErr.Error.Message,
			Type:       apiErr.Error.Type,
			Code:       apiErr.Error.Code,
		}
	}
	return &lead, nil
}

// Form is one lead form configured on a page.
type Form struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type formsResponse struct {
	Data []Form `json:"data"`
}

// FetchPageForms lists the leadgen forms of a page. A missing data array
// means the page has no forms; callers always get a non-nil slice.
func (c *Client) FetchPageForms(ctx context.Context, pageID, accessToken string) ([]Form, error) {
	var result formsResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("fields", "id,name,status").
		SetQueryParam("access_token", accessToken).
		SetResult(&result).
		SetError(&apiErr).
		Get(fmt.Sprintf("/%s/%s/leadgen_forms", c.apiVersion, pageID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch forms for page %s: %w", pageID, err)
	}
	if resp.IsError() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    apiErr.Error.Message,
			Type:       apiErr.Error.Type,
			Code:       apiErr.Error.Code,
		}
	}
	if result.Data == nil {
		return []Form{}, nil
	}
	return result.Data, nil
}

type subscribeResponse struct {
	Success bool `json:"success"`
}

// SubscribePageWebhook subscribes the app to leadgen events for a page.
// Used when the dashboard activates an automation's webhook.
func (c *Client) SubscribePageWebhook(ctx context.Context, pageID, accessToken string) error {
	var result subscribeResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("subscribed_fields", "leadgen").
		SetQueryParam("access_token", accessToken).
		SetResult(&result).
		SetError(&apiErr).
		Post(fmt.Sprintf("/%s/%s/subscribed_apps", c.apiVersion, pageID))
	if err != nil {
		return fmt.Errorf("failed to subscribe page %s: %w", pageID, err)
	}
	if resp.IsError() {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Message:    apiErr.Error.Message,
			Type:       apiErr.Error.Type,
			Code:       apiErr.Error.Code,
		}
	}
	if !result.Success {
		return &APIError{StatusCode: resp.StatusCode(), Message: "subscription not confirmed"}
	}
	return nil
}
