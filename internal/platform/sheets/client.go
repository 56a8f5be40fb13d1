// Package sheets is a thin client for the spreadsheet-provider operations
// the pipeline consumes: delegated token refresh, row append, and the two
// metadata reads the dashboard's picker uses.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps the Sheets, Drive, and OAuth token endpoints. It is
// stateless: every call takes the delegated access token it should act
// with; only the app's OAuth client credentials are held for refreshes.
type Client struct {
	http         *resty.Client
	clientID     string
	clientSecret string
	tokenURL     string
	sheetsURL    string
	driveURL     string
}

// Config holds configuration for the spreadsheet client. The URLs are
// overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	SheetsURL    string
	DriveURL     string
}

// APIError is returned for non-success provider responses and carries the
// provider's error message when one was present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sheets API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sheets API error: status %d", e.StatusCode)
}

// errorBody covers both error shapes the provider uses: the structured
// {"error": {"message": ...}} of the API surfaces and the flat
// {"error": ..., "error_description": ...} of the token endpoint.
type errorBody struct {
	Error            interface{} `json:"error"`
	ErrorDescription string      `json:"error_description"`
}

func (b *errorBody) message() string {
	switch v := b.Error.(type) {
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	case string:
		if b.ErrorDescription != "" {
			return v + ": " + b.ErrorDescription
		}
		return v
	}
	return ""
}

// NewClient creates a new spreadsheet client.
func NewClient(cfg *Config) *Client {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = "https://oauth2.googleapis.com/token"
	}
	sheetsURL := cfg.SheetsURL
	if sheetsURL == "" {
		sheetsURL = "https://sheets.googleapis.com/v4"
	}
	driveURL := cfg.DriveURL
	if driveURL == "" {
		driveURL = "https://www.googleapis.com/drive/v3"
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Client{
		http:         client,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     tokenURL,
		sheetsURL:    sheetsURL,
		driveURL:     driveURL,
	}
}

// Token is the result of a refresh-token exchange.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// ExpiresAt converts the relative expiry to an absolute timestamp.
func (t *Token) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// RefreshAccessToken exchanges a refresh token for a new access token. The
// refresh token itself stays valid and is never rotated by this call.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	var token Token
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
			"refresh_token": refreshToken,
			"grant_type":    "refresh_token",
		}).
		SetResult(&token).
		SetError(&apiErr).
		Post(c.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.message()}
	}
	if token.AccessToken == "" {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: "token response missing access_token"}
	}
	return &token, nil
}

type appendRequest struct {
	Values [][]string `json:"values"`
}

type appendResponse struct {
	Updates struct {
		UpdatedRange string `json:"updatedRange"`
		UpdatedRows  int    `json:"updatedRows"`
	} `json:"updates"`
}

// AppendRow appends a single row to the named sheet (tab), after the last
// non-empty row of column A.
func (c *Client) AppendRow(ctx context.Context, accessToken, spreadsheetID, sheetName string, row []string) error {
	rangeRef := fmt.Sprintf("'%s'!A:A", sheetName)
	var result appendResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("valueInputOption", "USER_ENTERED").
		SetQueryParam("insertDataOption", "INSERT_ROWS").
		SetBody(appendRequest{Values: [][]string{row}}).
		SetResult(&result).
		SetError(&apiErr).
		Post(fmt.Sprintf("%s/spreadsheets/%s/values/%s:append", c.sheetsURL, spreadsheetID, rangeRef))
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Message: apiErr.message()}
	}
	return nil
}

// Sheet is one tab of a spreadsheet.
type Sheet struct {
	Title string
}

// Spreadsheet is the metadata the dashboard needs to pick a destination.
type Spreadsheet struct {
	ID     string
	Title  string
	Sheets []Sheet
}

type spreadsheetResponse struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Properties    struct {
		Title string `json:"title"`
	} `json:"properties"`
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

// GetSpreadsheet fetches a spreadsheet's title and its sheet (tab) names.
func (c *Client) GetSpreadsheet(ctx context.Context, accessToken, spreadsheetID string) (*Spreadsheet, error) {
	var result spreadsheetResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("fields", "spreadsheetId,properties.title,sheets.properties.title").
		SetResult(&result).
		SetError(&apiErr).
		Get(fmt.Sprintf("%s/spreadsheets/%s", c.sheetsURL, spreadsheetID))
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.message()}
	}

	spreadsheet := &Spreadsheet{
		ID:    result.SpreadsheetID,
		Title: result.Properties.Title,
	}
	for _, s := range result.Sheets {
		spreadsheet.Sheets = append(spreadsheet.Sheets, Sheet{Title: s.Properties.Title})
	}
	return spreadsheet, nil
}

// File is one spreadsheet visible to the connected account.
type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type filesResponse struct {
	Files []File `json:"files"`
}

// ListSpreadsheets lists the spreadsheets the delegated account can see.
// A response without a files array means none; callers always get a
// non-nil slice.
func (c *Client) ListSpreadsheets(ctx context.Context, accessToken string) ([]File, error) {
	var result filesResponse
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("q", "mimeType='application/vnd.google-apps.spreadsheet'").
		SetQueryParam("fields", "files(id,name)").
		SetResult(&result).
		SetError(&apiErr).
		Get(c.driveURL + "/files")
	if err != nil {
		return nil, fmt.Errorf("failed to list spreadsheets: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: apiErr.message()}
	}
	if result.Files == nil {
		return []File{}, nil
	}
	return result.Files, nil
}
