package base44

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"warehouse-sync-backend/config"
)

// ErrRateLimited is returned when the remote API answers with HTTP 429.
// Callers must stop issuing further calls in the current run when they see it.
var ErrRateLimited = errors.New("base44: rate limited")

// Manifest is the wire representation of one truck's shipment session.
type Manifest struct {
	TruckNumber string     `json:"truck_number"`
	Carrier     string     `json:"carrier"`
	Location    string     `json:"location"`
	SecurityTag string     `json:"security_tag,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	ScanCount   int        `json:"scan_count"`
}

// LineItem is the wire representation of one scanned package.
type LineItem struct {
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier,omitempty"`
	Destination    string    `json:"destination,omitempty"`
	Vendor         string    `json:"vendor,omitempty"`
	ScannedAt      time.Time `json:"scanned_at"`
}

// Client is a thin wrapper over the Base44 entity API. The remote service is
// treated as unreliable and rate limited; the client only translates calls,
// it does not retry.
type Client struct {
	baseURL string
	appID   string
	apiKey  string
	client  *http.Client
}

// NewClient creates a client from the Base44 section of the configuration.
func NewClient(cfg *config.Base44Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		appID:   cfg.AppID,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type createResponse struct {
	ID string `json:"id"`
}

type lineItemRecord struct {
	ID             string `json:"id"`
	ManifestID     string `json:"manifest_id"`
	TrackingNumber string `json:"tracking_number"`
}

// CreateManifest creates a remote manifest and returns its remote-assigned
// identifier. The caller is responsible for calling it at most once per
// truck; the API itself does not deduplicate.
func (c *Client) CreateManifest(ctx context.Context, m Manifest) (string, error) {
	body, err := c.do(ctx, http.MethodPost, c.entityURL("OutboundManifest"), m)
	if err != nil {
		return "", err
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to unmarshal manifest response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("manifest response contained no id")
	}
	return created.ID, nil
}

// ListLineItems returns the tracking numbers of every line item already
// attached to the given remote manifest. The result is the source of truth
// for what actually landed remotely.
func (c *Client) ListLineItems(ctx context.Context, manifestID string) ([]string, error) {
	filter, err := json.Marshal(map[string]string{"manifest_id": manifestID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal line item filter: %w", err)
	}
	u := c.entityURL("ManifestItem") + "?q=" + url.QueryEscape(string(filter))

	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var records []lineItemRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line item list: %w", err)
	}

	tracking := make([]string, 0, len(records))
	for _, r := range records {
		if r.TrackingNumber != "" {
			tracking = append(tracking, r.TrackingNumber)
		}
	}
	return tracking, nil
}

// CreateLineItem attaches one scanned package to a remote manifest.
func (c *Client) CreateLineItem(ctx context.Context, manifestID string, item LineItem) error {
	payload := struct {
		ManifestID string `json:"manifest_id"`
		LineItem
	}{ManifestID: manifestID, LineItem: item}

	_, err := c.do(ctx, http.MethodPost, c.entityURL("ManifestItem"), payload)
	return err
}

func (c *Client) entityURL(entity string) string {
	return fmt.Sprintf("%s/api/apps/%s/entities/%s", c.baseURL, c.appID, entity)
}

// do performs one request and returns the response body. HTTP 429 maps to
// ErrRateLimited; any other non-2xx status is a hard failure.
func (c *Client) do(ctx context.Context, method, rawURL string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api_key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
