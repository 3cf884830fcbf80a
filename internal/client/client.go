// Package client implements the HTTP adapter for the remote feed source.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/okholm/feedwatch/internal/logging"
	"github.com/okholm/feedwatch/internal/models"
)

// timestampFormat is RFC3339 with millisecond precision; cursors advance
// in 1ms steps so the wire format must not drop them.
const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Query describes a single bounded events request.
type Query struct {
	// Limit is the page size, always set.
	Limit int

	// TeamID is present only for team-scoped queries.
	TeamID string

	// Since selects events newer than the cursor (forward refresh).
	Since *time.Time

	// Until selects events older than the cached tail (backward
	// pagination). Mutually exclusive with Since.
	Until *time.Time
}

// Fetcher is the fetch adapter contract the orchestrator depends on.
type Fetcher interface {
	FetchEvents(ctx context.Context, q Query) ([]models.Event, error)
}

// Client fetches activity events over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a feed API client. All requests share one http.Client with
// the given timeout.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.Component("feed-client"),
	}
}

// eventsResponse is the wire envelope for the events endpoint.
type eventsResponse struct {
	Events []models.Event `json:"events"`
}

// FetchEvents issues one bounded query and returns the decoded page.
// Events missing required fields are skipped rather than failing the page.
func (c *Client) FetchEvents(ctx context.Context, q Query) ([]models.Event, error) {
	if q.Since != nil && q.Until != nil {
		return nil, fmt.Errorf("query cannot set both since and until")
	}

	endpoint, err := url.Parse(c.baseURL + "/api/events")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.TeamID != "" {
		params.Set("team_id", q.TeamID)
	}
	if q.Since != nil {
		params.Set("since", q.Since.UTC().Format(timestampFormat))
	}
	if q.Until != nil {
		params.Set("until", q.Until.UTC().Format(timestampFormat))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	var body eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &MalformedResponse{Err: err}
	}

	events := make([]models.Event, 0, len(body.Events))
	for _, e := range body.Events {
		if err := e.Validate(); err != nil {
			c.logger.Warn().
				Str("event_id", e.ID).
				Str("error", logging.Redact(err.Error())).
				Msg("skipping event with missing fields")
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
