// Package zplace is the HTTP client for the Zevent Place levels endpoint.
// The server only answers one pixel per request, so callers issue one
// GraphQL query per coordinate.
package zplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eliegoudout/zlevels/internal/canvas"
)

// DefaultEndpoint is the Zevent Place API base URL from the 2022 event.
const DefaultEndpoint = "https://place.zevent.fr"

const graphqlPath = "/graphql"

// levelQuery is the getPixelLevel operation as captured from the event's
// web client.
const levelQuery = "query getPixelLevel($pixel: PixelUpgradeInput!) {getPixelLevel(pixel: $pixel) {x y level coloredBy upgradedBy __typename}}"

// ErrUnauthorized reports a rejected or expired credential. Every request
// of a pass would fail the same way, so callers treat it as fatal.
var ErrUnauthorized = errors.New("credential rejected")

// ErrMalformed reports a response body that could not be decoded into a
// pixel level.
var ErrMalformed = errors.New("malformed response")

// Class buckets per-coordinate errors for the final report.
type Class string

const (
	ClassAuth      Class = "auth"
	ClassMalformed Class = "malformed"
	ClassTransient Class = "transient"
)

// Classify maps an error from PixelLevel to its report class.
func Classify(err error) Class {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return ClassAuth
	case errors.Is(err, ErrMalformed):
		return ClassMalformed
	default:
		return ClassTransient
	}
}

// Client issues per-pixel level queries against one endpoint with one
// bearer token. It is safe for concurrent use.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// NewClient builds a client for the given base URL and bearer token.
func NewClient(endpoint, token string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pixelVariables is the wire form of one coordinate. The remote API
// swaps x and y relative to this repo's row/column convention.
type pixelVariables struct {
	Pixel struct {
		X int `json:"x"`
		Y int `json:"y"`
	} `json:"pixel"`
}

type levelRequest struct {
	OperationName string         `json:"operationName"`
	Variables     pixelVariables `json:"variables"`
	Query         string         `json:"query"`
}

type levelResponse struct {
	Data struct {
		GetPixelLevel *struct {
			X     int   `json:"x"`
			Y     int   `json:"y"`
			Level int64 `json:"level"`
		} `json:"getPixelLevel"`
	} `json:"data"`
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// PixelLevel fetches the level of one coordinate.
func (c *Client) PixelLevel(ctx context.Context, coord canvas.Coordinate) (int64, error) {
	payload := levelRequest{
		OperationName: "getPixelLevel",
		Query:         levelQuery,
	}
	// Wire convention inverts x and y.
	payload.Variables.Pixel.X = coord.Y
	payload.Variables.Pixel.Y = coord.X

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+graphqlPath, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("pixel %s: %w", coord, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("pixel %s: HTTP %d: %w", coord, resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return 0, fmt.Errorf("pixel %s: unexpected HTTP %d", coord, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("pixel %s: read body: %w", coord, err)
	}

	var decoded levelResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("pixel %s: %w: %v", coord, ErrMalformed, err)
	}
	for _, ge := range decoded.Errors {
		if ge.Extensions.Code == "UNAUTHENTICATED" || ge.Extensions.Code == "FORBIDDEN" {
			return 0, fmt.Errorf("pixel %s: %s: %w", coord, ge.Message, ErrUnauthorized)
		}
	}
	if len(decoded.Errors) > 0 {
		return 0, fmt.Errorf("pixel %s: %w: graphql: %s", coord, ErrMalformed, decoded.Errors[0].Message)
	}
	if decoded.Data.GetPixelLevel == nil {
		return 0, fmt.Errorf("pixel %s: %w: no getPixelLevel payload", coord, ErrMalformed)
	}
	level := decoded.Data.GetPixelLevel.Level
	if level < 0 {
		return 0, fmt.Errorf("pixel %s: %w: negative level %d", coord, ErrMalformed, level)
	}
	return level, nil
}

// Probe fetches a single pixel to check credential and reachability.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.PixelLevel(ctx, canvas.Coordinate{X: 0, Y: 0})
	return err
}
