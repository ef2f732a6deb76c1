// Package search proxies similarity search against the vector search
// service and keeps per-query paging sessions.
package search

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

	"github.com/omersela/storagescout/internal/catalog"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/pagination"
)

const responseReadLimit int64 = 1024

var errBaseURLRequired = errors.New("search base url is required")

// Query is the operator's search input. At least one of the fields must
// be set; both may be.
type Query struct {
	TextQuery   string `json:"text_query,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

// Empty reports whether the query carries neither text nor image.
func (q Query) Empty() bool {
	return strings.TrimSpace(q.TextQuery) == "" && q.ImageBase64 == ""
}

// Result is a single similarity match, passed through from the search
// service without rescoring.
type Result struct {
	ID                   string           `json:"id"`
	Images               []string         `json:"images,omitempty"`
	Data                 catalog.ItemData `json:"structData"`
	SimilarityPercentage float64          `json:"similarity_percentage"`
	MatchQuality         string           `json:"match_quality"`
	RawDistance          float64          `json:"raw_distance"`
}

// Response is one page of matches from the search service.
type Response struct {
	Results      []Result `json:"results"`
	TotalMatches int      `json:"total_matches"`
	HasMore      bool     `json:"has_more"`
	SearchMode   string   `json:"search_mode"`
	Message      string   `json:"message"`
}

type findRequest struct {
	TextQuery   string `json:"text_query,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	NumResults  int    `json:"num_results"`
	Offset      int    `json:"offset"`
}

// Client calls the vector search service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a search client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Find requests one page of matches for the query.
func (c *Client) Find(ctx context.Context, query Query, numResults, offset int) (*Response, error) {
	if query.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a text query or an image is required")
	}

	page := pagination.Normalize(pagination.Params{Limit: numResults, Offset: offset})
	payload, err := json.Marshal(findRequest{
		TextQuery:   strings.TrimSpace(query.TextQuery),
		ImageBase64: query.ImageBase64,
		NumResults:  page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/find_product", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build search request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute search request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "search request failed")
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode search response")
	}

	for i := range out.Results {
		if out.Results[i].MatchQuality == "" {
			out.Results[i].MatchQuality = QualityFor(out.Results[i].SimilarityPercentage)
		}
	}
	return &out, nil
}
