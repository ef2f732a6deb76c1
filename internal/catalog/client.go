package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

const responseReadLimit int64 = 1024

var errBaseURLRequired = errors.New("catalog base url is required")

// Client calls the product metadata service.
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

// NewClient builds a catalog client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// listResponse wraps the listing payload the metadata service returns.
type listResponse struct {
	Products []ListedItem `json:"products"`
}

// List fetches every item known to the metadata service, flattened and
// sorted by title on the service side.
func (c *Client) List(ctx context.Context) ([]ListedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get_products", nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build list request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute list request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "list items failed")
	}

	var listing listResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode list response")
	}
	return listing.Products, nil
}

// updateRequest is the PUT payload understood by the metadata service.
type updateRequest struct {
	Product       Item `json:"product"`
	ImagesChanged bool `json:"imagesChanged"`
}

// Update replaces an item's metadata. imagesChanged tells the service
// whether the image set differs from what it has indexed.
func (c *Client) Update(ctx context.Context, item Item, imagesChanged bool) error {
	if strings.TrimSpace(item.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	payload, err := json.Marshal(updateRequest{Product: item, ImagesChanged: imagesChanged})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal update request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/get_products", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build update request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute update request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "update item failed")
	}
	return nil
}

// Delete removes an item from the metadata service.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	endpoint := fmt.Sprintf("%s/get_products?id=%s", c.baseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build delete request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute delete request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp, "delete item failed")
	}
	return nil
}

func statusError(resp *http.Response, message string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	cause := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, message)
}
