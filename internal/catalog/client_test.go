package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestClientList(t *testing.T) {
	t.Parallel()

	respBody := `{"products":[{"id":"item-1","title":"Box of bolts","catalogNumber":"B-100","description":"M6 bolts","imageUrl":"https://cdn/images/item-1_0.jpg","imageUrls":["https://cdn/images/item-1_0.jpg","https://cdn/images/item-1_1.jpg"],"categories":["Product","Warehouse Inventory"],"available_time":"2026-01-02T00:00:00Z"}]}`

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Method != http.MethodGet {
			t.Fatalf("expected GET, got %s", req.Method)
		}
		return jsonResponse(http.StatusOK, respBody), nil
	})

	client, err := NewClient("http://catalog.test/", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	items, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if capturedURL != "http://catalog.test/get_products" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.ID != "item-1" || got.Title != "Box of bolts" || got.CatalogNumber != "B-100" {
		t.Fatalf("unexpected item %+v", got)
	}
	if got.ImageURL != "https://cdn/images/item-1_0.jpg" || len(got.ImageURLs) != 2 {
		t.Fatalf("unexpected images %+v", got)
	}
}

func TestClientListEmptyCatalog(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"products":[]}`), nil
	})

	client, err := NewClient("http://catalog.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	items, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty listing, got %d items", len(items))
	}
}

func TestClientUpdateSendsImagesChanged(t *testing.T) {
	t.Parallel()

	var captured map[string]json.RawMessage
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", req.Method)
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{}`), nil
	})

	client, err := NewClient("http://catalog.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	item := Item{
		ID:     "item-1",
		Images: []string{"https://cdn/images/item-1_0.jpg"},
		Data:   ItemData{Title: "Box of bolts", Categories: DefaultCategories},
	}
	if err := client.Update(context.Background(), item, true); err != nil {
		t.Fatalf("update: %v", err)
	}

	var changed bool
	if err := json.Unmarshal(captured["imagesChanged"], &changed); err != nil {
		t.Fatalf("unmarshal imagesChanged: %v", err)
	}
	if !changed {
		t.Fatal("expected imagesChanged=true")
	}
	var product Item
	if err := json.Unmarshal(captured["product"], &product); err != nil {
		t.Fatalf("unmarshal product: %v", err)
	}
	if product.ID != "item-1" {
		t.Fatalf("unexpected product %+v", product)
	}
}

func TestClientDeleteByQueryParam(t *testing.T) {
	t.Parallel()

	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		if req.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", req.Method)
		}
		return jsonResponse(http.StatusNoContent, ""), nil
	})

	client, err := NewClient("http://catalog.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Delete(context.Background(), "item-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if capturedURL != "http://catalog.test/get_products?id=item-1" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
}

func TestClientDeleteNotFound(t *testing.T) {
	t.Parallel()

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, "no such item"), nil
	})

	client, err := NewClient("http://catalog.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Delete(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected not found error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected base url error")
	}
}
