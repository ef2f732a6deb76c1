package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/metrics"
)

type finder interface {
	Find(ctx context.Context, query Query, numResults, offset int) (*Response, error)
}

// Service runs searches and pages through their results.
type Service interface {
	// Search starts a new search session with the first page of results.
	Search(ctx context.Context, query Query) (*Page, error)
	// LoadMore fetches the next page for an existing session.
	LoadMore(ctx context.Context, token string) (*Page, error)
}

// Page is what a search or load-more call hands back to the API layer.
type Page struct {
	Token        string   `json:"token"`
	Results      []Result `json:"results"`
	TotalMatches int      `json:"total_matches"`
	HasMore      bool     `json:"has_more"`
	SearchMode   string   `json:"search_mode"`
	Message      string   `json:"message,omitempty"`
}

type service struct {
	client        finder
	store         SessionStore
	firstPageSize int
	pageSize      int
	metrics       *metrics.PipelineMetrics
}

// NewService wires the search service over the client and session store.
func NewService(client finder, store SessionStore, firstPageSize, pageSize int, m *metrics.PipelineMetrics) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("search client required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if firstPageSize <= 0 {
		return nil, fmt.Errorf("first page size must be positive")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive")
	}
	return &service{
		client:        client,
		store:         store,
		firstPageSize: firstPageSize,
		pageSize:      pageSize,
		metrics:       m,
	}, nil
}

func (s *service) Search(ctx context.Context, query Query) (*Page, error) {
	if query.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a text query or an image is required")
	}

	began := time.Now()
	resp, err := s.client.Find(ctx, query, s.firstPageSize, 0)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &Session{
		Token:        uuid.NewString(),
		Query:        query,
		Results:      resp.Results,
		TotalMatches: resp.TotalMatches,
		HasMore:      resp.HasMore,
		SearchMode:   resp.SearchMode,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.ObserveSearch(resp.SearchMode, time.Since(began), len(resp.Results))
	return &Page{
		Token:        session.Token,
		Results:      session.Results,
		TotalMatches: session.TotalMatches,
		HasMore:      session.HasMore,
		SearchMode:   session.SearchMode,
		Message:      resp.Message,
	}, nil
}

func (s *service) LoadMore(ctx context.Context, token string) (*Page, error) {
	session, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if !session.HasMore {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no more results for this search")
	}

	began := time.Now()
	resp, err := s.client.Find(ctx, session.Query, s.pageSize, len(session.Results))
	if err != nil {
		return nil, err
	}

	session.Results = append(session.Results, resp.Results...)
	session.TotalMatches = resp.TotalMatches
	session.HasMore = resp.HasMore
	if resp.SearchMode != "" {
		session.SearchMode = resp.SearchMode
	}
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.metrics.ObserveSearch(session.SearchMode, time.Since(began), len(resp.Results))
	return &Page{
		Token:        session.Token,
		Results:      session.Results,
		TotalMatches: session.TotalMatches,
		HasMore:      session.HasMore,
		SearchMode:   session.SearchMode,
		Message:      resp.Message,
	}, nil
}
