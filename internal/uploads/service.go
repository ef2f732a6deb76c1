// Package uploads runs the submission pipeline: images first, one at a
// time and in capture order, then the metadata record.
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omersela/storagescout/internal/catalog"
	"github.com/omersela/storagescout/internal/photo"
	"github.com/omersela/storagescout/pkg/blobstore"
	pkgerrors "github.com/omersela/storagescout/pkg/errors"
	"github.com/omersela/storagescout/pkg/metrics"
)

type catalogClient interface {
	Update(ctx context.Context, item catalog.Item, imagesChanged bool) error
	Delete(ctx context.Context, id string) error
}

type geocoder interface {
	Geocode(ctx context.Context, query string) (string, error)
}

// NewItemInput is everything needed to submit a freshly captured item.
type NewItemInput struct {
	Title         string
	Description   string
	Location      string
	InternalID    string
	AvailableTime string
	Photos        []photo.Photo
}

// EditItemInput updates an existing item. KeptImageURIs are the already
// stored images the operator chose to keep, in their kept order; new
// photos follow them.
type EditItemInput struct {
	Title              string
	Description        string
	Location           string
	InternalID         string
	AvailableTime      string
	KeptImageURIs      []string
	NewPhotos          []photo.Photo
	PreviousImageCount int
}

// Service drives item submissions against blob storage and the catalog.
type Service interface {
	SubmitNew(ctx context.Context, input NewItemInput) (*catalog.Item, error)
	// SubmitEdit reports whether the image set actually changed so the
	// caller can surface it alongside the updated item.
	SubmitEdit(ctx context.Context, itemID string, input EditItemInput) (*catalog.Item, bool, error)
	Delete(ctx context.Context, itemID string) error
	Progress() Progress
}

type service struct {
	blob            blobstore.Store
	catalog         catalogClient
	geocoder        geocoder
	requireLocation bool
	metrics         *metrics.PipelineMetrics

	mu       sync.Mutex
	progress Progress
}

// NewService wires the upload pipeline. The geocoder is optional; when
// present it normalizes the operator's free-text location.
func NewService(blob blobstore.Store, cat catalogClient, geo geocoder, requireLocation bool, m *metrics.PipelineMetrics) (Service, error) {
	if blob == nil {
		return nil, fmt.Errorf("blob store required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	return &service{
		blob:            blob,
		catalog:         cat,
		geocoder:        geo,
		requireLocation: requireLocation,
		metrics:         m,
		progress:        Progress{State: StateIdle},
	}, nil
}

func (s *service) SubmitNew(ctx context.Context, input NewItemInput) (*catalog.Item, error) {
	if err := s.validateFields(input.Title, input.Location); err != nil {
		return nil, err
	}
	if len(input.Photos) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one photo is required")
	}

	location, err := s.resolveLocation(ctx, input.Location)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	itemID := uuid.NewString()
	s.setProgress(Progress{State: StateUploadingImages, ItemID: itemID, ImageCount: len(input.Photos)})

	uris := make([]string, 0, len(input.Photos))
	for i, p := range input.Photos {
		s.setProgress(Progress{State: StateUploadingImages, ItemID: itemID, ImageIndex: i, ImageCount: len(input.Photos)})
		uri, err := s.blob.Put(ctx, imagePath(itemID, i), p.Data, p.ContentType)
		if err != nil {
			s.fail(itemID, len(input.Photos))
			s.metrics.ObserveUpload("new", time.Since(began), err)
			return nil, partialError(err, i, i, len(input.Photos))
		}
		uris = append(uris, uri)
	}
	s.metrics.AddUploadedImages(len(uris))

	item := catalog.Item{
		ID:     itemID,
		Images: uris,
		Data: catalog.ItemData{
			Title:           strings.TrimSpace(input.Title),
			Description:     strings.TrimSpace(input.Description),
			Categories:      catalog.DefaultCategories,
			ProductLocation: location,
			InternalID:      strings.TrimSpace(input.InternalID),
			AvailableTime:   availableTime(input.AvailableTime),
		},
	}

	s.setProgress(Progress{State: StateWritingMetadata, ItemID: itemID, ImageIndex: len(uris), ImageCount: len(uris)})
	if err := s.writeRecord(ctx, item); err != nil {
		s.fail(itemID, len(input.Photos))
		s.metrics.ObserveUpload("new", time.Since(began), err)
		return nil, partialError(err, len(uris), -1, len(input.Photos))
	}

	s.setProgress(Progress{State: StateDone, ItemID: itemID, ImageIndex: len(uris), ImageCount: len(uris)})
	s.metrics.ObserveUpload("new", time.Since(began), nil)
	return &item, nil
}

func (s *service) SubmitEdit(ctx context.Context, itemID string, input EditItemInput) (*catalog.Item, bool, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if err := s.validateFields(input.Title, input.Location); err != nil {
		return nil, false, err
	}
	if len(input.KeptImageURIs)+len(input.NewPhotos) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "an item needs at least one image")
	}

	location, err := s.resolveLocation(ctx, input.Location)
	if err != nil {
		return nil, false, err
	}

	began := time.Now()
	s.setProgress(Progress{State: StateUploadingImages, ItemID: itemID, ImageCount: len(input.NewPhotos)})

	// Start new image indices where the previous set ended so fresh
	// uploads never overwrite images the operator kept.
	uris := append([]string(nil), input.KeptImageURIs...)
	for i, p := range input.NewPhotos {
		s.setProgress(Progress{State: StateUploadingImages, ItemID: itemID, ImageIndex: i, ImageCount: len(input.NewPhotos)})
		uri, err := s.blob.Put(ctx, imagePath(itemID, input.PreviousImageCount+i), p.Data, p.ContentType)
		if err != nil {
			s.fail(itemID, len(input.NewPhotos))
			s.metrics.ObserveUpload("edit", time.Since(began), err)
			return nil, false, partialError(err, i, i, len(input.NewPhotos))
		}
		uris = append(uris, uri)
	}
	s.metrics.AddUploadedImages(len(input.NewPhotos))

	item := catalog.Item{
		ID:     itemID,
		Images: uris,
		Data: catalog.ItemData{
			Title:           strings.TrimSpace(input.Title),
			Description:     strings.TrimSpace(input.Description),
			Categories:      catalog.DefaultCategories,
			ProductLocation: location,
			InternalID:      strings.TrimSpace(input.InternalID),
			AvailableTime:   availableTime(input.AvailableTime),
		},
	}

	imagesChanged := len(input.NewPhotos) > 0 || len(input.KeptImageURIs) != input.PreviousImageCount

	s.setProgress(Progress{State: StateWritingMetadata, ItemID: itemID, ImageIndex: len(input.NewPhotos), ImageCount: len(input.NewPhotos)})
	if err := s.writeRecord(ctx, item); err != nil {
		s.fail(itemID, len(input.NewPhotos))
		s.metrics.ObserveUpload("edit", time.Since(began), err)
		return nil, false, partialError(err, len(input.NewPhotos), -1, len(input.NewPhotos))
	}
	if err := s.catalog.Update(ctx, item, imagesChanged); err != nil {
		s.fail(itemID, len(input.NewPhotos))
		s.metrics.ObserveUpload("edit", time.Since(began), err)
		return nil, false, err
	}

	s.setProgress(Progress{State: StateDone, ItemID: itemID, ImageIndex: len(input.NewPhotos), ImageCount: len(input.NewPhotos)})
	s.metrics.ObserveUpload("edit", time.Since(began), nil)
	return &item, imagesChanged, nil
}

func (s *service) Delete(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if err := s.catalog.Delete(ctx, itemID); err != nil {
		return err
	}
	// The metadata record is removed so the indexer drops the item.
	return s.blob.Delete(ctx, recordPath(itemID))
}

// Progress returns a snapshot of the pipeline state.
func (s *service) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *service) validateFields(title, location string) error {
	if strings.TrimSpace(title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if s.requireLocation && strings.TrimSpace(location) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a storage location is required")
	}
	return nil
}

func (s *service) resolveLocation(ctx context.Context, location string) (string, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" || s.geocoder == nil {
		return trimmed, nil
	}
	resolved, err := s.geocoder.Geocode(ctx, trimmed)
	if err != nil {
		// Geocoding is best effort; keep the operator's text.
		return trimmed, nil
	}
	return resolved, nil
}

func (s *service) writeRecord(ctx context.Context, item catalog.Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal item record")
	}
	if _, err := s.blob.Put(ctx, recordPath(item.ID), raw, "application/json"); err != nil {
		return err
	}
	return nil
}

func (s *service) setProgress(p Progress) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
}

func (s *service) fail(itemID string, count int) {
	s.setProgress(Progress{State: StateFailed, ItemID: itemID, ImageCount: count})
}

func imagePath(itemID string, index int) string {
	return fmt.Sprintf("images/%s_%d.jpg", itemID, index)
}

func recordPath(itemID string) string {
	return fmt.Sprintf("json/%s.json", itemID)
}

func availableTime(v string) string {
	if strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func partialError(cause error, uploaded, failedIndex, total int) error {
	if uploaded == 0 && failedIndex == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, "upload failed before any image was stored")
	}
	details := map[string]any{
		"uploaded": uploaded,
		"total":    total,
	}
	if failedIndex >= 0 {
		details["failed_index"] = failedIndex
	} else {
		details["failed_stage"] = "metadata"
	}
	return pkgerrors.Wrap(pkgerrors.CodePartialUpload, cause, "upload failed after some images were stored").
		WithDetails(details)
}
