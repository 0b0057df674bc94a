package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ImageStore persists uploaded event images and returns the stored path.
type ImageStore interface {
	UploadImage(ctx context.Context, filename string, size int64, r io.Reader) (string, error)
}

// AdminService validates and forwards event mutations, then invalidates the
// presentation cache. It never retries and holds no state between calls.
type AdminService struct {
	repo   Repository
	images *ImageResolver
	store  ImageStore
	cache  PageCache
	loc    *time.Location
}

func NewAdminService(repo Repository, images *ImageResolver, store ImageStore, cache PageCache, loc *time.Location) *AdminService {
	if images == nil {
		images = NewImageResolver(nil, "")
	}
	if loc == nil {
		loc = time.Local
	}
	return &AdminService{repo: repo, images: images, store: store, cache: cache, loc: loc}
}

// List returns every readable event, soonest first, with image URLs.
func (s *AdminService) List(ctx context.Context, now time.Time) ([]Listed, error) {
	var items []Event
	err := fetchPage(ctx, s.cache, PathAdminDashboard, &items, func(ctx context.Context) ([]Event, error) {
		records, err := s.repo.ListRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		out := normalizeRecords(ctx, records)
		SortByDate(out, s.loc)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	today := now.In(s.loc)
	listed := make([]Listed, 0, len(items))
	for _, e := range items {
		listed = append(listed, Listed{Event: e, ImageURL: s.images.URLFor(e), Status: StatusOn(e.Date, today)})
	}
	return listed, nil
}

func (s *AdminService) Create(ctx context.Context, payload Payload) (Event, error) {
	params, err := s.prepare(ctx, payload)
	if err != nil {
		return Event{}, err
	}
	raw, err := s.repo.Create(ctx, params)
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	s.invalidate(ctx)
	return NormalizeRecord(raw)
}

func (s *AdminService) Update(ctx context.Context, id int64, payload Payload) (Event, error) {
	if id <= 0 {
		return Event{}, ErrNotFound
	}
	params, err := s.prepare(ctx, payload)
	if err != nil {
		return Event{}, err
	}
	raw, err := s.repo.Update(ctx, id, params)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("update event %d: %w", id, err)
	}
	s.invalidate(ctx)
	return NormalizeRecord(raw)
}

// Delete is a hard delete.
func (s *AdminService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *AdminService) Categories(ctx context.Context) ([]CategoryRecord, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// UploadImage stores an image for later use as image_filename.
func (s *AdminService) UploadImage(ctx context.Context, filename string, size int64, r io.Reader) (string, error) {
	if s.store == nil {
		return "", errors.New("image storage is not configured")
	}
	path, err := s.store.UploadImage(ctx, filename, size, r)
	if err != nil {
		return "", err
	}
	return path, nil
}

// prepare validates the payload and resolves its category before any write.
func (s *AdminService) prepare(ctx context.Context, payload Payload) (WriteParams, error) {
	clean, err := payload.Normalize()
	if err != nil {
		return WriteParams{}, err
	}

	params := WriteParams{
		Title:           clean.Title,
		Description:     clean.Description,
		LongDescription: clean.LongDescription,
		Date:            clean.Date,
		Time:            clean.Time,
		Location:        clean.Location,
		ImageFilename:   clean.ImageFilename,
		Requirements:    clean.Requirements,
	}

	if clean.Category != "" && !strings.EqualFold(clean.Category, Uncategorized) {
		categoryID, err := s.resolveCategory(ctx, clean.Category)
		if err != nil {
			return WriteParams{}, err
		}
		params.CategoryID = &categoryID
	}
	return params, nil
}

func (s *AdminService) resolveCategory(ctx context.Context, name string) (int64, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c.Name), name) {
			return c.ID, nil
		}
	}
	return 0, ValidationErrors{{Field: "category", Message: "Category is not recognised."}}
}

// invalidate drops every cached page that could show the mutated event.
// Failures are logged only.
func (s *AdminService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, PathAdminDashboard, PathEvents); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("component", "admin").Msg("presentation cache invalidation failed")
	}
}
