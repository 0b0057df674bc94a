package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/studentaffairs/portal/internal/clock"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/email"
)

// 2025-03-10 09:00 in Manila.
var (
	manila  = time.FixedZone("PHT", 8*3600)
	testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, manila)
)

type memoryRepo struct {
	mu      sync.Mutex
	records map[int64]events.Record
	nextID  int64
	listErr error
}

func newMemoryRepo(records ...events.Record) *memoryRepo {
	r := &memoryRepo{records: map[int64]events.Record{}, nextID: 100}
	for _, rec := range records {
		r.records[rec["id"].(int64)] = rec
	}
	return r
}

func (r *memoryRepo) ListRecords(context.Context) ([]events.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]events.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["id"].(int64) < out[j]["id"].(int64) })
	return out, nil
}

func (r *memoryRepo) GetRecord(_ context.Context, id int64) (events.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepo) Create(_ context.Context, p events.WriteParams) (events.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec := paramsRecord(r.nextID, p)
	r.records[r.nextID] = rec
	return rec, nil
}

func (r *memoryRepo) Update(_ context.Context, id int64, p events.WriteParams) (events.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return nil, events.ErrNotFound
	}
	rec := paramsRecord(id, p)
	r.records[id] = rec
	return rec, nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *memoryRepo) ListCategories(context.Context) ([]events.CategoryRecord, error) {
	return []events.CategoryRecord{{ID: 1, Name: "Academic"}, {ID: 2, Name: "Sports"}}, nil
}

func paramsRecord(id int64, p events.WriteParams) events.Record {
	category := []any{}
	if p.CategoryID != nil {
		name := map[int64]string{1: "Academic", 2: "Sports"}[*p.CategoryID]
		category = []any{map[string]any{"name": name}}
	}
	return events.Record{
		"id":             id,
		"title":          p.Title,
		"description":    p.Description,
		"date":           p.Date,
		"time":           p.Time,
		"location":       p.Location,
		"category":       category,
		"image_filename": p.ImageFilename,
		"requirements":   p.Requirements,
	}
}

func eventRecord(id int64, title, date string, category string) events.Record {
	return events.Record{
		"id":          id,
		"title":       title,
		"description": "A gathering for students.",
		"date":        date,
		"time":        "2:00 PM - 4:00 PM",
		"location":    "Quadrangle",
		"category":    category,
	}
}

// brokenRepo fails every read with a transport error.
type brokenRepo struct {
	*memoryRepo
}

func (brokenRepo) GetRecord(context.Context, int64) (events.Record, error) {
	return nil, errBoom
}

type fakeImageStore struct {
	err  error
	data string
}

func (s *fakeImageStore) UploadImage(_ context.Context, filename string, _ int64, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.data = string(b)
	return "stored-" + strings.ToLower(filename), nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

var errBoom = errors.New("boom")

func fixedClock() clock.Clock { return clock.Fixed(testNow) }

func newEventsService(repo events.Repository) *events.Service {
	return events.NewService(repo, events.ServiceConfig{
		Clock:    fixedClock(),
		Location: manila,
		Host:     "portal.test",
	})
}
