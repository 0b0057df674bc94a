package events

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
)

type fakeRepo struct {
	mu         sync.Mutex
	records    map[int64]Record
	categories []CategoryRecord
	nextID     int64
	calls      int
	writeErr   error
	listErr    error
}

func newFakeRepo(records ...Record) *fakeRepo {
	r := &fakeRepo{
		records: make(map[int64]Record),
		categories: []CategoryRecord{
			{ID: 1, Name: "Academic"},
			{ID: 2, Name: "Sports"},
		},
		nextID: 100,
	}
	for _, rec := range records {
		id, _ := int64Field(rec["id"])
		r.records[id] = rec
	}
	return r
}

func (r *fakeRepo) ListRecords(context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	ids := make([]int64, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.records[id])
	}
	return out, nil
}

func (r *fakeRepo) GetRecord(_ context.Context, id int64) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (r *fakeRepo) Create(_ context.Context, params WriteParams) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.writeErr != nil {
		return nil, r.writeErr
	}
	r.nextID++
	rec := r.recordFor(r.nextID, params)
	r.records[r.nextID] = rec
	return rec, nil
}

func (r *fakeRepo) Update(_ context.Context, id int64, params WriteParams) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.writeErr != nil {
		return nil, r.writeErr
	}
	if _, ok := r.records[id]; !ok {
		return nil, ErrNotFound
	}
	rec := r.recordFor(id, params)
	r.records[id] = rec
	return rec, nil
}

func (r *fakeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

func (r *fakeRepo) ListCategories(context.Context) ([]CategoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return append([]CategoryRecord(nil), r.categories...), nil
}

func (r *fakeRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeRepo) recordFor(id int64, params WriteParams) Record {
	var category []any
	if params.CategoryID != nil {
		for _, c := range r.categories {
			if c.ID == *params.CategoryID {
				category = append(category, map[string]any{"name": c.Name})
			}
		}
	}
	requirements := make([]any, 0, len(params.Requirements))
	for _, req := range params.Requirements {
		requirements = append(requirements, req)
	}
	return Record{
		"id":               id,
		"title":            params.Title,
		"description":      params.Description,
		"long_description": params.LongDescription,
		"date":             params.Date,
		"time":             params.Time,
		"location":         params.Location,
		"category":         category,
		"image_filename":   params.ImageFilename,
		"requirements":     requirements,
	}
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated [][]string
	err         error
}

func (c *fakeCache) Fetch(ctx context.Context, _ string, dst any, fill func(context.Context) (any, error)) error {
	v, err := fill(ctx)
	if err != nil {
		return err
	}
	switch d := dst.(type) {
	case *[]Event:
		*d = v.([]Event)
	case *Event:
		*d = v.(Event)
	default:
		return errors.New("unexpected destination")
	}
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, prefixes ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefixes)
	return c.err
}

type prefixStore struct {
	base  string
	allow func(path string) bool
}

func (s prefixStore) PublicURL(path string) string {
	if s.allow != nil && !s.allow(path) {
		return ""
	}
	return strings.TrimRight(s.base, "/") + "/" + path
}

type fakeImageStore struct {
	got  []byte
	name string
}

func (s *fakeImageStore) UploadImage(_ context.Context, filename string, _ int64, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.got = data
	s.name = filename
	return "stored-" + filename, nil
}

func sampleRecord(id int64, title, date, category string) Record {
	return Record{
		"id":          id,
		"title":       title,
		"description": "A description long enough",
		"date":        date,
		"time":        "2:00 PM - 4:00 PM",
		"location":    "Main Hall",
		"category":    category,
	}
}
