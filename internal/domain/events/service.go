package events

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/studentaffairs/portal/internal/clock"
)

// Presentation cache keys. Mutations invalidate by prefix.
const (
	PathEvents         = "/events"
	PathAdminDashboard = "/admin/dashboard"
)

// PageCache stores rendered presentation data keyed by path.
type PageCache interface {
	Fetch(ctx context.Context, key string, dst any, fill func(ctx context.Context) (any, error)) error
	Invalidate(ctx context.Context, prefixes ...string) error
}

type ServiceConfig struct {
	Images   *ImageResolver
	Clock    clock.Clock
	Location *time.Location
	Cache    PageCache
	// Host names the portal in calendar UIDs.
	Host string
}

// Listing is the public event listing response.
type Listing struct {
	Items      []Listed `json:"items"`
	Categories []string `json:"categories"`
	Count      int      `json:"count"`
}

type Service struct {
	repo   Repository
	images *ImageResolver
	clock  clock.Clock
	loc    *time.Location
	cache  PageCache
	host   string
}

func NewService(repo Repository, cfg ServiceConfig) *Service {
	s := &Service{
		repo:   repo,
		images: cfg.Images,
		clock:  cfg.Clock,
		loc:    cfg.Location,
		cache:  cfg.Cache,
		host:   cfg.Host,
	}
	if s.images == nil {
		s.images = NewImageResolver(nil, "")
	}
	if s.clock == nil {
		s.clock = clock.System()
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.host == "" {
		s.host = "localhost"
	}
	return s
}

// Location is the institutional timezone used for dates.
func (s *Service) Location() *time.Location { return s.loc }

// Today is the current instant in the institutional timezone.
func (s *Service) Today() time.Time { return s.clock.Now().In(s.loc) }

// All returns every readable event sorted by date. Rows that fail
// normalization are logged and skipped.
func (s *Service) All(ctx context.Context) ([]Event, error) {
	var items []Event
	err := fetchPage(ctx, s.cache, PathEvents, &items, func(ctx context.Context) ([]Event, error) {
		return s.loadAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// List applies the filter to the decorated listing.
func (s *Service) List(ctx context.Context, f ListFilter) (Listing, error) {
	items, err := s.All(ctx)
	if err != nil {
		return Listing{}, err
	}
	today := s.Today()
	decorated := make([]Listed, 0, len(items))
	for _, e := range items {
		decorated = append(decorated, s.decorate(e, today))
	}
	visible := Filter(decorated, f, today)
	return Listing{
		Items:      visible,
		Categories: Categories(decorated),
		Count:      len(visible),
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Listed, error) {
	var e Event
	err := fetchPage(ctx, s.cache, PathEvents+"/"+strconv.FormatInt(id, 10), &e, func(ctx context.Context) (Event, error) {
		raw, err := s.repo.GetRecord(ctx, id)
		if err != nil {
			return Event{}, err
		}
		normalized, err := NormalizeRecord(raw)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int64("id", id).Msg("event record is malformed")
			return Event{}, fmt.Errorf("event %d is malformed: %w", id, ErrNotFound)
		}
		return normalized, nil
	})
	if err != nil {
		return Listed{}, err
	}
	return s.decorate(e, s.Today()), nil
}

// CalendarURL returns the "add to calendar" link for the event.
func (s *Service) CalendarURL(e Event) string {
	return GoogleCalendarURL(e, s.loc)
}

// WriteCalendar serializes the given events as an iCalendar feed.
func (s *Service) WriteCalendar(ctx context.Context, w io.Writer, items []Event) error {
	return WriteICS(w, items, s.loc, s.clock.Now(), s.host, *zerolog.Ctx(ctx))
}

func (s *Service) decorate(e Event, today time.Time) Listed {
	return Listed{
		Event:    e,
		ImageURL: s.images.URLFor(e),
		Status:   StatusOn(e.Date, today),
	}
}

func (s *Service) loadAll(ctx context.Context) ([]Event, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	items := normalizeRecords(ctx, records)
	SortByDate(items, s.loc)
	return items, nil
}

func normalizeRecords(ctx context.Context, records []Record) []Event {
	logger := zerolog.Ctx(ctx)
	items := make([]Event, 0, len(records))
	for _, raw := range records {
		e, err := NormalizeRecord(raw)
		if err != nil {
			logger.Warn().Err(err).Interface("id", raw["id"]).Msg("skipping malformed event record")
			continue
		}
		items = append(items, e)
	}
	return items
}

// fetchPage reads through the cache when one is configured.
func fetchPage[T any](ctx context.Context, cache PageCache, key string, dst *T, fill func(context.Context) (T, error)) error {
	if cache == nil {
		v, err := fill(ctx)
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}
	return cache.Fetch(ctx, key, dst, func(ctx context.Context) (any, error) {
		return fill(ctx)
	})
}

// ParseID reads a positive event id from a path segment.
func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, FilterError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}
