package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/metrics"
)

var _ events.Repository = (*EventRepository)(nil)

// eventColumns is shared by every read so that all paths hand the same record
// shape to events.NormalizeRecord. category is a JSON array of {"name": ...}
// objects, empty when uncategorized.
const eventColumns = `
e.id, e.title, e.description, e.long_description, e."date", e."time", e.location,
CASE WHEN c.id IS NULL THEN '[]'::json
     ELSE json_build_array(json_build_object('name', c.name)) END AS category,
e.image_filename, e.img_id, e.requirements, e.created_at, e.updated_at`

const pgForeignKeyViolation = "23503"

func (r *EventRepository) ListRecords(ctx context.Context) (_ []events.Record, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_events", start, err) }(time.Now())

	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
  LEFT JOIN event_categories c ON c.id = e.category_id
 ORDER BY e."date" ASC NULLS LAST, e.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return toRecords(maps), nil
}

func (r *EventRepository) GetRecord(ctx context.Context, id int64) (_ events.Record, err error) {
	defer func(start time.Time) { metrics.RecordQuery("get_event", start, err) }(time.Now())

	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events e
  LEFT JOIN event_categories c ON c.id = e.category_id
 WHERE e.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return collectOne(rows, "get event")
}

func (r *EventRepository) Create(ctx context.Context, params events.WriteParams) (_ events.Record, err error) {
	defer func(start time.Time) { metrics.RecordQuery("create_event", start, err) }(time.Now())

	rows, err := r.queryer().Query(ctx, `
WITH e AS (
  INSERT INTO events (title, description, long_description, "date", "time", location,
                      category_id, image_filename, requirements)
  VALUES ($1, $2, $3, $4::text::date, $5, $6, $7, $8, $9)
  RETURNING *
)
SELECT `+eventColumns+`
  FROM e
  LEFT JOIN event_categories c ON c.id = e.category_id`,
		params.Title,
		params.Description,
		nullIfEmpty(params.LongDescription),
		params.Date,
		params.Time,
		params.Location,
		params.CategoryID,
		nullIfEmpty(params.ImageFilename),
		requirements(params.Requirements),
	)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	record, err := collectOne(rows, "create event")
	if err != nil {
		return nil, mapCategoryViolation(err)
	}
	return record, nil
}

// Update replaces every mutable column. An empty image filename keeps the
// stored one so an edit without a new upload does not drop the picture.
func (r *EventRepository) Update(ctx context.Context, id int64, params events.WriteParams) (_ events.Record, err error) {
	defer func(start time.Time) { metrics.RecordQuery("update_event", start, err) }(time.Now())

	rows, err := r.queryer().Query(ctx, `
WITH e AS (
  UPDATE events
     SET title = $2,
         description = $3,
         long_description = $4,
         "date" = $5::text::date,
         "time" = $6,
         location = $7,
         category_id = $8,
         image_filename = COALESCE($9, image_filename),
         requirements = $10
   WHERE id = $1
  RETURNING *
)
SELECT `+eventColumns+`
  FROM e
  LEFT JOIN event_categories c ON c.id = e.category_id`,
		id,
		params.Title,
		params.Description,
		nullIfEmpty(params.LongDescription),
		params.Date,
		params.Time,
		params.Location,
		params.CategoryID,
		nullIfEmpty(params.ImageFilename),
		requirements(params.Requirements),
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	record, err := collectOne(rows, "update event")
	if err != nil {
		return nil, mapCategoryViolation(err)
	}
	return record, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { metrics.RecordQuery("delete_event", start, err) }(time.Now())

	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) ListCategories(ctx context.Context) (_ []events.CategoryRecord, err error) {
	defer func(start time.Time) { metrics.RecordQuery("list_categories", start, err) }(time.Now())

	rows, err := r.queryer().Query(ctx, `SELECT id, name FROM event_categories ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByName[events.CategoryRecord])
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func collectOne(rows pgx.Rows, op string) (events.Record, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events.Record(row), nil
}

func toRecords(rows []map[string]any) []events.Record {
	out := make([]events.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, events.Record(row))
	}
	return out
}

func mapCategoryViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return events.ErrCategoryNotFound
	}
	return err
}

func nullIfEmpty(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func requirements(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
