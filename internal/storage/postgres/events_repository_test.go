package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/storage"
)

func newEventRepo(t *testing.T) (*EventRepository, context.Context) {
	t.Helper()
	pool, _ := setupPostgres(t)
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	return repo.Events().(*EventRepository), context.Background()
}

func writeParams(title, date string) events.WriteParams {
	return events.WriteParams{
		Title:        title,
		Description:  "Bring a friend along.",
		Date:         date,
		Time:         "9:00 AM - 11:00 AM",
		Location:     "Main Hall",
		Requirements: []string{"School ID"},
	}
}

func TestEventRepositoryCreateAndGet(t *testing.T) {
	repo, ctx := newEventRepo(t)
	sportsID := insertCategory(t, ctx, repo.pool, "Sports")

	params := writeParams("Intramurals", "2025-03-14")
	params.CategoryID = &sportsID
	params.LongDescription = "Opening games for every college."
	params.ImageFilename = "01hx.jpg"

	created, err := repo.Create(ctx, params)
	require.NoError(t, err)

	event, err := events.NormalizeRecord(created)
	require.NoError(t, err)
	require.Positive(t, event.ID)
	require.Equal(t, "Intramurals", event.Title)
	require.Equal(t, "2025-03-14", event.Date)
	require.Equal(t, "Sports", event.Category.Label())
	require.Equal(t, "01hx.jpg", event.ImageFilename)
	require.Equal(t, []string{"School ID"}, event.Requirements)
	require.False(t, event.CreatedAt.IsZero())

	fetched, err := repo.GetRecord(ctx, event.ID)
	require.NoError(t, err)
	again, err := events.NormalizeRecord(fetched)
	require.NoError(t, err)
	require.Equal(t, event.Title, again.Title)
	require.Equal(t, event.LongDescription, again.LongDescription)
}

func TestEventRepositoryUncategorized(t *testing.T) {
	repo, ctx := newEventRepo(t)

	created, err := repo.Create(ctx, writeParams("Open Forum", "2025-03-01"))
	require.NoError(t, err)

	event, err := events.NormalizeRecord(created)
	require.NoError(t, err)
	require.Equal(t, events.Uncategorized, event.Category.Label())
	require.Empty(t, event.ImageFilename)
}

func TestEventRepositoryGetMissing(t *testing.T) {
	repo, ctx := newEventRepo(t)

	_, err := repo.GetRecord(ctx, 4242)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestEventRepositoryListOrdersByDate(t *testing.T) {
	repo, ctx := newEventRepo(t)

	for _, p := range []events.WriteParams{
		writeParams("Later", "2025-05-01"),
		writeParams("Sooner", "2025-01-01"),
		writeParams("Middle", "2025-03-01"),
	} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	records, err := repo.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	var titles []string
	for _, record := range records {
		event, err := events.NormalizeRecord(record)
		require.NoError(t, err)
		titles = append(titles, event.Title)
	}
	require.Equal(t, []string{"Sooner", "Middle", "Later"}, titles)
}

func TestEventRepositoryUpdate(t *testing.T) {
	repo, ctx := newEventRepo(t)
	careerID := insertCategory(t, ctx, repo.pool, "Career")

	original := writeParams("Job Fair", "2025-04-01")
	original.ImageFilename = "fair.png"
	created, err := repo.Create(ctx, original)
	require.NoError(t, err)
	event, err := events.NormalizeRecord(created)
	require.NoError(t, err)

	changed := writeParams("Job Fair 2025", "2025-04-02")
	changed.CategoryID = &careerID
	changed.Requirements = nil
	updated, err := repo.Update(ctx, event.ID, changed)
	require.NoError(t, err)

	after, err := events.NormalizeRecord(updated)
	require.NoError(t, err)
	require.Equal(t, "Job Fair 2025", after.Title)
	require.Equal(t, "2025-04-02", after.Date)
	require.Equal(t, "Career", after.Category.Label())
	require.Equal(t, "fair.png", after.ImageFilename, "image kept when no new upload")
	require.Empty(t, after.Requirements)
	require.False(t, after.UpdatedAt.Before(after.CreatedAt))
}

func TestEventRepositoryUpdateMissing(t *testing.T) {
	repo, ctx := newEventRepo(t)

	_, err := repo.Update(ctx, 99, writeParams("Ghost", "2025-01-01"))
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestEventRepositoryUnknownCategory(t *testing.T) {
	repo, ctx := newEventRepo(t)

	params := writeParams("Orphan", "2025-01-01")
	missing := int64(777)
	params.CategoryID = &missing

	_, err := repo.Create(ctx, params)
	require.ErrorIs(t, err, events.ErrCategoryNotFound)
}

func TestEventRepositoryDelete(t *testing.T) {
	repo, ctx := newEventRepo(t)

	created, err := repo.Create(ctx, writeParams("Short Lived", "2025-01-01"))
	require.NoError(t, err)
	event, err := events.NormalizeRecord(created)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, event.ID))
	require.ErrorIs(t, repo.Delete(ctx, event.ID), events.ErrNotFound)

	_, err = repo.GetRecord(ctx, event.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestEventRepositoryDeletingCategoryUncategorizesEvents(t *testing.T) {
	repo, ctx := newEventRepo(t)
	id := insertCategory(t, ctx, repo.pool, "Wellness")

	params := writeParams("Yoga", "2025-02-01")
	params.CategoryID = &id
	created, err := repo.Create(ctx, params)
	require.NoError(t, err)
	event, err := events.NormalizeRecord(created)
	require.NoError(t, err)

	_, err = repo.pool.Exec(ctx, `DELETE FROM event_categories WHERE id = $1`, id)
	require.NoError(t, err)

	record, err := repo.GetRecord(ctx, event.ID)
	require.NoError(t, err)
	after, err := events.NormalizeRecord(record)
	require.NoError(t, err)
	require.Equal(t, events.Uncategorized, after.Category.Label())
}

func TestEventRepositoryListCategories(t *testing.T) {
	repo, ctx := newEventRepo(t)
	insertCategory(t, ctx, repo.pool, "sports")
	insertCategory(t, ctx, repo.pool, "Academic")

	categories, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	require.Equal(t, "Academic", categories[0].Name)
	require.Equal(t, "sports", categories[1].Name)
}

func TestRepositoryWithTxRollsBack(t *testing.T) {
	pool, _ := setupPostgres(t)
	repo, err := NewRepository(pool)
	require.NoError(t, err)
	ctx := context.Background()

	sentinel := events.ErrNotFound
	err = repo.WithTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		_, err := tx.Events().Create(ctx, writeParams("Rolled Back", "2025-01-01"))
		require.NoError(t, err)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	records, err := repo.Events().ListRecords(ctx)
	require.NoError(t, err)
	require.Empty(t, records)
	require.NoError(t, repo.Ping(ctx))
}

func TestMigrationVersion(t *testing.T) {
	_, dbURL := setupPostgres(t)

	version, dirty, err := MigrationVersion(dbURL, migrationsDir())
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 3, version)
}
