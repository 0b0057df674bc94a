package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAdmin(repo *fakeRepo, cache *fakeCache, store ImageStore) *AdminService {
	var pc PageCache
	if cache != nil {
		pc = cache
	}
	return NewAdminService(repo, NewImageResolver(prefixStore{base: "https://cdn.example.edu"}, ""), store, pc, manila)
}

func TestAdminCreateRejectsShortTitleBeforeRepository(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	admin := newTestAdmin(repo, cache, nil)

	p := validPayload()
	p.Title = "Hi"
	_, err := admin.Create(context.Background(), p)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, "Title must be at least 3 characters.", verrs.Fields()["title"])
	require.Zero(t, repo.callCount())
	require.Empty(t, cache.invalidated)
}

func TestAdminCreate(t *testing.T) {
	repo := newFakeRepo()
	cache := &fakeCache{}
	admin := newTestAdmin(repo, cache, nil)

	created, err := admin.Create(context.Background(), validPayload())
	require.NoError(t, err)
	require.Equal(t, int64(101), created.ID)
	require.Equal(t, "Academic", created.Category.Label())
	require.Equal(t, []string{"Student ID"}, created.Requirements)
	require.Equal(t, [][]string{{PathAdminDashboard, PathEvents}}, cache.invalidated)
}

func TestAdminCreateUncategorized(t *testing.T) {
	admin := newTestAdmin(newFakeRepo(), nil, nil)
	p := validPayload()
	p.Category = ""
	created, err := admin.Create(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, Uncategorized, created.Category.Label())
}

func TestAdminCreateUnknownCategory(t *testing.T) {
	repo := newFakeRepo()
	admin := newTestAdmin(repo, nil, nil)
	p := validPayload()
	p.Category = "Quidditch"

	_, err := admin.Create(context.Background(), p)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Contains(t, verrs.Fields(), "category")
	require.Empty(t, repo.records)
}

func TestAdminCreateRepositoryFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.writeErr = errors.New("connection reset")
	cache := &fakeCache{}
	admin := newTestAdmin(repo, cache, nil)

	_, err := admin.Create(context.Background(), validPayload())
	require.ErrorContains(t, err, "create event")
	require.ErrorIs(t, err, repo.writeErr)
	require.Empty(t, cache.invalidated)
}

func TestAdminUpdate(t *testing.T) {
	repo := newFakeRepo(sampleRecord(7, "Old title", "2025-01-10", "Sports"))
	cache := &fakeCache{}
	admin := newTestAdmin(repo, cache, nil)

	p := validPayload()
	p.Title = "New title"
	updated, err := admin.Update(context.Background(), 7, p)
	require.NoError(t, err)
	require.Equal(t, int64(7), updated.ID)
	require.Equal(t, "New title", updated.Title)
	require.Len(t, cache.invalidated, 1)

	_, err = admin.Update(context.Background(), 8, p)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdminDelete(t *testing.T) {
	repo := newFakeRepo(sampleRecord(7, "Career Fair", "2025-01-10", "Sports"))
	cache := &fakeCache{err: errors.New("redis down")}
	admin := newTestAdmin(repo, cache, nil)

	require.NoError(t, admin.Delete(context.Background(), 7))
	require.Empty(t, repo.records)
	require.Len(t, cache.invalidated, 1)

	require.ErrorIs(t, admin.Delete(context.Background(), 7), ErrNotFound)
	require.ErrorIs(t, admin.Delete(context.Background(), 0), ErrNotFound)
}

func TestAdminListSortedByDate(t *testing.T) {
	repo := newFakeRepo(
		sampleRecord(1, "Later", "2025-03-01", "Sports"),
		sampleRecord(2, "Undated", "", "Sports"),
		sampleRecord(3, "Sooner", "2025-01-01", "Academic"),
	)
	admin := newTestAdmin(repo, nil, nil)

	listed, err := admin.List(context.Background(), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1, 2}, ids(listed))
	require.Equal(t, StatusPast, listed[0].Status)
}

func TestAdminCategories(t *testing.T) {
	admin := newTestAdmin(newFakeRepo(), nil, nil)
	categories, err := admin.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
}

func TestAdminUploadImage(t *testing.T) {
	store := &fakeImageStore{}
	admin := newTestAdmin(newFakeRepo(), nil, store)

	path, err := admin.UploadImage(context.Background(), "poster.png", 4, strings.NewReader("data"))
	require.NoError(t, err)
	require.Equal(t, "stored-poster.png", path)
	require.Equal(t, []byte("data"), store.got)

	_, err = newTestAdmin(newFakeRepo(), nil, nil).UploadImage(context.Background(), "x.png", 1, strings.NewReader("x"))
	require.Error(t, err)
}
