package events

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func listedFixture() []Listed {
	return []Listed{
		{Event: Event{ID: 1, Title: "Career Fair", Description: "Meet employers", Date: "2025-01-05", Category: FlatCategory("Academic")}},
		{Event: Event{ID: 2, Title: "Basketball Finals", Description: "Intramural finals", Date: "2025-01-10", Category: RelationCategory("Sports")}},
		{Event: Event{ID: 3, Title: "Film Night", Description: "Outdoor career films", Date: "2025-01-20", Category: FlatCategory("academic")}},
		{Event: Event{ID: 4, Title: "Mystery", Description: "No date yet", Date: "", Category: Category{}}},
		{Event: Event{ID: 5, Title: "Art Walk", Description: "Gallery tour", Date: "2025-01-10", Category: RelationCategory("Arts", "Culture")}},
	}
}

func ids(items []Listed) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.Event.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	today := time.Date(2025, 1, 10, 15, 0, 0, 0, manila)
	items := listedFixture()

	tests := []struct {
		name   string
		filter ListFilter
		want   []int64
	}{
		{name: "neutral", filter: ListFilter{}, want: []int64{1, 2, 3, 4, 5}},
		{name: "explicit all", filter: ListFilter{Category: "All", Timeframe: TimeframeAll}, want: []int64{1, 2, 3, 4, 5}},
		{name: "category is case insensitive", filter: ListFilter{Category: "ACADEMIC"}, want: []int64{1, 3}},
		{name: "joined relation label", filter: ListFilter{Category: "arts, culture"}, want: []int64{5}},
		{name: "uncategorized", filter: ListFilter{Category: "Uncategorized"}, want: []int64{4}},
		{name: "search title or description", filter: ListFilter{Search: "CAREER"}, want: []int64{1, 3}},
		{name: "ongoing is same day", filter: ListFilter{Timeframe: TimeframeOngoing}, want: []int64{2, 5}},
		{name: "upcoming includes undated", filter: ListFilter{Timeframe: TimeframeUpcoming}, want: []int64{3, 4}},
		{name: "past", filter: ListFilter{Timeframe: TimeframePast}, want: []int64{1}},
		{name: "all predicates together", filter: ListFilter{Search: "career", Category: "academic", Timeframe: TimeframeUpcoming}, want: []int64{3}},
		{name: "no match", filter: ListFilter{Search: "quidditch"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ids(Filter(items, tt.filter, today)))
		})
	}
}

func TestFilterIsAlwaysSubset(t *testing.T) {
	today := time.Date(2025, 1, 10, 9, 0, 0, 0, manila)
	items := listedFixture()
	inInput := make(map[int64]bool)
	for _, item := range items {
		inInput[item.Event.ID] = true
	}

	searches := []string{"", "career", "zzz", "a"}
	categories := []string{"", "All", "Academic", "Sports", "nope"}
	timeframes := []Timeframe{"", TimeframeAll, TimeframeUpcoming, TimeframeOngoing, TimeframePast}

	for _, s := range searches {
		for _, c := range categories {
			for _, tf := range timeframes {
				got := Filter(items, ListFilter{Search: s, Category: c, Timeframe: tf}, today)
				require.LessOrEqual(t, len(got), len(items))
				for _, item := range got {
					require.True(t, inInput[item.Event.ID])
				}
			}
		}
	}
}

func TestStatusOn(t *testing.T) {
	today := time.Date(2025, 1, 10, 23, 59, 0, 0, manila)
	require.Equal(t, StatusOngoing, StatusOn("2025-01-10", today))
	require.Equal(t, StatusUpcoming, StatusOn("2025-01-11", today))
	require.Equal(t, StatusPast, StatusOn("2025-01-09", today))
	require.Equal(t, StatusUpcoming, StatusOn("", today))
	require.Equal(t, StatusUpcoming, StatusOn("garbage", today))
}

func TestCategories(t *testing.T) {
	got := Categories(listedFixture())
	require.Equal(t, []string{"All", "Academic", "Arts, Culture", "Sports"}, got, "labels differing only in case collapse to the first seen")
	require.Equal(t, []string{"All"}, Categories(nil))
}

func TestSortByDate(t *testing.T) {
	items := []Event{
		{ID: 1, Date: "2025-02-01"},
		{ID: 2, Date: ""},
		{ID: 3, Date: "2025-01-01"},
		{ID: 4, Date: "garbage"},
		{ID: 5, Date: "2025-01-15"},
	}
	SortByDate(items, time.UTC)

	got := make([]int64, 0, len(items))
	for _, e := range items {
		got = append(got, e.ID)
	}
	require.Equal(t, []int64{3, 5, 1, 2, 4}, got)
}

func TestParseListFilter(t *testing.T) {
	values := url.Values{}
	values.Set("q", "  jazz ")
	values.Set("category", " Sports ")
	values.Set("timeframe", "Upcoming")

	f, err := ParseListFilter(values)
	require.NoError(t, err)
	require.Equal(t, ListFilter{Search: "jazz", Category: "Sports", Timeframe: TimeframeUpcoming}, f)

	f, err = ParseListFilter(url.Values{})
	require.NoError(t, err)
	require.Equal(t, TimeframeAll, f.Timeframe)

	values.Set("timeframe", "someday")
	_, err = ParseListFilter(values)
	var filterErr FilterError
	require.True(t, errors.As(err, &filterErr))
	require.Equal(t, "timeframe", filterErr.Field)
}
