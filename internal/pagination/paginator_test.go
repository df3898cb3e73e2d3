package pagination

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbers(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

func TestSliceFifteenItems(t *testing.T) {
	items := numbers(15)

	first := Slice(items, "")
	assert.Equal(t, 10, first.Len())
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 2, first.NumPages)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	second := Slice(items, "2")
	assert.Equal(t, []int{11, 12, 13, 14, 15}, second.Items)
	assert.False(t, second.HasNext())
	assert.True(t, second.HasPrevious())
	assert.Equal(t, 11, second.StartIndex())
	assert.Equal(t, 15, second.EndIndex())

	third := Slice(items, "3")
	assert.Equal(t, second, third)
}

func TestSliceInvalidPageParameter(t *testing.T) {
	items := numbers(25)

	for _, raw := range []string{"", "abc", "1.5", " "} {
		page := Slice(items, raw)
		assert.Equal(t, 1, page.Number, "raw=%q", raw)
		assert.Equal(t, numbers(10), page.Items)
	}

	assert.Equal(t, 3, Slice(items, "999").Number)
}

func TestSliceBelowFirstPageClampsToLast(t *testing.T) {
	items := numbers(15)

	for _, raw := range []string{"0", "-1", "-4"} {
		page := Slice(items, raw)
		assert.Equal(t, 2, page.Number, "raw=%q", raw)
		assert.Len(t, page.Items, 5, "raw=%q", raw)
		assert.Equal(t, Slice(items, "2"), page)
	}
}

func TestSliceEmpty(t *testing.T) {
	page := Slice([]string{}, "5")
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasOtherPages())
	assert.Equal(t, 0, page.StartIndex())
}

func TestSliceIsStable(t *testing.T) {
	items := numbers(23)
	assert.Equal(t, Slice(items, "2"), Slice(items, "2"))
}

func TestResolveWindow(t *testing.T) {
	w := Resolve("2", 15, 10)
	assert.Equal(t, Window{Number: 2, NumPages: 2, Limit: 10, Offset: 10}, w)

	w = Resolve("", 0, 0)
	assert.Equal(t, Window{Number: 1, NumPages: 1, Limit: PerPage, Offset: 0}, w)
}

func TestQueryFetchesResolvedWindow(t *testing.T) {
	items := numbers(15)
	var gotLimit, gotOffset int

	page, err := Query(context.Background(), "7",
		func(context.Context) (int, error) { return len(items), nil },
		func(_ context.Context, limit, offset int) ([]int, error) {
			gotLimit, gotOffset = limit, offset
			return items[offset:min(offset+limit, len(items))], nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 10, gotOffset)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, []int{11, 12, 13, 14, 15}, page.Items)
	assert.Equal(t, []int{1, 2}, page.PageRange())
}

func TestQuerySkipsFetchWhenEmpty(t *testing.T) {
	page, err := Query(context.Background(), "",
		func(context.Context) (int, error) { return 0, nil },
		func(context.Context, int, int) ([]int, error) {
			t.Fatal("fetch must not be called for an empty result")
			return nil, nil
		},
	)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestQueryPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Query(context.Background(), "",
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context, int, int) ([]int, error) { return nil, nil },
	)
	assert.ErrorIs(t, err, boom)
}
