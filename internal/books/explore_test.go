package books

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExploreKey(t *testing.T) {
	assert.Equal(t, "g:vol1", ExploreKey(&Book{ID: "bk_1", GoogleID: "vol1"}))
	assert.Equal(t, "b:bk_1", ExploreKey(&Book{ID: "bk_1"}))
	assert.Equal(t, "b:bk_1", ExploreKey(&Book{ID: "bk_1", GoogleID: "   "}))

	// a book id that happens to equal a volume id stays apart
	assert.NotEqual(t, ExploreKey(&Book{ID: "x", GoogleID: "same"}), ExploreKey(&Book{ID: "same"}))
}

func TestDedupeKeepsEarliestCopy(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	list := []*Book{
		{ID: "bk_2", GoogleID: "vol1", Title: "Second copy", CreatedAt: t0.Add(time.Hour)},
		{ID: "bk_1", GoogleID: "vol1", Title: "First copy", CreatedAt: t0},
		{ID: "bk_3", Title: "Standalone", CreatedAt: t0},
		{ID: "bk_4", Title: "Standalone", CreatedAt: t0},
	}

	got := Dedupe(list)
	require.Len(t, got, 3)

	assert.Equal(t, "g:vol1", got[0].Key)
	assert.Equal(t, "bk_1", got[0].ID)
	assert.Equal(t, "First copy", got[0].Title)
	assert.Equal(t, "b:bk_4", got[1].Key)
	assert.Equal(t, "b:bk_3", got[2].Key)
}

func TestDedupeOrdersVolumeGroupsFirst(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	list := []*Book{
		{ID: "zz_last", Title: "Standalone", CreatedAt: t0},
		{ID: "bk_a", GoogleID: "AAA", Title: "Volume", CreatedAt: t0},
		{ID: "bk_b", GoogleID: "zzz", Title: "Volume", CreatedAt: t0},
	}

	got := Dedupe(list)
	require.Len(t, got, 3)

	keys := []string{got[0].Key, got[1].Key, got[2].Key}
	assert.Equal(t, []string{"g:zzz", "g:AAA", "b:zz_last"}, keys)
}

func TestPageHasMore(t *testing.T) {
	items := make([]ExploreItem, 0, 20)
	for i := 0; i < 20; i++ {
		items = append(items, ExploreItem{Key: fmt.Sprintf("b:%02d", i)})
	}

	first := Page(items, Window{Skip: 0, Limit: 15})
	assert.Len(t, first.Books, 15)
	assert.True(t, first.HasMore)

	second := Page(items, Window{Skip: 15, Limit: 15})
	assert.Len(t, second.Books, 5)
	assert.False(t, second.HasMore)

	past := Page(items, Window{Skip: 45, Limit: 15})
	assert.NotNil(t, past.Books)
	assert.Empty(t, past.Books)
	assert.False(t, past.HasMore)
}
