package books

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloPavan/bookshelf_api/internal/apperrors"
)

func TestDecodeSeedAppliesDefaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	nextID := func() string {
		n++
		return "bk_seed_" + string(rune('0'+n))
	}

	in := `[
		{"title": " Dune ", "author": "Frank Herbert", "year": 1965, "genre": "Sci-Fi", "tags": ["classic", " "], "rating": 4.5, "status": "completed"},
		{"title": "Notes", "author": "Anon", "isPublic": false}
	]`

	list, err := DecodeSeed(strings.NewReader(in), "usr_1", now, nextID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "bk_seed_1", list[0].ID)
	assert.Equal(t, "usr_1", list[0].AddedBy)
	assert.Equal(t, "Dune", list[0].Title)
	assert.Equal(t, 1965, list[0].Year)
	assert.Equal(t, []string{"classic"}, list[0].Tags)
	assert.Equal(t, StatusCompleted, list[0].Status)
	assert.True(t, list[0].IsPublic)

	assert.Equal(t, 2024, list[1].Year)
	assert.Equal(t, DefaultGenre, list[1].Genre)
	assert.Equal(t, StatusUnread, list[1].Status)
	assert.Equal(t, []string{}, list[1].Tags)
	assert.False(t, list[1].IsPublic)
}

func TestDecodeSeedRejectsBadRecords(t *testing.T) {
	now := time.Now()

	_, err := DecodeSeed(strings.NewReader(`[{"title": "x"}]`), "usr_1", now, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "record 0")

	_, err = DecodeSeed(strings.NewReader(`[{"title": "x", "author": "y", "status": "lost"}]`), "usr_1", now, nil)
	require.Error(t, err)

	_, err = DecodeSeed(strings.NewReader(`[{"title": "x", "author": "y", "rating": 9}]`), "usr_1", now, nil)
	require.Error(t, err)

	_, err = DecodeSeed(strings.NewReader(`{`), "usr_1", now, nil)
	require.Error(t, err)

	_, err = DecodeSeed(strings.NewReader(`[]`), " ", now, nil)
	require.Error(t, err)
}
