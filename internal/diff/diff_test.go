package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

func identity(n int) int { return n }

func TestSeparateInts(t *testing.T) {
	tests := []struct {
		name        string
		old         []int
		current     []int
		wantRemoved []int
		wantAdded   []int
	}{
		{"identical collections", []int{1, 2, 3}, []int{1, 2, 3}, nil, nil},
		{"overlap", []int{1, 2, 3}, []int{3, 4, 5}, []int{1, 2}, []int{4, 5}},
		{"all removed", []int{1, 2}, nil, []int{1, 2}, nil},
		{"all added", nil, []int{7}, nil, []int{7}},
		{"both empty", nil, nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			removed, added := Separate(tt.old, tt.current, identity)
			assert.Equal(t, tt.wantRemoved, removed)
			assert.Equal(t, tt.wantAdded, added)
		})
	}
}

func TestSeparateRevisions(t *testing.T) {
	day := func(n int) time.Time {
		return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	asOf := func(r model.Revision) time.Time { return r.AsOf }

	t.Run("same revisions in different order are unchanged", func(t *testing.T) {
		old := []model.Revision{
			{AsOf: day(0), Text: "draft"},
			{AsOf: day(2), Text: "edited"},
			{AsOf: day(3), Text: "final"},
		}
		current := []model.Revision{
			{AsOf: day(3), Text: "final"},
			{AsOf: day(0), Text: "draft"},
			{AsOf: day(2), Text: "edited"},
		}

		removed, added := Separate(old, current, asOf)
		assert.Empty(t, removed)
		assert.Empty(t, added)
	})

	t.Run("moved timestamp is one removal and one addition", func(t *testing.T) {
		old := []model.Revision{
			{AsOf: day(0), Text: "draft"},
			{AsOf: day(2), Text: "edited"},
			{AsOf: day(3), Text: "final"},
		}
		current := []model.Revision{
			{AsOf: day(0), Text: "draft"},
			{AsOf: day(3), Text: "final"},
			{AsOf: day(4), Text: "edited again"},
		}

		removed, added := Separate(old, current, asOf)
		assert.Len(t, removed, 1)
		assert.Equal(t, day(2), removed[0].AsOf)
		assert.Len(t, added, 1)
		assert.Equal(t, day(4), added[0].AsOf)
	})

	t.Run("text change without key change is untouched", func(t *testing.T) {
		old := []model.Revision{{AsOf: day(1), Text: "before"}}
		current := []model.Revision{{AsOf: day(1), Text: "after"}}

		removed, added := Separate(old, current, asOf)
		assert.Empty(t, removed)
		assert.Empty(t, added)
	})
}
