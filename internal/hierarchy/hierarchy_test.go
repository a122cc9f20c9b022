package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

func zeroCounter(context.Context, []string) (int, error) { return 0, nil }

func newsAndPodcasts() []model.Category {
	return []model.Category{
		{ID: "v", Name: "Video", Slug: "video", ParentID: "p"},
		{ID: "n", Name: "News", Slug: "news"},
		{ID: "l", Name: "Local", Slug: "local", ParentID: "b"},
		{ID: "p", Name: "Podcast", Slug: "podcast"},
		{ID: "b", Name: "Breaking", Slug: "breaking", Description: "Breaking News", ParentID: "n"},
		{ID: "a", Name: "Audio", Slug: "audio", ParentID: "p"},
	}
}

func TestResolveOrdering(t *testing.T) {
	got, err := Resolve(context.Background(), newsAndPodcasts(), zeroCounter)
	require.NoError(t, err)
	require.Len(t, got, 6)

	order := make([]string, len(got))
	for i, c := range got {
		order[i] = c.ID
	}
	assert.Equal(t, []string{"n", "b", "l", "p", "a", "v"}, order)

	assert.Equal(t, "news/breaking", got[1].Slug)
	assert.Equal(t, "Breaking News", got[1].Description)
	assert.Equal(t, "news/breaking/local", got[2].Slug)
	assert.Equal(t, []string{"News", "Breaking"}, got[2].ParentNames)
	assert.Equal(t, "podcast/audio", got[4].Slug)
	assert.Empty(t, got[0].ParentNames)

	for _, c := range got {
		assert.Zero(t, c.PostCount, "category %s", c.ID)
	}
}

func TestResolveCountsRollUpDescendants(t *testing.T) {
	asked := make(map[string][]string)
	counter := func(_ context.Context, ids []string) (int, error) {
		asked[ids[0]] = ids
		return len(ids), nil
	}

	got, err := Resolve(context.Background(), newsAndPodcasts(), counter)
	require.NoError(t, err)

	// The first element of each query is the category itself, followed by
	// its descendants in traversal order.
	assert.ElementsMatch(t, []string{"n", "b", "l"}, asked["n"])
	assert.ElementsMatch(t, []string{"b", "l"}, asked["b"])
	assert.ElementsMatch(t, []string{"l"}, asked["l"])
	assert.ElementsMatch(t, []string{"p", "a", "v"}, asked["p"])

	assert.Equal(t, 3, got[0].PostCount)
	assert.Equal(t, 2, got[1].PostCount)
	assert.Equal(t, 1, got[2].PostCount)
}

func TestResolveOrphanBecomesRoot(t *testing.T) {
	cats := []model.Category{
		{ID: "z", Name: "Zebra", Slug: "zebra"},
		{ID: "o", Name: "Orphan", Slug: "orphan", ParentID: "gone"},
	}

	got, err := Resolve(context.Background(), cats, zeroCounter)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "o", got[0].ID, "orphans sort among the roots")
	assert.Equal(t, "orphan", got[0].Slug)
	assert.Empty(t, got[0].ParentNames)
}

func TestResolveBreaksParentCycle(t *testing.T) {
	cats := []model.Category{
		{ID: "r", Name: "Root", Slug: "root"},
		{ID: "x", Name: "Alpha", Slug: "alpha", ParentID: "y"},
		{ID: "y", Name: "Beta", Slug: "beta", ParentID: "x"},
	}

	got, err := Resolve(context.Background(), cats, zeroCounter)
	require.NoError(t, err)
	require.Len(t, got, 3, "cycle members must not be dropped or repeated")

	// Alpha is first in name order among the cycle members, so it becomes
	// the effective root and Beta its child.
	assert.Equal(t, "r", got[0].ID)
	assert.Equal(t, "x", got[1].ID)
	assert.Empty(t, got[1].ParentNames)
	assert.Equal(t, "y", got[2].ID)
	assert.Equal(t, "alpha/beta", got[2].Slug)
	assert.Equal(t, []string{"Alpha"}, got[2].ParentNames)
}
