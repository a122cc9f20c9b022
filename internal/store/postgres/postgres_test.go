package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

// testData spins up a throwaway Postgres container for the test; go test
// -short skips the suite when Docker is not around.
func testData(t *testing.T) *store.Data {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	c, err := tcpostgres.Run(ctx,
		"docker.io/postgres:14.11-bookworm",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)))
	require.NoError(t, err, "could not start postgres container")

	connURL, err := c.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connURL)
	require.NoError(t, err)

	data := NewData(db)
	require.NoError(t, data.StartUp(ctx))

	t.Cleanup(func() {
		data.Close()
		c.Terminate(ctx)
	})
	return data
}

func seedWebLog(t *testing.T, data *store.Data) *model.WebLog {
	t.Helper()

	webLog := &model.WebLog{
		ID:           model.NewID(),
		Name:         "Test Log",
		DefaultPage:  "posts",
		PostsPerPage: 10,
		ThemeID:      "default",
		URLBase:      "http://example.com",
		TimeZone:     "America/Denver",
		Uploads:      model.UploadToDatabase,
	}
	require.NoError(t, data.WebLogs.Add(context.Background(), webLog))
	return webLog
}

func day(n int) time.Time {
	return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestPostTagArrayRoundTrip(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	published := day(1)
	post := &model.Post{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author", Status: model.Published,
		Title: "Tagged", Permalink: "2024/tagged.html", PublishedOn: &published, UpdatedOn: day(1),
		Tags:      []string{"go", "postgres"},
		Revisions: []model.Revision{{AsOf: day(1), SourceType: model.Markdown, Text: "body"}},
	}
	require.NoError(t, data.Posts.Add(ctx, post))

	found, err := data.Posts.FindByID(ctx, webLog.ID, post.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, []string{"go", "postgres"}, found.Tags)

	tagged, err := data.Posts.FindPageOfTaggedPosts(ctx, webLog.ID, "postgres", 1, 5)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, post.ID, tagged[0].ID)

	tagged, err = data.Posts.FindPageOfTaggedPosts(ctx, webLog.ID, "rust", 1, 5)
	require.NoError(t, err)
	assert.Empty(t, tagged)
}

func TestCategoryDeleteReassignsChildren(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	parent := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "News", Slug: "news"}
	middle := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "Breaking", Slug: "breaking", ParentID: parent.ID}
	child := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "Local", Slug: "local", ParentID: middle.ID}
	for _, cat := range []*model.Category{parent, middle, child} {
		require.NoError(t, data.Categories.Add(ctx, cat))
	}

	outcome, err := data.Categories.Delete(ctx, webLog.ID, middle.ID)
	require.NoError(t, err)
	assert.Equal(t, store.DeletedWithChildrenReassigned, outcome)

	reloaded, err := data.Categories.FindByID(ctx, webLog.ID, child.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, parent.ID, reloaded.ParentID)
}

func TestPermalinkHistoryUsesArrayParameter(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	page := &model.Page{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author",
		Title: "About", Permalink: "about.html", PublishedOn: day(0), UpdatedOn: day(0),
		Revisions: []model.Revision{{AsOf: day(0), SourceType: model.HTML, Text: "about us"}},
	}
	require.NoError(t, data.Pages.Add(ctx, page))

	page.PriorPermalinks = []string{"about.html"}
	page.Permalink = "about-us.html"
	require.NoError(t, data.Pages.Update(ctx, page))

	current, err := data.Pages.FindCurrentPermalink(ctx, webLog.ID, []string{"nope.html", "about.html"})
	require.NoError(t, err)
	assert.Equal(t, "about-us.html", current)
}

func TestPostPagination(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	for i := 0; i < 5; i++ {
		published := day(i)
		post := &model.Post{
			ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author", Status: model.Published,
			Title: fmt.Sprintf("Post %d", i), Permalink: fmt.Sprintf("2024/post-%d.html", i),
			PublishedOn: &published, UpdatedOn: day(i),
			Revisions: []model.Revision{{AsOf: day(i), SourceType: model.Markdown, Text: "body"}},
		}
		require.NoError(t, data.Posts.Add(ctx, post))
	}

	posts, err := data.Posts.FindPageOfPublishedPosts(ctx, webLog.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 3, "page size + 1 rows signal a further page")

	trimmed, hasNext := store.TrimPage(posts, 2)
	assert.Len(t, trimmed, 2)
	assert.True(t, hasNext)
	assert.Equal(t, "Post 4", trimmed[0].Title)
}
