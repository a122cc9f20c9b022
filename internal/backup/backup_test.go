package backup

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
	"github.com/bit-badger/myWebLog-sub005/internal/store/sqlite"
)

func testData(t *testing.T) *store.Data {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	data := sqlite.NewData(db)
	require.NoError(t, data.StartUp(context.Background()))

	t.Cleanup(func() { data.Close() })
	return data
}

func day(n int) time.Time {
	return time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// seedFullGraph populates one web log exercising every archived aggregate.
func seedFullGraph(t *testing.T, data *store.Data) *model.WebLog {
	t.Helper()
	ctx := context.Background()

	theme := &model.Theme{
		ID: "default", Name: "Default", Version: "1.0",
		Templates: []model.ThemeTemplate{{Name: "single-post", Text: "<h1>{{.Title}}</h1>"}},
	}
	require.NoError(t, data.Themes.Save(ctx, theme))
	require.NoError(t, data.ThemeAssets.Save(ctx, &model.ThemeAsset{
		ThemeID: "default", Path: "style.css", UpdatedOn: day(0), Data: []byte("body{}"),
	}))

	webLog := &model.WebLog{
		ID: model.NewID(), Name: "Backed Up", DefaultPage: "posts", PostsPerPage: 10,
		ThemeID: "default", URLBase: "http://example.com", TimeZone: "America/Denver",
		RSS:     model.RSSOptions{IsFeedEnabled: true, FeedName: "feed.xml", ItemsInFeed: 20},
		Uploads: model.UploadToDatabase,
	}
	require.NoError(t, data.WebLogs.Add(ctx, webLog))

	user := &model.WebLogUser{
		ID: model.NewID(), WebLogID: webLog.ID, Email: "admin@example.com",
		FirstName: "Ada", LastName: "Admin", PreferredName: "Ada",
		PasswordHash: "$2a$12$fixture", AccessLevel: model.WebLogAdmin, CreatedOn: day(0),
	}
	require.NoError(t, data.Users.Add(ctx, user))

	parent := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "News", Slug: "news"}
	child := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "Local", Slug: "local", ParentID: parent.ID}
	require.NoError(t, data.Categories.Add(ctx, parent))
	require.NoError(t, data.Categories.Add(ctx, child))

	require.NoError(t, data.TagMaps.Save(ctx, &model.TagMap{
		ID: model.NewID(), WebLogID: webLog.ID, Tag: "f#", URLValue: "f-sharp",
	}))

	require.NoError(t, data.Pages.Add(ctx, &model.Page{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: user.ID,
		Title: "About", Permalink: "about-us.html", PublishedOn: day(1), UpdatedOn: day(2),
		IsInPageList: true, Text: "about us",
		Metadata:        []model.MetaItem{{Name: "subtitle", Value: "who we are"}},
		PriorPermalinks: []string{"about.html"},
		Revisions: []model.Revision{
			{AsOf: day(2), SourceType: model.HTML, Text: "about us"},
			{AsOf: day(1), SourceType: model.Markdown, Text: "about"},
		},
	}))

	require.NoError(t, data.Pages.Add(ctx, &model.Page{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: user.ID,
		Title: "Contact", Permalink: "contact.html", PublishedOn: day(1), UpdatedOn: day(1),
		Text:      "write to us",
		Revisions: []model.Revision{{AsOf: day(1), SourceType: model.HTML, Text: "write to us"}},
	}))

	published := day(3)
	require.NoError(t, data.Posts.Add(ctx, &model.Post{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: user.ID, Status: model.Published,
		Title: "Episode 1", Permalink: "2024/episode-1.html",
		PublishedOn: &published, UpdatedOn: day(3), Text: "listen",
		CategoryIDs: []string{child.ID}, Tags: []string{"f#", "podcast"},
		Episode:   &model.Episode{Media: "ep1.mp3", Length: 1024, Duration: "0:20:00"},
		Revisions: []model.Revision{{AsOf: day(3), SourceType: model.Markdown, Text: "listen"}},
	}))

	welcomed := day(4)
	require.NoError(t, data.Posts.Add(ctx, &model.Post{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: user.ID, Status: model.Published,
		Title: "Welcome", Permalink: "2024/welcome.html",
		PublishedOn: &welcomed, UpdatedOn: day(5), Text: "hello again",
		CategoryIDs: []string{parent.ID}, Tags: []string{"meta"},
		PriorPermalinks: []string{"2024/hello.html"},
		Revisions: []model.Revision{
			{AsOf: day(5), SourceType: model.HTML, Text: "hello again"},
			{AsOf: day(4), SourceType: model.Markdown, Text: "hello"},
		},
	}))

	require.NoError(t, data.Uploads.Add(ctx, &model.Upload{
		ID: model.NewID(), WebLogID: webLog.ID, Path: "2024/07/logo.png",
		UpdatedOn: day(0), Data: []byte{0x89, 0x50, 0x4e, 0x47},
	}))

	return webLog
}

func TestExportRestoreRoundTrip(t *testing.T) {
	source := testData(t)
	target := testData(t)
	ctx := context.Background()

	webLog := seedFullGraph(t, source)

	archive, err := Export(ctx, source, webLog.ID)
	require.NoError(t, err)
	require.NotNil(t, archive.Theme)
	require.Len(t, archive.Users, 1)
	require.Len(t, archive.Pages, 2)
	require.Len(t, archive.Posts, 2)
	assert.Equal(t, "$2a$12$fixture", archive.Users[0].PasswordHash)

	// through the file format and into a fresh backend
	var buf bytes.Buffer
	require.NoError(t, archive.Write(&buf))
	decoded, err := Read(&buf)
	require.NoError(t, err)

	require.NoError(t, Restore(ctx, target, decoded))

	restored, err := Export(ctx, target, webLog.ID)
	require.NoError(t, err)
	assert.Equal(t, archive, restored, "a restored web log exports identically")
}

func TestRestoreIsIdempotent(t *testing.T) {
	source := testData(t)
	target := testData(t)
	ctx := context.Background()

	webLog := seedFullGraph(t, source)
	archive, err := Export(ctx, source, webLog.ID)
	require.NoError(t, err)

	require.NoError(t, Restore(ctx, target, archive))
	require.NoError(t, Restore(ctx, target, archive), "restore is safely re-runnable")

	count, err := target.Categories.CountAll(ctx, webLog.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	posts, err := target.Posts.FindFullByWebLog(ctx, webLog.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	revisions := make(map[string]int, len(posts))
	for _, post := range posts {
		revisions[post.Title] = len(post.Revisions)
	}
	assert.Equal(t, map[string]int{"Episode 1": 1, "Welcome": 2}, revisions,
		"revisions are not duplicated")

	pages, err := target.Pages.FindFullByWebLog(ctx, webLog.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestExportMissingWebLog(t *testing.T) {
	data := testData(t)

	_, err := Export(context.Background(), data, "no-such-id")
	assert.Error(t, err)
}
