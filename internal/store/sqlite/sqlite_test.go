package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

func testData(t *testing.T) *store.Data {
	t.Helper()

	// A single connection keeps the in-memory database alive and shared.
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	data := NewData(db)
	require.NoError(t, data.StartUp(context.Background()))

	t.Cleanup(func() { data.Close() })
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

func TestWebLogRoundTrip(t *testing.T) {
	data := testData(t)
	ctx := context.Background()

	webLog := seedWebLog(t, data)
	webLog.RSS = model.RSSOptions{IsFeedEnabled: true, FeedName: "feed.xml", ItemsInFeed: 20}
	webLog.RedirectRules = []model.RedirectRule{{From: "/old", To: "/new"}}
	require.NoError(t, data.WebLogs.Update(ctx, webLog))

	found, err := data.WebLogs.FindByHost(ctx, "http://example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, webLog.RSS, found.RSS)
	assert.Equal(t, webLog.RedirectRules, found.RedirectRules)

	missing, err := data.WebLogs.FindByHost(ctx, "http://nowhere.example.com")
	require.NoError(t, err)
	assert.Nil(t, missing, "a miss is a nil result, not an error")
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

	post := &model.Post{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author", Status: model.Published,
		Title: "Hello", Permalink: "2024/hello.html", UpdatedOn: day(1),
		CategoryIDs: []string{middle.ID},
		Revisions:   []model.Revision{{AsOf: day(1), SourceType: model.Markdown, Text: "hi"}},
	}
	require.NoError(t, data.Posts.Add(ctx, post))

	outcome, err := data.Categories.Delete(ctx, webLog.ID, middle.ID)
	require.NoError(t, err)
	assert.Equal(t, store.DeletedWithChildrenReassigned, outcome)

	reloaded, err := data.Categories.FindByID(ctx, webLog.ID, child.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, parent.ID, reloaded.ParentID, "children move to the deleted category's parent")

	updated, err := data.Posts.FindByID(ctx, webLog.ID, post.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.CategoryIDs, "posts lose the deleted category")

	// a leaf with no posts deletes plainly
	outcome, err = data.Categories.Delete(ctx, webLog.ID, child.ID)
	require.NoError(t, err)
	assert.Equal(t, store.Deleted, outcome)

	outcome, err = data.Categories.Delete(ctx, webLog.ID, "no-such-id")
	require.NoError(t, err)
	assert.Equal(t, store.NotDeleted, outcome)
}

func TestCategoryPostCountRollsUpDescendants(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	parent := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "Podcast", Slug: "podcast"}
	child := &model.Category{ID: model.NewID(), WebLogID: webLog.ID, Name: "Audio", Slug: "audio", ParentID: parent.ID}
	require.NoError(t, data.Categories.Add(ctx, parent))
	require.NoError(t, data.Categories.Add(ctx, child))

	addPost := func(status model.PostStatus, catIDs ...string) {
		published := day(2)
		post := &model.Post{
			ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author", Status: status,
			Title: "p", Permalink: model.NewID() + ".html", UpdatedOn: day(2),
			CategoryIDs: catIDs,
			Revisions:   []model.Revision{{AsOf: day(2), SourceType: model.HTML, Text: "x"}},
		}
		if status == model.Published {
			post.PublishedOn = &published
		}
		require.NoError(t, data.Posts.Add(ctx, post))
	}

	addPost(model.Published, child.ID)
	addPost(model.Published, parent.ID, child.ID) // counted once despite two links
	addPost(model.Draft, child.ID)                // drafts don't count

	count, err := data.Posts.CountByCategory(ctx, webLog.ID, []string{parent.ID, child.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = data.Posts.CountByCategory(ctx, webLog.ID, []string{parent.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostPaginationFetchesSentinelRow(t *testing.T) {
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
	assert.Equal(t, "Post 4", trimmed[0].Title, "newest first")

	posts, err = data.Posts.FindPageOfPublishedPosts(ctx, webLog.ID, 3, 2)
	require.NoError(t, err)
	trimmed, hasNext = store.TrimPage(posts, 2)
	assert.Len(t, trimmed, 1)
	assert.False(t, hasNext)
}

func TestPostUpdateDiffsRevisions(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	post := &model.Post{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author", Status: model.Draft,
		Title: "Draft", Permalink: "2024/draft.html", UpdatedOn: day(0),
		Revisions: []model.Revision{
			{AsOf: day(0), SourceType: model.Markdown, Text: "first"},
			{AsOf: day(2), SourceType: model.Markdown, Text: "second"},
		},
	}
	require.NoError(t, data.Posts.Add(ctx, post))

	// an edit appends a newer revision; prior revisions stay put
	revisions, err := model.ApplyRevision(post.Revisions,
		model.Revision{AsOf: day(3), SourceType: model.Markdown, Text: "third"})
	require.NoError(t, err)
	post.Revisions = revisions
	post.Text = "third"
	require.NoError(t, data.Posts.Update(ctx, post))

	reloaded, err := data.Posts.FindByID(ctx, webLog.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Revisions, 3)
	assert.Equal(t, day(3), model.CurrentRevision(reloaded.Revisions).AsOf)
	assert.Equal(t, "third", model.CurrentRevision(reloaded.Revisions).Text)
}

func TestPermalinkHistoryResolution(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	page := &model.Page{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: "author",
		Title: "About", Permalink: "about.html", PublishedOn: day(0), UpdatedOn: day(0),
		Revisions: []model.Revision{{AsOf: day(0), SourceType: model.HTML, Text: "about us"}},
	}
	require.NoError(t, data.Pages.Add(ctx, page))

	// moving the page records the old permalink
	page.PriorPermalinks = []string{"about.html"}
	page.Permalink = "about-us.html"
	require.NoError(t, data.Pages.Update(ctx, page))

	current, err := data.Pages.FindCurrentPermalink(ctx, webLog.ID, []string{"nope.html", "about.html"})
	require.NoError(t, err)
	assert.Equal(t, "about-us.html", current)

	current, err = data.Pages.FindCurrentPermalink(ctx, webLog.ID, []string{"never-existed.html"})
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestUserDeleteConflicts(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	author := &model.WebLogUser{
		ID: model.NewID(), WebLogID: webLog.ID, Email: "author@example.com",
		FirstName: "Alice", LastName: "Author", PreferredName: "Alice",
		AccessLevel: model.Author, CreatedOn: day(0),
	}
	idle := &model.WebLogUser{
		ID: model.NewID(), WebLogID: webLog.ID, Email: "idle@example.com",
		FirstName: "Ida", LastName: "Idle", PreferredName: "Ida",
		AccessLevel: model.Editor, CreatedOn: day(0),
	}
	require.NoError(t, data.Users.Add(ctx, author))
	require.NoError(t, data.Users.Add(ctx, idle))

	page := &model.Page{
		ID: model.NewID(), WebLogID: webLog.ID, AuthorID: author.ID,
		Title: "Theirs", Permalink: "theirs.html", PublishedOn: day(1), UpdatedOn: day(1),
		Revisions: []model.Revision{{AsOf: day(1), SourceType: model.Markdown, Text: "mine"}},
	}
	require.NoError(t, data.Pages.Add(ctx, page))

	_, err := data.Users.Delete(ctx, webLog.ID, author.ID)
	assert.ErrorIs(t, err, store.ErrUserHasContent)

	outcome, err := data.Users.Delete(ctx, webLog.ID, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, store.Deleted, outcome)
}

func TestTagMapLookup(t *testing.T) {
	data := testData(t)
	ctx := context.Background()
	webLog := seedWebLog(t, data)

	tagMap := &model.TagMap{ID: model.NewID(), WebLogID: webLog.ID, Tag: "f#", URLValue: "f-sharp"}
	require.NoError(t, data.TagMaps.Save(ctx, tagMap))

	found, err := data.TagMaps.FindByURLValue(ctx, webLog.ID, "f-sharp")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "f#", found.Tag)

	maps, err := data.TagMaps.FindMappingForTags(ctx, webLog.ID, []string{"f#", "go"})
	require.NoError(t, err)
	assert.Len(t, maps, 1)
}
