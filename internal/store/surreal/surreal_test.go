package surreal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

func TestPlainID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"post:8424486b-85b3-4c58-a3a8-4fa9a7e0f2d3", "8424486b-85b3-4c58-a3a8-4fa9a7e0f2d3"},
		{"post:⟨8424486b-85b3-4c58-a3a8-4fa9a7e0f2d3⟩", "8424486b-85b3-4c58-a3a8-4fa9a7e0f2d3"},
		{"plain-id", "plain-id"},
		{"theme_asset:⟨default/style.css⟩", "default/style.css"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, plainID(tt.raw))
	}
}

func TestContentDropsID(t *testing.T) {
	cat := &model.Category{ID: model.NewID(), WebLogID: "wl", Name: "News", Slug: "news"}

	data, err := content(cat)
	require.NoError(t, err)
	assert.NotContains(t, data, "id")
	assert.Equal(t, "News", data["name"])
	assert.Equal(t, "wl", data["webLogId"])
}

func TestUserDocCarriesPasswordHash(t *testing.T) {
	user := &model.WebLogUser{
		ID: model.NewID(), WebLogID: "wl", Email: "a@example.com",
		FirstName: "A", LastName: "B", PreferredName: "A",
		PasswordHash: "$2a$12$secret", AccessLevel: model.Author,
		CreatedOn: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := content(docForUser(user))
	require.NoError(t, err)
	assert.Equal(t, "$2a$12$secret", data["passwordHash"],
		"the stored document keeps the hash the JSON model hides")

	doc := docForUser(user)
	doc.WebLogUser.ID = "web_log_user:" + user.ID
	restored := doc.user()
	assert.Equal(t, user.ID, restored.ID)
	assert.Equal(t, user.PasswordHash, restored.PasswordHash)
}

// Documents store UTC instants, so archives exported from this backend are
// byte-comparable with the relational ones.
func TestStoredDocumentTimesAreUTC(t *testing.T) {
	denver := time.FixedZone("MDT", -6*60*60)
	asOf := time.Date(2024, 7, 1, 8, 30, 0, 0, denver)

	page := utcPage(&model.Page{
		ID: model.NewID(), WebLogID: "wl", Title: "About",
		PublishedOn: asOf, UpdatedOn: asOf,
		Revisions: []model.Revision{{AsOf: asOf, SourceType: model.HTML, Text: "about"}},
	})
	assert.Equal(t, time.UTC, page.PublishedOn.Location())
	assert.Equal(t, time.UTC, page.UpdatedOn.Location())
	assert.Equal(t, time.UTC, page.Revisions[0].AsOf.Location())
	assert.True(t, page.PublishedOn.Equal(asOf), "normalization keeps the instant")

	post := utcPost(&model.Post{
		ID: model.NewID(), WebLogID: "wl", Status: model.Published,
		PublishedOn: &asOf, UpdatedOn: asOf,
		Revisions: []model.Revision{{AsOf: asOf, SourceType: model.Markdown, Text: "hi"}},
	})
	assert.Equal(t, time.UTC, post.PublishedOn.Location())
	assert.Equal(t, time.UTC, post.Revisions[0].AsOf.Location())

	lastSeen := asOf
	doc := docForUser(&model.WebLogUser{
		ID: model.NewID(), WebLogID: "wl", Email: "a@example.com",
		CreatedOn: asOf, LastSeenOn: &lastSeen,
	})
	assert.Equal(t, time.UTC, doc.CreatedOn.Location())
	assert.Equal(t, time.UTC, doc.LastSeenOn.Location())

	upload := utcUpload(&model.Upload{ID: model.NewID(), WebLogID: "wl", UpdatedOn: asOf})
	assert.Equal(t, time.UTC, upload.UpdatedOn.Location())

	data, err := content(page)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01T14:30:00Z", data["publishedOn"],
		"serialized instants carry the Z suffix")
}

func TestAssetKey(t *testing.T) {
	assert.Equal(t, "default/css/style.css", assetKey("default", "css/style.css"))
}
