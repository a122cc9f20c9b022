package model

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh identifier for any entity.
func NewID() string {
	return uuid.NewString()
}

// UploadDestination is where a web log stores uploaded files.
type UploadDestination string

const (
	UploadToDatabase UploadDestination = "Database"
	UploadToDisk     UploadDestination = "Disk"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	Draft     PostStatus = "Draft"
	Published PostStatus = "Published"
)

// RevisionSource is the markup format of a revision's text.
type RevisionSource string

const (
	HTML     RevisionSource = "HTML"
	Markdown RevisionSource = "Markdown"
)

// RSSOptions holds the syndication settings for a web log.
type RSSOptions struct {
	IsFeedEnabled     bool   `json:"isFeedEnabled"`
	FeedName          string `json:"feedName"`
	ItemsInFeed       int    `json:"itemsInFeed"`
	IsCategoryEnabled bool   `json:"isCategoryEnabled"`
	IsTagEnabled      bool   `json:"isTagEnabled"`
	Copyright         string `json:"copyright,omitempty"`
}

// RedirectRule maps a request path to its replacement.
type RedirectRule struct {
	From    string `json:"from"`
	To      string `json:"to"`
	IsRegex bool   `json:"isRegex"`
}

// WebLog is one tenant of the multi-tenant engine.
type WebLog struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Subtitle      string            `json:"subtitle,omitempty"`
	DefaultPage   string            `json:"defaultPage"`
	PostsPerPage  int               `json:"postsPerPage"`
	ThemeID       string            `json:"themeId"`
	URLBase       string            `json:"urlBase"`
	TimeZone      string            `json:"timeZone"`
	RSS           RSSOptions        `json:"rss"`
	RedirectRules []RedirectRule    `json:"redirectRules,omitempty"`
	Uploads       UploadDestination `json:"uploads"`
}

// Category classifies posts; categories form a forest per web log.
type Category struct {
	ID          string `json:"id"`
	WebLogID    string `json:"webLogId"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parentId,omitempty"`
}

// MetaItem is one name/value metadata pair on a page or post.
type MetaItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Revision is an immutable timestamped snapshot of a page or post body.
// AsOf is the natural key within an entity's revision list.
type Revision struct {
	AsOf       time.Time      `json:"asOf"`
	SourceType RevisionSource `json:"sourceType"`
	Text       string         `json:"text"`
}

// Page is a piece of long-lived content not part of the post stream.
type Page struct {
	ID              string     `json:"id"`
	WebLogID        string     `json:"webLogId"`
	AuthorID        string     `json:"authorId"`
	Title           string     `json:"title"`
	Permalink       string     `json:"permalink"`
	PublishedOn     time.Time  `json:"publishedOn"`
	UpdatedOn       time.Time  `json:"updatedOn"`
	IsInPageList    bool       `json:"isInPageList"`
	Template        string     `json:"template,omitempty"`
	Text            string     `json:"text"`
	Metadata        []MetaItem `json:"metadata,omitempty"`
	PriorPermalinks []string   `json:"priorPermalinks,omitempty"`
	Revisions       []Revision `json:"revisions"`
}

// Episode holds the podcast metadata for a post.
type Episode struct {
	Media     string `json:"media"`
	Length    int64  `json:"length"`
	Duration  string `json:"duration,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	Explicit  *bool  `json:"explicit,omitempty"`
}

// Post is one entry in a web log's post stream.
type Post struct {
	ID              string     `json:"id"`
	WebLogID        string     `json:"webLogId"`
	AuthorID        string     `json:"authorId"`
	Status          PostStatus `json:"status"`
	Title           string     `json:"title"`
	Permalink       string     `json:"permalink"`
	PublishedOn     *time.Time `json:"publishedOn,omitempty"`
	UpdatedOn       time.Time  `json:"updatedOn"`
	Template        string     `json:"template,omitempty"`
	Text            string     `json:"text"`
	CategoryIDs     []string   `json:"categoryIds,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Episode         *Episode   `json:"episode,omitempty"`
	Metadata        []MetaItem `json:"metadata,omitempty"`
	PriorPermalinks []string   `json:"priorPermalinks,omitempty"`
	Revisions       []Revision `json:"revisions"`
}

// WebLogUser is an author or administrator of a web log.
type WebLogUser struct {
	ID            string      `json:"id"`
	WebLogID      string      `json:"webLogId"`
	Email         string      `json:"email"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	PreferredName string      `json:"preferredName"`
	PasswordHash  string      `json:"-"`
	AccessLevel   AccessLevel `json:"accessLevel"`
	CreatedOn     time.Time   `json:"createdOn"`
	LastSeenOn    *time.Time  `json:"lastSeenOn,omitempty"`
}

// DisplayName is how the user is shown in bylines and lists.
func (u *WebLogUser) DisplayName() string {
	if u.PreferredName != "" {
		return u.PreferredName
	}
	return u.FirstName + " " + u.LastName
}

// ThemeTemplate is one named template body within a theme.
type ThemeTemplate struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Theme is a display theme with its templates.
type Theme struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	Templates []ThemeTemplate `json:"templates"`
}

// ThemeAsset is a binary file belonging to a theme, keyed by (ThemeID, Path).
type ThemeAsset struct {
	ThemeID   string    `json:"themeId"`
	Path      string    `json:"path"`
	UpdatedOn time.Time `json:"updatedOn"`
	Data      []byte    `json:"data,omitempty"`
}

// TagMap overrides the URL value derived for a tag.
type TagMap struct {
	ID       string `json:"id"`
	WebLogID string `json:"webLogId"`
	Tag      string `json:"tag"`
	URLValue string `json:"urlValue"`
}

// Upload is a file uploaded to a web log. Data is empty when the file
// lives on disk rather than in the database.
type Upload struct {
	ID        string    `json:"id"`
	WebLogID  string    `json:"webLogId"`
	Path      string    `json:"path"`
	UpdatedOn time.Time `json:"updatedOn"`
	Data      []byte    `json:"data,omitempty"`
}
