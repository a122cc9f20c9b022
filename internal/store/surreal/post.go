package surreal

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type postStore struct {
	db *surrealdb.DB
}

// utcPost copies the post with its instants normalized to UTC before storage.
func utcPost(post *model.Post) *model.Post {
	p := *post
	if p.PublishedOn != nil {
		published := p.PublishedOn.UTC()
		p.PublishedOn = &published
	}
	p.UpdatedOn = p.UpdatedOn.UTC()
	p.Revisions = utcRevisions(p.Revisions)
	return &p
}

func (s *postStore) Add(ctx context.Context, post *model.Post) error {
	return upsert(s.db, "post", post.ID, utcPost(post))
}

func (s *postStore) CountByCategory(ctx context.Context, webLogID string, categoryIDs []string) (int, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}
	return queryCount(s.db, `
		SELECT count() FROM post
		WHERE webLogId = $webLogId AND status = 'Published' AND categoryIds CONTAINSANY $categoryIds
		GROUP ALL`,
		map[string]any{"webLogId": webLogID, "categoryIds": categoryIDs})
}

func (s *postStore) CountByStatus(ctx context.Context, webLogID string, status model.PostStatus) (int, error) {
	return queryCount(s.db,
		`SELECT count() FROM post WHERE webLogId = $webLogId AND status = $status GROUP ALL`,
		map[string]any{"webLogId": webLogID, "status": string(status)})
}

func (s *postStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	return deleteScoped(s.db, "post", webLogID, id)
}

func (s *postStore) FindByID(ctx context.Context, webLogID, id string) (*model.Post, error) {
	post, err := queryOne[model.Post](s.db,
		`SELECT * FROM type::thing('post', $id) WHERE webLogId = $webLogId`,
		map[string]any{"id": id, "webLogId": webLogID})
	if err != nil || post == nil {
		return post, err
	}
	post.ID = plainID(post.ID)
	return post, nil
}

func (s *postStore) FindByPermalink(ctx context.Context, webLogID, permalink string) (*model.Post, error) {
	post, err := queryOne[model.Post](s.db,
		`SELECT * FROM post WHERE webLogId = $webLogId AND permalink = $permalink LIMIT 1`,
		map[string]any{"webLogId": webLogID, "permalink": permalink})
	if err != nil || post == nil {
		return post, err
	}
	post.ID = plainID(post.ID)
	return post, nil
}

func (s *postStore) FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error) {
	if len(priors) == 0 {
		return "", nil
	}

	result, err := queryOne[permalinkResult](s.db, `
		SELECT permalink FROM post
		WHERE webLogId = $webLogId AND priorPermalinks CONTAINSANY $priors
		LIMIT 1`,
		map[string]any{"webLogId": webLogID, "priors": priors})
	if err != nil || result == nil {
		return "", err
	}
	return result.Permalink, nil
}

func (s *postStore) FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Post, error) {
	return s.queryPosts(`
		SELECT *, publishedOn ?? updatedOn AS sortOn
		FROM post
		WHERE webLogId = $webLogId
		ORDER BY sortOn DESC`,
		map[string]any{"webLogId": webLogID})
}

// FindPageOfPosts orders drafts among published posts by falling back to
// the update instant where no publish instant exists.
func (s *postStore) FindPageOfPosts(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Post, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(`
		SELECT *, publishedOn ?? updatedOn AS sortOn
		FROM post
		WHERE webLogId = $webLogId
		ORDER BY sortOn DESC
		LIMIT $limit START $start`,
		map[string]any{"webLogId": webLogID, "limit": limit, "start": offset})
}

func (s *postStore) FindPageOfPublishedPosts(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Post, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(`
		SELECT * FROM post
		WHERE webLogId = $webLogId AND status = 'Published'
		ORDER BY publishedOn DESC
		LIMIT $limit START $start`,
		map[string]any{"webLogId": webLogID, "limit": limit, "start": offset})
}

func (s *postStore) FindPageOfCategorizedPosts(ctx context.Context, webLogID string, categoryIDs []string, pageNbr, pageSize int) ([]model.Post, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(`
		SELECT * FROM post
		WHERE webLogId = $webLogId AND status = 'Published' AND categoryIds CONTAINSANY $categoryIds
		ORDER BY publishedOn DESC
		LIMIT $limit START $start`,
		map[string]any{"webLogId": webLogID, "categoryIds": categoryIDs, "limit": limit, "start": offset})
}

func (s *postStore) FindPageOfTaggedPosts(ctx context.Context, webLogID, tag string, pageNbr, pageSize int) ([]model.Post, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(`
		SELECT * FROM post
		WHERE webLogId = $webLogId AND status = 'Published' AND tags CONTAINS $tag
		ORDER BY publishedOn DESC
		LIMIT $limit START $start`,
		map[string]any{"webLogId": webLogID, "tag": tag, "limit": limit, "start": offset})
}

func (s *postStore) Update(ctx context.Context, post *model.Post) error {
	return upsert(s.db, "post", post.ID, utcPost(post))
}

func (s *postStore) Restore(ctx context.Context, posts []model.Post) error {
	for i := range posts {
		if err := upsert(s.db, "post", posts[i].ID, utcPost(&posts[i])); err != nil {
			return err
		}
	}
	return nil
}

func (s *postStore) queryPosts(query string, vars map[string]any) ([]model.Post, error) {
	posts, err := queryAll[model.Post](s.db, query, vars)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].ID = plainID(posts[i].ID)
	}
	return posts, nil
}
