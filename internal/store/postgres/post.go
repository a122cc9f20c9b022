package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/bit-badger/myWebLog-sub005/internal/diff"
	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type postStore struct {
	db *sql.DB
}

const postFields = `id, web_log_id, author_id, status, title, permalink, published_on, updated_on, template, post_text, tags, meta_items, episode`

func (s *postStore) Add(ctx context.Context, post *model.Post) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := insertPost(ctx, tx, post); err != nil {
			return err
		}
		return syncPostChildren(ctx, tx, post.ID, nil, nil, nil,
			post.Revisions, post.PriorPermalinks, post.CategoryIDs)
	})
}

func (s *postStore) CountByCategory(ctx context.Context, webLogID string, categoryIDs []string) (int, error) {
	if len(categoryIDs) == 0 {
		return 0, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT p.id)
		FROM post p
		JOIN post_category pc ON pc.post_id = p.id
		WHERE p.web_log_id = $1 AND p.status = $2 AND pc.category_id = ANY ($3)`,
		webLogID, string(model.Published), pq.Array(categoryIDs)).Scan(&count)
	return count, err
}

func (s *postStore) CountByStatus(ctx context.Context, webLogID string, status model.PostStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM post WHERE web_log_id = $1 AND status = $2`,
		webLogID, string(status)).Scan(&count)
	return count, err
}

func (s *postStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM post WHERE web_log_id = $1 AND id = $2`, webLogID, id)
	if err != nil {
		return store.NotDeleted, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return store.NotDeleted, err
	}
	if rows == 0 {
		return store.NotDeleted, nil
	}
	return store.Deleted, nil
}

func (s *postStore) FindByID(ctx context.Context, webLogID, id string) (*model.Post, error) {
	post, err := nilOnNoRows(scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postFields+` FROM post WHERE web_log_id = $1 AND id = $2`, webLogID, id)))
	if err != nil || post == nil {
		return post, err
	}
	if err := attachPostChildren(ctx, s.db, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postStore) FindByPermalink(ctx context.Context, webLogID, permalink string) (*model.Post, error) {
	post, err := nilOnNoRows(scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postFields+` FROM post WHERE web_log_id = $1 AND permalink = $2`, webLogID, permalink)))
	if err != nil || post == nil {
		return post, err
	}
	if err := attachPostChildren(ctx, s.db, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postStore) FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error) {
	if len(priors) == 0 {
		return "", nil
	}

	var permalink string
	err := s.db.QueryRowContext(ctx, `
		SELECT p.permalink
		FROM post p
		JOIN post_permalink pp ON pp.post_id = p.id
		WHERE p.web_log_id = $1 AND pp.permalink = ANY ($2)
		LIMIT 1`,
		webLogID, pq.Array(priors)).Scan(&permalink)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return permalink, nil
}

func (s *postStore) FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Post, error) {
	posts, err := s.queryPosts(ctx,
		`SELECT `+postFields+` FROM post WHERE web_log_id = $1 ORDER BY COALESCE(published_on, updated_on) DESC`,
		webLogID)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if err := attachPostChildren(ctx, s.db, &posts[i]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (s *postStore) FindPageOfPosts(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Post, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(ctx, `
		SELECT `+postFields+`
		FROM post
		WHERE web_log_id = $1
		ORDER BY COALESCE(published_on, updated_on) DESC
		LIMIT $2 OFFSET $3`,
		webLogID, limit, offset)
}

func (s *postStore) FindPageOfPublishedPosts(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Post, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(ctx, `
		SELECT `+postFields+`
		FROM post
		WHERE web_log_id = $1 AND status = $2
		ORDER BY published_on DESC
		LIMIT $3 OFFSET $4`,
		webLogID, string(model.Published), limit, offset)
}

func (s *postStore) FindPageOfCategorizedPosts(ctx context.Context, webLogID string, categoryIDs []string, pageNbr, pageSize int) ([]model.Post, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	offset, limit := store.PageOffset(pageNbr, pageSize)

	return s.queryPosts(ctx, `
		SELECT DISTINCT `+prefixedPostFields("p")+`
		FROM post p
		JOIN post_category pc ON pc.post_id = p.id
		WHERE p.web_log_id = $1 AND p.status = $2 AND pc.category_id = ANY ($3)
		ORDER BY p.published_on DESC
		LIMIT $4 OFFSET $5`,
		webLogID, string(model.Published), pq.Array(categoryIDs), limit, offset)
}

// FindPageOfTaggedPosts matches the tag against the native array column; the
// GIN index on tags serves the ANY comparison.
func (s *postStore) FindPageOfTaggedPosts(ctx context.Context, webLogID, tag string, pageNbr, pageSize int) ([]model.Post, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPosts(ctx, `
		SELECT `+postFields+`
		FROM post
		WHERE web_log_id = $1 AND status = $2 AND $3 = ANY (tags)
		ORDER BY published_on DESC
		LIMIT $4 OFFSET $5`,
		webLogID, string(model.Published), tag, limit, offset)
}

func (s *postStore) Update(ctx context.Context, post *model.Post) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		oldRevisions, err := loadPostRevisions(ctx, tx, post.ID)
		if err != nil {
			return err
		}
		oldPermalinks, err := loadPostPermalinks(ctx, tx, post.ID)
		if err != nil {
			return err
		}
		oldCategories, err := loadPostCategories(ctx, tx, post.ID)
		if err != nil {
			return err
		}

		meta, episode, err := postJSONArgs(post)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE post
			SET author_id = $1, status = $2, title = $3, permalink = $4, published_on = $5,
			    updated_on = $6, template = $7, post_text = $8, tags = $9, meta_items = $10, episode = $11
			WHERE web_log_id = $12 AND id = $13`,
			post.AuthorID, string(post.Status), post.Title, post.Permalink,
			post.PublishedOn, post.UpdatedOn, post.Template, post.Text,
			pq.Array(post.Tags), meta, episode, post.WebLogID, post.ID)
		if err != nil {
			return err
		}

		return syncPostChildren(ctx, tx, post.ID, oldRevisions, oldPermalinks, oldCategories,
			post.Revisions, post.PriorPermalinks, post.CategoryIDs)
	})
}

func (s *postStore) Restore(ctx context.Context, posts []model.Post) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range posts {
			post := &posts[i]
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM post WHERE id = $1`, post.ID); err != nil {
				return err
			}
			if err := insertPost(ctx, tx, post); err != nil {
				return err
			}
			if err := syncPostChildren(ctx, tx, post.ID, nil, nil, nil,
				post.Revisions, post.PriorPermalinks, post.CategoryIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *postStore) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	return posts, rows.Err()
}

func prefixedPostFields(alias string) string {
	return alias + ".id, " + alias + ".web_log_id, " + alias + ".author_id, " +
		alias + ".status, " + alias + ".title, " + alias + ".permalink, " +
		alias + ".published_on, " + alias + ".updated_on, " + alias + ".template, " +
		alias + ".post_text, " + alias + ".tags, " + alias + ".meta_items, " + alias + ".episode"
}

func postJSONArgs(post *model.Post) (meta []byte, episode any, err error) {
	if meta, err = toJSON(post.Metadata); err != nil {
		return
	}
	if post.Episode != nil {
		var enc []byte
		if enc, err = toJSON(post.Episode); err != nil {
			return
		}
		episode = enc
	}
	return
}

func insertPost(ctx context.Context, q querier, post *model.Post) error {
	meta, episode, err := postJSONArgs(post)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO post (`+postFields+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		post.ID, post.WebLogID, post.AuthorID, string(post.Status), post.Title,
		post.Permalink, post.PublishedOn, post.UpdatedOn, post.Template, post.Text,
		pq.Array(post.Tags), meta, episode)
	return err
}

func scanPost(row rowScanner) (*model.Post, error) {
	var (
		post        model.Post
		status      string
		publishedOn sql.NullTime
		tags        pq.StringArray
		meta        []byte
		episode     []byte
	)
	err := row.Scan(&post.ID, &post.WebLogID, &post.AuthorID, &status, &post.Title,
		&post.Permalink, &publishedOn, &post.UpdatedOn, &post.Template, &post.Text,
		&tags, &meta, &episode)
	if err != nil {
		return nil, err
	}

	post.Status = model.PostStatus(status)
	if publishedOn.Valid {
		t := publishedOn.Time.UTC()
		post.PublishedOn = &t
	}
	post.UpdatedOn = post.UpdatedOn.UTC()
	post.Tags = []string(tags)
	if err := fromJSON(meta, &post.Metadata); err != nil {
		return nil, err
	}
	if len(episode) > 0 {
		post.Episode = &model.Episode{}
		if err := fromJSON(episode, post.Episode); err != nil {
			return nil, err
		}
	}

	return &post, nil
}

func attachPostChildren(ctx context.Context, q querier, post *model.Post) error {
	revisions, err := loadPostRevisions(ctx, q, post.ID)
	if err != nil {
		return err
	}
	permalinks, err := loadPostPermalinks(ctx, q, post.ID)
	if err != nil {
		return err
	}
	categories, err := loadPostCategories(ctx, q, post.ID)
	if err != nil {
		return err
	}
	post.Revisions = revisions
	post.PriorPermalinks = permalinks
	post.CategoryIDs = categories
	return nil
}

func loadPostRevisions(ctx context.Context, q querier, postID string) ([]model.Revision, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT as_of, source_type, revision_text
		FROM post_revision
		WHERE post_id = $1
		ORDER BY as_of DESC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRevisions(rows)
}

func loadPostPermalinks(ctx context.Context, q querier, postID string) ([]string, error) {
	return queryStrings(ctx, q,
		`SELECT permalink FROM post_permalink WHERE post_id = $1 ORDER BY permalink`, postID)
}

func loadPostCategories(ctx context.Context, q querier, postID string) ([]string, error) {
	return queryStrings(ctx, q,
		`SELECT category_id FROM post_category WHERE post_id = $1 ORDER BY category_id`, postID)
}

func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, rows.Err()
}

// syncPostChildren applies the collection diff to a post's revisions, prior
// permalinks, and category links.
func syncPostChildren(ctx context.Context, tx *sql.Tx, postID string,
	oldRevisions []model.Revision, oldPermalinks, oldCategories []string,
	revisions []model.Revision, permalinks, categories []string) error {

	removed, added := diff.Separate(oldRevisions, revisions, revisionKey)
	for _, rev := range removed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_revision WHERE post_id = $1 AND as_of = $2`,
			postID, rev.AsOf); err != nil {
			return err
		}
	}
	for _, rev := range added {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO post_revision (post_id, as_of, source_type, revision_text)
			VALUES ($1, $2, $3, $4)`,
			postID, rev.AsOf, string(rev.SourceType), rev.Text); err != nil {
			return err
		}
	}

	stringKey := func(s string) string { return s }

	removedLinks, addedLinks := diff.Separate(oldPermalinks, permalinks, stringKey)
	for _, permalink := range removedLinks {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_permalink WHERE post_id = $1 AND permalink = $2`,
			postID, permalink); err != nil {
			return err
		}
	}
	for _, permalink := range addedLinks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_permalink (post_id, permalink) VALUES ($1, $2)`,
			postID, permalink); err != nil {
			return err
		}
	}

	removedCats, addedCats := diff.Separate(oldCategories, categories, stringKey)
	for _, categoryID := range removedCats {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_category WHERE post_id = $1 AND category_id = $2`,
			postID, categoryID); err != nil {
			return err
		}
	}
	for _, categoryID := range addedCats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_category (post_id, category_id) VALUES ($1, $2)`,
			postID, categoryID); err != nil {
			return err
		}
	}

	return nil
}
