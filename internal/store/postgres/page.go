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

type pageStore struct {
	db *sql.DB
}

const pageFields = `id, web_log_id, author_id, title, permalink, published_on, updated_on, is_in_page_list, template, page_text, meta_items`

func (s *pageStore) Add(ctx context.Context, page *model.Page) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := insertPage(ctx, tx, page); err != nil {
			return err
		}
		return syncPageChildren(ctx, tx, page.ID, nil, nil, page.Revisions, page.PriorPermalinks)
	})
}

func (s *pageStore) All(ctx context.Context, webLogID string) ([]model.Page, error) {
	return s.queryPages(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = $1 ORDER BY lower(title)`, webLogID)
}

func (s *pageStore) CountAll(ctx context.Context, webLogID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM page WHERE web_log_id = $1`, webLogID).Scan(&count)
	return count, err
}

func (s *pageStore) CountInPageList(ctx context.Context, webLogID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM page WHERE web_log_id = $1 AND is_in_page_list`, webLogID).Scan(&count)
	return count, err
}

func (s *pageStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM page WHERE web_log_id = $1 AND id = $2`, webLogID, id)
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

func (s *pageStore) FindByID(ctx context.Context, webLogID, id string) (*model.Page, error) {
	page, err := nilOnNoRows(scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = $1 AND id = $2`, webLogID, id)))
	if err != nil || page == nil {
		return page, err
	}
	if err := attachPageChildren(ctx, s.db, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageStore) FindByPermalink(ctx context.Context, webLogID, permalink string) (*model.Page, error) {
	page, err := nilOnNoRows(scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = $1 AND permalink = $2`, webLogID, permalink)))
	if err != nil || page == nil {
		return page, err
	}
	if err := attachPageChildren(ctx, s.db, page); err != nil {
		return nil, err
	}
	return page, nil
}

// FindCurrentPermalink matches the candidate set with an array parameter
// rather than an interpolated IN list.
func (s *pageStore) FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error) {
	if len(priors) == 0 {
		return "", nil
	}

	var permalink string
	err := s.db.QueryRowContext(ctx, `
		SELECT p.permalink
		FROM page p
		JOIN page_permalink pp ON pp.page_id = p.id
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

func (s *pageStore) FindAllInPageList(ctx context.Context, webLogID string) ([]model.Page, error) {
	return s.queryPages(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = $1 AND is_in_page_list ORDER BY lower(title)`,
		webLogID)
}

func (s *pageStore) FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Page, error) {
	pages, err := s.queryPages(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = $1 ORDER BY lower(title)`, webLogID)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if err := attachPageChildren(ctx, s.db, &pages[i]); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

func (s *pageStore) FindPage(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Page, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPages(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = $1 ORDER BY lower(title) LIMIT $2 OFFSET $3`,
		webLogID, limit, offset)
}

func (s *pageStore) Update(ctx context.Context, page *model.Page) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		oldRevisions, err := loadPageRevisions(ctx, tx, page.ID)
		if err != nil {
			return err
		}
		oldPermalinks, err := loadPagePermalinks(ctx, tx, page.ID)
		if err != nil {
			return err
		}

		meta, err := toJSON(page.Metadata)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE page
			SET author_id = $1, title = $2, permalink = $3, published_on = $4, updated_on = $5,
			    is_in_page_list = $6, template = $7, page_text = $8, meta_items = $9
			WHERE web_log_id = $10 AND id = $11`,
			page.AuthorID, page.Title, page.Permalink, page.PublishedOn, page.UpdatedOn,
			page.IsInPageList, page.Template, page.Text, meta, page.WebLogID, page.ID)
		if err != nil {
			return err
		}

		return syncPageChildren(ctx, tx, page.ID, oldRevisions, oldPermalinks,
			page.Revisions, page.PriorPermalinks)
	})
}

func (s *pageStore) Restore(ctx context.Context, pages []model.Page) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range pages {
			page := &pages[i]
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM page WHERE id = $1`, page.ID); err != nil {
				return err
			}
			if err := insertPage(ctx, tx, page); err != nil {
				return err
			}
			if err := syncPageChildren(ctx, tx, page.ID, nil, nil,
				page.Revisions, page.PriorPermalinks); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *pageStore) queryPages(ctx context.Context, query string, args ...any) ([]model.Page, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}

	return pages, rows.Err()
}

func insertPage(ctx context.Context, q querier, page *model.Page) error {
	meta, err := toJSON(page.Metadata)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO page (`+pageFields+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		page.ID, page.WebLogID, page.AuthorID, page.Title, page.Permalink,
		page.PublishedOn, page.UpdatedOn, page.IsInPageList, page.Template, page.Text, meta)
	return err
}

func scanPage(row rowScanner) (*model.Page, error) {
	var (
		page model.Page
		meta []byte
	)
	err := row.Scan(&page.ID, &page.WebLogID, &page.AuthorID, &page.Title, &page.Permalink,
		&page.PublishedOn, &page.UpdatedOn, &page.IsInPageList, &page.Template, &page.Text, &meta)
	if err != nil {
		return nil, err
	}

	page.PublishedOn = page.PublishedOn.UTC()
	page.UpdatedOn = page.UpdatedOn.UTC()
	if err := fromJSON(meta, &page.Metadata); err != nil {
		return nil, err
	}

	return &page, nil
}

func attachPageChildren(ctx context.Context, q querier, page *model.Page) error {
	revisions, err := loadPageRevisions(ctx, q, page.ID)
	if err != nil {
		return err
	}
	permalinks, err := loadPagePermalinks(ctx, q, page.ID)
	if err != nil {
		return err
	}
	page.Revisions = revisions
	page.PriorPermalinks = permalinks
	return nil
}

func loadPageRevisions(ctx context.Context, q querier, pageID string) ([]model.Revision, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT as_of, source_type, revision_text
		FROM page_revision
		WHERE page_id = $1
		ORDER BY as_of DESC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRevisions(rows)
}

func loadPagePermalinks(ctx context.Context, q querier, pageID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT permalink FROM page_permalink WHERE page_id = $1 ORDER BY permalink`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permalinks []string
	for rows.Next() {
		var permalink string
		if err := rows.Scan(&permalink); err != nil {
			return nil, err
		}
		permalinks = append(permalinks, permalink)
	}

	return permalinks, rows.Err()
}

func scanRevisions(rows *sql.Rows) ([]model.Revision, error) {
	var revisions []model.Revision
	for rows.Next() {
		var (
			rev        model.Revision
			sourceType string
		)
		if err := rows.Scan(&rev.AsOf, &sourceType, &rev.Text); err != nil {
			return nil, err
		}
		rev.AsOf = rev.AsOf.UTC()
		rev.SourceType = model.RevisionSource(sourceType)
		revisions = append(revisions, rev)
	}

	return revisions, rows.Err()
}

// syncPageChildren applies the collection diff to a page's revisions and
// prior permalinks, issuing only the deletes and inserts the diff demands.
func syncPageChildren(ctx context.Context, tx *sql.Tx, pageID string,
	oldRevisions []model.Revision, oldPermalinks []string,
	revisions []model.Revision, permalinks []string) error {

	removed, added := diff.Separate(oldRevisions, revisions, revisionKey)
	for _, rev := range removed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM page_revision WHERE page_id = $1 AND as_of = $2`,
			pageID, rev.AsOf); err != nil {
			return err
		}
	}
	for _, rev := range added {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO page_revision (page_id, as_of, source_type, revision_text)
			VALUES ($1, $2, $3, $4)`,
			pageID, rev.AsOf, string(rev.SourceType), rev.Text); err != nil {
			return err
		}
	}

	removedLinks, addedLinks := diff.Separate(oldPermalinks, permalinks, func(s string) string { return s })
	for _, permalink := range removedLinks {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM page_permalink WHERE page_id = $1 AND permalink = $2`,
			pageID, permalink); err != nil {
			return err
		}
	}
	for _, permalink := range addedLinks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO page_permalink (page_id, permalink) VALUES ($1, $2)`,
			pageID, permalink); err != nil {
			return err
		}
	}

	return nil
}

// revisionKey identifies a revision by its instant; text changes without a
// new AsOf are never written, preserving revision immutability.
func revisionKey(rev model.Revision) int64 {
	return rev.AsOf.UTC().UnixNano()
}
