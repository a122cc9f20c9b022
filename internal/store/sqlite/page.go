package sqlite

import (
	"context"
	"database/sql"

	"github.com/bit-badger/myWebLog-sub005/internal/diff"
	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type pageStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
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
		`SELECT `+pageFields+` FROM page WHERE web_log_id = ? ORDER BY lower(title)`, webLogID)
}

func (s *pageStore) CountAll(ctx context.Context, webLogID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM page WHERE web_log_id = ?`, webLogID).Scan(&count)
	return count, err
}

func (s *pageStore) CountInPageList(ctx context.Context, webLogID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM page WHERE web_log_id = ? AND is_in_page_list = 1`, webLogID).Scan(&count)
	return count, err
}

func (s *pageStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM page WHERE web_log_id = ? AND id = ?`, webLogID, id)
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
		`SELECT `+pageFields+` FROM page WHERE web_log_id = ? AND id = ?`, webLogID, id)))
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
		`SELECT `+pageFields+` FROM page WHERE web_log_id = ? AND permalink = ?`, webLogID, permalink)))
	if err != nil || page == nil {
		return page, err
	}
	if err := attachPageChildren(ctx, s.db, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageStore) FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error) {
	if len(priors) == 0 {
		return "", nil
	}

	query := `
		SELECT p.permalink
		FROM page p
		JOIN page_permalink pp ON pp.page_id = p.id
		WHERE p.web_log_id = ? AND pp.permalink IN (` + placeholders(len(priors)) + `)
		LIMIT 1`

	args := append([]any{webLogID}, anySlice(priors)...)

	var permalink string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&permalink)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return permalink, nil
}

func (s *pageStore) FindAllInPageList(ctx context.Context, webLogID string) ([]model.Page, error) {
	return s.queryPages(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = ? AND is_in_page_list = 1 ORDER BY lower(title)`,
		webLogID)
}

func (s *pageStore) FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Page, error) {
	pages, err := s.queryPages(ctx,
		`SELECT `+pageFields+` FROM page WHERE web_log_id = ? ORDER BY lower(title)`, webLogID)
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
		`SELECT `+pageFields+` FROM page WHERE web_log_id = ? ORDER BY lower(title) LIMIT ? OFFSET ?`,
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
			SET author_id = ?, title = ?, permalink = ?, published_on = ?, updated_on = ?,
			    is_in_page_list = ?, template = ?, page_text = ?, meta_items = ?
			WHERE web_log_id = ? AND id = ?`,
			page.AuthorID, page.Title, page.Permalink, fmtTime(page.PublishedOn),
			fmtTime(page.UpdatedOn), page.IsInPageList, page.Template, page.Text, meta,
			page.WebLogID, page.ID)
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
				`DELETE FROM page WHERE id = ?`, page.ID); err != nil {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		page.ID, page.WebLogID, page.AuthorID, page.Title, page.Permalink,
		fmtTime(page.PublishedOn), fmtTime(page.UpdatedOn), page.IsInPageList,
		page.Template, page.Text, meta)
	return err
}

func scanPage(row rowScanner) (*model.Page, error) {
	var (
		page                   model.Page
		publishedOn, updatedOn string
		meta                   string
	)
	err := row.Scan(&page.ID, &page.WebLogID, &page.AuthorID, &page.Title, &page.Permalink,
		&publishedOn, &updatedOn, &page.IsInPageList, &page.Template, &page.Text, &meta)
	if err != nil {
		return nil, err
	}

	if page.PublishedOn, err = parseTime(publishedOn); err != nil {
		return nil, err
	}
	if page.UpdatedOn, err = parseTime(updatedOn); err != nil {
		return nil, err
	}
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
		WHERE page_id = ?
		ORDER BY as_of DESC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRevisions(rows)
}

func loadPagePermalinks(ctx context.Context, q querier, pageID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT permalink FROM page_permalink WHERE page_id = ? ORDER BY permalink`, pageID)
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
			asOf       string
			sourceType string
		)
		if err := rows.Scan(&asOf, &sourceType, &rev.Text); err != nil {
			return nil, err
		}
		t, err := parseTime(asOf)
		if err != nil {
			return nil, err
		}
		rev.AsOf = t
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
			`DELETE FROM page_revision WHERE page_id = ? AND as_of = ?`,
			pageID, fmtTime(rev.AsOf)); err != nil {
			return err
		}
	}
	for _, rev := range added {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO page_revision (page_id, as_of, source_type, revision_text)
			VALUES (?, ?, ?, ?)`,
			pageID, fmtTime(rev.AsOf), string(rev.SourceType), rev.Text); err != nil {
			return err
		}
	}

	removedLinks, addedLinks := diff.Separate(oldPermalinks, permalinks, func(s string) string { return s })
	for _, permalink := range removedLinks {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM page_permalink WHERE page_id = ? AND permalink = ?`,
			pageID, permalink); err != nil {
			return err
		}
	}
	for _, permalink := range addedLinks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO page_permalink (page_id, permalink) VALUES (?, ?)`,
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
