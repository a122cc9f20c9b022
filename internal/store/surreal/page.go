package surreal

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type pageStore struct {
	db *surrealdb.DB
}

// utcPage copies the page with its instants normalized to UTC before storage.
func utcPage(page *model.Page) *model.Page {
	p := *page
	p.PublishedOn = p.PublishedOn.UTC()
	p.UpdatedOn = p.UpdatedOn.UTC()
	p.Revisions = utcRevisions(p.Revisions)
	return &p
}

func (s *pageStore) Add(ctx context.Context, page *model.Page) error {
	return upsert(s.db, "page", page.ID, utcPage(page))
}

// All omits the embedded revision and permalink histories; listings only
// need the page headers.
func (s *pageStore) All(ctx context.Context, webLogID string) ([]model.Page, error) {
	return s.queryPages(s.db, `
		SELECT * OMIT revisions, priorPermalinks
		FROM page
		WHERE webLogId = $webLogId
		ORDER BY title COLLATE ASC`,
		map[string]any{"webLogId": webLogID})
}

func (s *pageStore) CountAll(ctx context.Context, webLogID string) (int, error) {
	return queryCount(s.db,
		`SELECT count() FROM page WHERE webLogId = $webLogId GROUP ALL`,
		map[string]any{"webLogId": webLogID})
}

func (s *pageStore) CountInPageList(ctx context.Context, webLogID string) (int, error) {
	return queryCount(s.db,
		`SELECT count() FROM page WHERE webLogId = $webLogId AND isInPageList = true GROUP ALL`,
		map[string]any{"webLogId": webLogID})
}

func (s *pageStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	return deleteScoped(s.db, "page", webLogID, id)
}

func (s *pageStore) FindByID(ctx context.Context, webLogID, id string) (*model.Page, error) {
	page, err := queryOne[model.Page](s.db,
		`SELECT * FROM type::thing('page', $id) WHERE webLogId = $webLogId`,
		map[string]any{"id": id, "webLogId": webLogID})
	if err != nil || page == nil {
		return page, err
	}
	page.ID = plainID(page.ID)
	return page, nil
}

func (s *pageStore) FindByPermalink(ctx context.Context, webLogID, permalink string) (*model.Page, error) {
	page, err := queryOne[model.Page](s.db,
		`SELECT * FROM page WHERE webLogId = $webLogId AND permalink = $permalink LIMIT 1`,
		map[string]any{"webLogId": webLogID, "permalink": permalink})
	if err != nil || page == nil {
		return page, err
	}
	page.ID = plainID(page.ID)
	return page, nil
}

type permalinkResult struct {
	Permalink string `json:"permalink"`
}

func (s *pageStore) FindCurrentPermalink(ctx context.Context, webLogID string, priors []string) (string, error) {
	if len(priors) == 0 {
		return "", nil
	}

	result, err := queryOne[permalinkResult](s.db, `
		SELECT permalink FROM page
		WHERE webLogId = $webLogId AND priorPermalinks CONTAINSANY $priors
		LIMIT 1`,
		map[string]any{"webLogId": webLogID, "priors": priors})
	if err != nil || result == nil {
		return "", err
	}
	return result.Permalink, nil
}

func (s *pageStore) FindAllInPageList(ctx context.Context, webLogID string) ([]model.Page, error) {
	return s.queryPages(s.db, `
		SELECT * OMIT revisions, priorPermalinks
		FROM page
		WHERE webLogId = $webLogId AND isInPageList = true
		ORDER BY title COLLATE ASC`,
		map[string]any{"webLogId": webLogID})
}

func (s *pageStore) FindFullByWebLog(ctx context.Context, webLogID string) ([]model.Page, error) {
	return s.queryPages(s.db, `
		SELECT * FROM page
		WHERE webLogId = $webLogId
		ORDER BY title COLLATE ASC`,
		map[string]any{"webLogId": webLogID})
}

func (s *pageStore) FindPage(ctx context.Context, webLogID string, pageNbr, pageSize int) ([]model.Page, error) {
	offset, limit := store.PageOffset(pageNbr, pageSize)
	return s.queryPages(s.db, `
		SELECT * OMIT revisions, priorPermalinks
		FROM page
		WHERE webLogId = $webLogId
		ORDER BY title COLLATE ASC
		LIMIT $limit START $start`,
		map[string]any{"webLogId": webLogID, "limit": limit, "start": offset})
}

func (s *pageStore) Update(ctx context.Context, page *model.Page) error {
	return upsert(s.db, "page", page.ID, utcPage(page))
}

func (s *pageStore) Restore(ctx context.Context, pages []model.Page) error {
	for i := range pages {
		if err := upsert(s.db, "page", pages[i].ID, utcPage(&pages[i])); err != nil {
			return err
		}
	}
	return nil
}

func (s *pageStore) queryPages(db *surrealdb.DB, query string, vars map[string]any) ([]model.Page, error) {
	pages, err := queryAll[model.Page](db, query, vars)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		pages[i].ID = plainID(pages[i].ID)
	}
	return pages, nil
}
