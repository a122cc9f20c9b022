package surreal

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type categoryStore struct {
	db *surrealdb.DB
}

func (s *categoryStore) Add(ctx context.Context, cat *model.Category) error {
	return upsert(s.db, "category", cat.ID, cat)
}

func (s *categoryStore) CountAll(ctx context.Context, webLogID string) (int, error) {
	return queryCount(s.db,
		`SELECT count() FROM category WHERE webLogId = $webLogId GROUP ALL`,
		map[string]any{"webLogId": webLogID})
}

func (s *categoryStore) CountTopLevel(ctx context.Context, webLogID string) (int, error) {
	return queryCount(s.db,
		`SELECT count() FROM category WHERE webLogId = $webLogId AND (parentId = NONE OR parentId = '') GROUP ALL`,
		map[string]any{"webLogId": webLogID})
}

func (s *categoryStore) FindAllByWebLog(ctx context.Context, webLogID string) ([]model.Category, error) {
	cats, err := queryAll[model.Category](s.db,
		`SELECT * FROM category WHERE webLogId = $webLogId ORDER BY name COLLATE ASC`,
		map[string]any{"webLogId": webLogID})
	if err != nil {
		return nil, err
	}
	for i := range cats {
		cats[i].ID = plainID(cats[i].ID)
	}
	return cats, nil
}

func (s *categoryStore) FindByID(ctx context.Context, webLogID, id string) (*model.Category, error) {
	cat, err := queryOne[model.Category](s.db,
		`SELECT * FROM type::thing('category', $id) WHERE webLogId = $webLogId`,
		map[string]any{"id": id, "webLogId": webLogID})
	if err != nil || cat == nil {
		return cat, err
	}
	cat.ID = plainID(cat.ID)
	return cat, nil
}

func (s *categoryStore) Update(ctx context.Context, cat *model.Category) error {
	return upsert(s.db, "category", cat.ID, cat)
}

// Delete reassigns children to the deleted category's parent and strips the
// category from every post referencing it. The reassignment, the post
// cleanup, and the delete run as one transaction.
func (s *categoryStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	cat, err := s.FindByID(ctx, webLogID, id)
	if err != nil {
		return store.NotDeleted, err
	}
	if cat == nil {
		return store.NotDeleted, nil
	}

	steps, err := querySteps(s.db, `
		BEGIN TRANSACTION;
		UPDATE category SET parentId = $parentId WHERE webLogId = $webLogId AND parentId = $id RETURN AFTER;
		UPDATE post SET categoryIds -= $id WHERE webLogId = $webLogId AND categoryIds CONTAINS $id RETURN NONE;
		DELETE type::thing('category', $id) RETURN BEFORE;
		COMMIT TRANSACTION;`,
		map[string]any{"id": id, "webLogId": webLogID, "parentId": cat.ParentID})
	if err != nil {
		return store.NotDeleted, err
	}

	children, err := stepLen(steps, 0)
	if err != nil {
		return store.NotDeleted, err
	}
	if children > 0 {
		return store.DeletedWithChildrenReassigned, nil
	}
	return store.Deleted, nil
}

func (s *categoryStore) Restore(ctx context.Context, cats []model.Category) error {
	for i := range cats {
		if err := upsert(s.db, "category", cats[i].ID, &cats[i]); err != nil {
			return err
		}
	}
	return nil
}
