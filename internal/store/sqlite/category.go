package sqlite

import (
	"context"
	"database/sql"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type categoryStore struct {
	db *sql.DB
}

const categoryFields = `id, web_log_id, name, slug, description, parent_id`

func (s *categoryStore) Add(ctx context.Context, cat *model.Category) error {
	query := `
		INSERT INTO category (` + categoryFields + `)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		cat.ID, cat.WebLogID, cat.Name, cat.Slug, cat.Description, cat.ParentID)
	return err
}

func (s *categoryStore) CountAll(ctx context.Context, webLogID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category WHERE web_log_id = ?`, webLogID).Scan(&count)
	return count, err
}

func (s *categoryStore) CountTopLevel(ctx context.Context, webLogID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM category WHERE web_log_id = ? AND parent_id = ''`, webLogID).Scan(&count)
	return count, err
}

func (s *categoryStore) FindAllByWebLog(ctx context.Context, webLogID string) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryFields+` FROM category WHERE web_log_id = ? ORDER BY lower(name)`, webLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.WebLogID, &cat.Name, &cat.Slug, &cat.Description, &cat.ParentID); err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}

	return cats, rows.Err()
}

func (s *categoryStore) FindByID(ctx context.Context, webLogID, id string) (*model.Category, error) {
	var cat model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT `+categoryFields+` FROM category WHERE web_log_id = ? AND id = ?`, webLogID, id).
		Scan(&cat.ID, &cat.WebLogID, &cat.Name, &cat.Slug, &cat.Description, &cat.ParentID)
	return nilOnNoRows(&cat, err)
}

func (s *categoryStore) Update(ctx context.Context, cat *model.Category) error {
	query := `
		UPDATE category
		SET name = ?, slug = ?, description = ?, parent_id = ?
		WHERE web_log_id = ? AND id = ?`

	_, err := s.db.ExecContext(ctx, query,
		cat.Name, cat.Slug, cat.Description, cat.ParentID, cat.WebLogID, cat.ID)
	return err
}

// Delete reassigns the category's children to its own parent and removes the
// category from every post referencing it, all in one transaction.
func (s *categoryStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	outcome := store.NotDeleted

	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		var parentID string
		err := tx.QueryRowContext(ctx,
			`SELECT parent_id FROM category WHERE web_log_id = ? AND id = ?`, webLogID, id).Scan(&parentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE category SET parent_id = ? WHERE web_log_id = ? AND parent_id = ?`,
			parentID, webLogID, id)
		if err != nil {
			return err
		}
		children, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM post_category WHERE category_id = ?`, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM category WHERE web_log_id = ? AND id = ?`, webLogID, id); err != nil {
			return err
		}

		if children > 0 {
			outcome = store.DeletedWithChildrenReassigned
		} else {
			outcome = store.Deleted
		}
		return nil
	})

	return outcome, err
}

func (s *categoryStore) Restore(ctx context.Context, cats []model.Category) error {
	query := `
		INSERT INTO category (` + categoryFields + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET web_log_id = excluded.web_log_id, name = excluded.name, slug = excluded.slug,
		    description = excluded.description, parent_id = excluded.parent_id`

	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, cat := range cats {
			if _, err := tx.ExecContext(ctx, query,
				cat.ID, cat.WebLogID, cat.Name, cat.Slug, cat.Description, cat.ParentID); err != nil {
				return err
			}
		}
		return nil
	})
}
