package sqlite

import (
	"context"
	"database/sql"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type themeStore struct {
	db *sql.DB
}

func (s *themeStore) All(ctx context.Context) ([]model.Theme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, version FROM theme ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var themes []model.Theme
	for rows.Next() {
		var theme model.Theme
		if err := rows.Scan(&theme.ID, &theme.Name, &theme.Version); err != nil {
			return nil, err
		}
		themes = append(themes, theme)
	}

	return themes, rows.Err()
}

func (s *themeStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM theme WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func (s *themeStore) FindByID(ctx context.Context, id string) (*model.Theme, error) {
	var theme model.Theme
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, version FROM theme WHERE id = ?`, id).
		Scan(&theme.ID, &theme.Name, &theme.Version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, template_text FROM theme_template WHERE theme_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tmpl model.ThemeTemplate
		if err := rows.Scan(&tmpl.Name, &tmpl.Text); err != nil {
			return nil, err
		}
		theme.Templates = append(theme.Templates, tmpl)
	}

	return &theme, rows.Err()
}

// Save upserts the theme row and replaces its template set. Theme installs
// replace every template, so there is nothing to gain from diffing here.
func (s *themeStore) Save(ctx context.Context, theme *model.Theme) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO theme (id, name, version)
			VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, version = excluded.version`,
			theme.ID, theme.Name, theme.Version)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM theme_template WHERE theme_id = ?`, theme.ID); err != nil {
			return err
		}
		for _, tmpl := range theme.Templates {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO theme_template (theme_id, name, template_text)
				VALUES (?, ?, ?)`,
				theme.ID, tmpl.Name, tmpl.Text); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the theme, its templates, and its assets together.
func (s *themeStore) Delete(ctx context.Context, id string) (store.DeleteOutcome, error) {
	outcome := store.NotDeleted

	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM theme_asset WHERE theme_id = ?`, id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM theme WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows > 0 {
			outcome = store.Deleted
		}
		return nil
	})

	return outcome, err
}

type themeAssetStore struct {
	db *sql.DB
}

func (s *themeAssetStore) All(ctx context.Context) ([]model.ThemeAsset, error) {
	return s.queryAssets(ctx,
		`SELECT theme_id, path, updated_on FROM theme_asset ORDER BY theme_id, path`, false)
}

func (s *themeAssetStore) FindByPath(ctx context.Context, themeID, path string) (*model.ThemeAsset, error) {
	var (
		asset     model.ThemeAsset
		updatedOn string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT theme_id, path, updated_on, data
		FROM theme_asset
		WHERE theme_id = ? AND path = ?`, themeID, path).
		Scan(&asset.ThemeID, &asset.Path, &updatedOn, &asset.Data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if asset.UpdatedOn, err = parseTime(updatedOn); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *themeAssetStore) FindByTheme(ctx context.Context, themeID string) ([]model.ThemeAsset, error) {
	return s.queryAssets(ctx,
		`SELECT theme_id, path, updated_on FROM theme_asset WHERE theme_id = ? ORDER BY path`,
		false, themeID)
}

func (s *themeAssetStore) FindByThemeWithData(ctx context.Context, themeID string) ([]model.ThemeAsset, error) {
	return s.queryAssets(ctx,
		`SELECT theme_id, path, updated_on, data FROM theme_asset WHERE theme_id = ? ORDER BY path`,
		true, themeID)
}

func (s *themeAssetStore) Save(ctx context.Context, asset *model.ThemeAsset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO theme_asset (theme_id, path, updated_on, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (theme_id, path) DO UPDATE
		SET updated_on = excluded.updated_on, data = excluded.data`,
		asset.ThemeID, asset.Path, fmtTime(asset.UpdatedOn), asset.Data)
	return err
}

func (s *themeAssetStore) DeleteByTheme(ctx context.Context, themeID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM theme_asset WHERE theme_id = ?`, themeID)
	return err
}

func (s *themeAssetStore) queryAssets(ctx context.Context, query string, withData bool, args ...any) ([]model.ThemeAsset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []model.ThemeAsset
	for rows.Next() {
		var (
			asset     model.ThemeAsset
			updatedOn string
		)
		if withData {
			err = rows.Scan(&asset.ThemeID, &asset.Path, &updatedOn, &asset.Data)
		} else {
			err = rows.Scan(&asset.ThemeID, &asset.Path, &updatedOn)
		}
		if err != nil {
			return nil, err
		}
		if asset.UpdatedOn, err = parseTime(updatedOn); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}
