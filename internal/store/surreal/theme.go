package surreal

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type themeStore struct {
	db *surrealdb.DB
}

func (s *themeStore) All(ctx context.Context) ([]model.Theme, error) {
	themes, err := queryAll[model.Theme](s.db,
		`SELECT * OMIT templates FROM theme ORDER BY id`, nil)
	if err != nil {
		return nil, err
	}
	for i := range themes {
		themes[i].ID = plainID(themes[i].ID)
	}
	return themes, nil
}

func (s *themeStore) Exists(ctx context.Context, id string) (bool, error) {
	count, err := queryCount(s.db,
		`SELECT count() FROM type::thing('theme', $id) GROUP ALL`,
		map[string]any{"id": id})
	return count > 0, err
}

func (s *themeStore) FindByID(ctx context.Context, id string) (*model.Theme, error) {
	theme, err := queryOne[model.Theme](s.db,
		`SELECT * FROM type::thing('theme', $id)`, map[string]any{"id": id})
	if err != nil || theme == nil {
		return theme, err
	}
	theme.ID = plainID(theme.ID)
	return theme, nil
}

// Save replaces the theme document wholesale, templates included.
func (s *themeStore) Save(ctx context.Context, theme *model.Theme) error {
	return upsert(s.db, "theme", theme.ID, theme)
}

// Delete removes the theme and its assets together.
func (s *themeStore) Delete(ctx context.Context, id string) (store.DeleteOutcome, error) {
	steps, err := querySteps(s.db, `
		BEGIN TRANSACTION;
		DELETE theme_asset WHERE themeId = $id RETURN NONE;
		DELETE type::thing('theme', $id) RETURN BEFORE;
		COMMIT TRANSACTION;`,
		map[string]any{"id": id})
	if err != nil {
		return store.NotDeleted, err
	}

	n, err := stepLen(steps, 1)
	if err != nil {
		return store.NotDeleted, err
	}
	if n == 0 {
		return store.NotDeleted, nil
	}
	return store.Deleted, nil
}

type themeAssetStore struct {
	db *surrealdb.DB
}

// assetKey is the deterministic record id for a theme asset.
func assetKey(themeID, path string) string {
	return themeID + "/" + path
}

func (s *themeAssetStore) All(ctx context.Context) ([]model.ThemeAsset, error) {
	return queryAll[model.ThemeAsset](s.db,
		`SELECT * OMIT data FROM theme_asset ORDER BY themeId, path`, nil)
}

func (s *themeAssetStore) FindByPath(ctx context.Context, themeID, path string) (*model.ThemeAsset, error) {
	return queryOne[model.ThemeAsset](s.db,
		`SELECT * FROM type::thing('theme_asset', $key)`,
		map[string]any{"key": assetKey(themeID, path)})
}

func (s *themeAssetStore) FindByTheme(ctx context.Context, themeID string) ([]model.ThemeAsset, error) {
	return queryAll[model.ThemeAsset](s.db,
		`SELECT * OMIT data FROM theme_asset WHERE themeId = $themeId ORDER BY path`,
		map[string]any{"themeId": themeID})
}

func (s *themeAssetStore) FindByThemeWithData(ctx context.Context, themeID string) ([]model.ThemeAsset, error) {
	return queryAll[model.ThemeAsset](s.db,
		`SELECT * FROM theme_asset WHERE themeId = $themeId ORDER BY path`,
		map[string]any{"themeId": themeID})
}

func (s *themeAssetStore) Save(ctx context.Context, asset *model.ThemeAsset) error {
	a := *asset
	a.UpdatedOn = a.UpdatedOn.UTC()
	return upsert(s.db, "theme_asset", assetKey(a.ThemeID, a.Path), &a)
}

func (s *themeAssetStore) DeleteByTheme(ctx context.Context, themeID string) error {
	_, err := s.db.Query(
		`DELETE theme_asset WHERE themeId = $themeId`,
		map[string]any{"themeId": themeID})
	return err
}
