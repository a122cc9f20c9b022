package surreal

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type tagMapStore struct {
	db *surrealdb.DB
}

func (s *tagMapStore) FindAll(ctx context.Context, webLogID string) ([]model.TagMap, error) {
	return s.queryTagMaps(
		`SELECT * FROM tag_map WHERE webLogId = $webLogId ORDER BY tag`,
		map[string]any{"webLogId": webLogID})
}

func (s *tagMapStore) FindByID(ctx context.Context, webLogID, id string) (*model.TagMap, error) {
	tagMap, err := queryOne[model.TagMap](s.db,
		`SELECT * FROM type::thing('tag_map', $id) WHERE webLogId = $webLogId`,
		map[string]any{"id": id, "webLogId": webLogID})
	if err != nil || tagMap == nil {
		return tagMap, err
	}
	tagMap.ID = plainID(tagMap.ID)
	return tagMap, nil
}

func (s *tagMapStore) FindByURLValue(ctx context.Context, webLogID, urlValue string) (*model.TagMap, error) {
	tagMap, err := queryOne[model.TagMap](s.db,
		`SELECT * FROM tag_map WHERE webLogId = $webLogId AND urlValue = $urlValue LIMIT 1`,
		map[string]any{"webLogId": webLogID, "urlValue": urlValue})
	if err != nil || tagMap == nil {
		return tagMap, err
	}
	tagMap.ID = plainID(tagMap.ID)
	return tagMap, nil
}

func (s *tagMapStore) FindMappingForTags(ctx context.Context, webLogID string, tags []string) ([]model.TagMap, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	return s.queryTagMaps(
		`SELECT * FROM tag_map WHERE webLogId = $webLogId AND tag INSIDE $tags ORDER BY tag`,
		map[string]any{"webLogId": webLogID, "tags": tags})
}

func (s *tagMapStore) Save(ctx context.Context, tagMap *model.TagMap) error {
	return upsert(s.db, "tag_map", tagMap.ID, tagMap)
}

func (s *tagMapStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	return deleteScoped(s.db, "tag_map", webLogID, id)
}

func (s *tagMapStore) Restore(ctx context.Context, tagMaps []model.TagMap) error {
	for i := range tagMaps {
		if err := upsert(s.db, "tag_map", tagMaps[i].ID, &tagMaps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *tagMapStore) queryTagMaps(query string, vars map[string]any) ([]model.TagMap, error) {
	tagMaps, err := queryAll[model.TagMap](s.db, query, vars)
	if err != nil {
		return nil, err
	}
	for i := range tagMaps {
		tagMaps[i].ID = plainID(tagMaps[i].ID)
	}
	return tagMaps, nil
}

type uploadStore struct {
	db *surrealdb.DB
}

// utcUpload copies the upload with its instant normalized to UTC.
func utcUpload(upload *model.Upload) *model.Upload {
	u := *upload
	u.UpdatedOn = u.UpdatedOn.UTC()
	return &u
}

func (s *uploadStore) Add(ctx context.Context, upload *model.Upload) error {
	return upsert(s.db, "upload", upload.ID, utcUpload(upload))
}

func (s *uploadStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	return deleteScoped(s.db, "upload", webLogID, id)
}

func (s *uploadStore) FindByPath(ctx context.Context, webLogID, path string) (*model.Upload, error) {
	upload, err := queryOne[model.Upload](s.db,
		`SELECT * FROM upload WHERE webLogId = $webLogId AND path = $path LIMIT 1`,
		map[string]any{"webLogId": webLogID, "path": path})
	if err != nil || upload == nil {
		return upload, err
	}
	upload.ID = plainID(upload.ID)
	return upload, nil
}

func (s *uploadStore) FindByWebLog(ctx context.Context, webLogID string) ([]model.Upload, error) {
	return s.queryUploads(
		`SELECT * OMIT data FROM upload WHERE webLogId = $webLogId ORDER BY path`,
		map[string]any{"webLogId": webLogID})
}

func (s *uploadStore) FindByWebLogWithData(ctx context.Context, webLogID string) ([]model.Upload, error) {
	return s.queryUploads(
		`SELECT * FROM upload WHERE webLogId = $webLogId ORDER BY path`,
		map[string]any{"webLogId": webLogID})
}

func (s *uploadStore) Restore(ctx context.Context, uploads []model.Upload) error {
	for i := range uploads {
		if err := upsert(s.db, "upload", uploads[i].ID, utcUpload(&uploads[i])); err != nil {
			return err
		}
	}
	return nil
}

func (s *uploadStore) queryUploads(query string, vars map[string]any) ([]model.Upload, error) {
	uploads, err := queryAll[model.Upload](s.db, query, vars)
	if err != nil {
		return nil, err
	}
	for i := range uploads {
		uploads[i].ID = plainID(uploads[i].ID)
	}
	return uploads, nil
}
