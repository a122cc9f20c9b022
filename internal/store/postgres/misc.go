package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type tagMapStore struct {
	db *sql.DB
}

const tagMapFields = `id, web_log_id, tag, url_value`

func (s *tagMapStore) FindAll(ctx context.Context, webLogID string) ([]model.TagMap, error) {
	return s.queryTagMaps(ctx,
		`SELECT `+tagMapFields+` FROM tag_map WHERE web_log_id = $1 ORDER BY tag`, webLogID)
}

func (s *tagMapStore) FindByID(ctx context.Context, webLogID, id string) (*model.TagMap, error) {
	var tagMap model.TagMap
	err := s.db.QueryRowContext(ctx,
		`SELECT `+tagMapFields+` FROM tag_map WHERE web_log_id = $1 AND id = $2`, webLogID, id).
		Scan(&tagMap.ID, &tagMap.WebLogID, &tagMap.Tag, &tagMap.URLValue)
	return nilOnNoRows(&tagMap, err)
}

func (s *tagMapStore) FindByURLValue(ctx context.Context, webLogID, urlValue string) (*model.TagMap, error) {
	var tagMap model.TagMap
	err := s.db.QueryRowContext(ctx,
		`SELECT `+tagMapFields+` FROM tag_map WHERE web_log_id = $1 AND url_value = $2`, webLogID, urlValue).
		Scan(&tagMap.ID, &tagMap.WebLogID, &tagMap.Tag, &tagMap.URLValue)
	return nilOnNoRows(&tagMap, err)
}

func (s *tagMapStore) FindMappingForTags(ctx context.Context, webLogID string, tags []string) ([]model.TagMap, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	return s.queryTagMaps(ctx, `
		SELECT `+tagMapFields+`
		FROM tag_map
		WHERE web_log_id = $1 AND tag = ANY ($2)
		ORDER BY tag`,
		webLogID, pq.Array(tags))
}

func (s *tagMapStore) Save(ctx context.Context, tagMap *model.TagMap) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_map (`+tagMapFields+`)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET web_log_id = excluded.web_log_id, tag = excluded.tag, url_value = excluded.url_value`,
		tagMap.ID, tagMap.WebLogID, tagMap.Tag, tagMap.URLValue)
	return err
}

func (s *tagMapStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tag_map WHERE web_log_id = $1 AND id = $2`, webLogID, id)
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

func (s *tagMapStore) Restore(ctx context.Context, tagMaps []model.TagMap) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, tagMap := range tagMaps {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO tag_map (`+tagMapFields+`)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE
				SET web_log_id = excluded.web_log_id, tag = excluded.tag, url_value = excluded.url_value`,
				tagMap.ID, tagMap.WebLogID, tagMap.Tag, tagMap.URLValue); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *tagMapStore) queryTagMaps(ctx context.Context, query string, args ...any) ([]model.TagMap, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tagMaps []model.TagMap
	for rows.Next() {
		var tagMap model.TagMap
		if err := rows.Scan(&tagMap.ID, &tagMap.WebLogID, &tagMap.Tag, &tagMap.URLValue); err != nil {
			return nil, err
		}
		tagMaps = append(tagMaps, tagMap)
	}

	return tagMaps, rows.Err()
}

type uploadStore struct {
	db *sql.DB
}

func (s *uploadStore) Add(ctx context.Context, upload *model.Upload) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO upload (id, web_log_id, path, updated_on, data)
		VALUES ($1, $2, $3, $4, $5)`,
		upload.ID, upload.WebLogID, upload.Path, upload.UpdatedOn, upload.Data)
	return err
}

func (s *uploadStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM upload WHERE web_log_id = $1 AND id = $2`, webLogID, id)
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

func (s *uploadStore) FindByPath(ctx context.Context, webLogID, path string) (*model.Upload, error) {
	var upload model.Upload
	err := s.db.QueryRowContext(ctx, `
		SELECT id, web_log_id, path, updated_on, data
		FROM upload
		WHERE web_log_id = $1 AND path = $2`, webLogID, path).
		Scan(&upload.ID, &upload.WebLogID, &upload.Path, &upload.UpdatedOn, &upload.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	upload.UpdatedOn = upload.UpdatedOn.UTC()
	return &upload, nil
}

func (s *uploadStore) FindByWebLog(ctx context.Context, webLogID string) ([]model.Upload, error) {
	return s.queryUploads(ctx,
		`SELECT id, web_log_id, path, updated_on FROM upload WHERE web_log_id = $1 ORDER BY path`,
		false, webLogID)
}

func (s *uploadStore) FindByWebLogWithData(ctx context.Context, webLogID string) ([]model.Upload, error) {
	return s.queryUploads(ctx,
		`SELECT id, web_log_id, path, updated_on, data FROM upload WHERE web_log_id = $1 ORDER BY path`,
		true, webLogID)
}

func (s *uploadStore) Restore(ctx context.Context, uploads []model.Upload) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, upload := range uploads {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO upload (id, web_log_id, path, updated_on, data)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE
				SET web_log_id = excluded.web_log_id, path = excluded.path,
				    updated_on = excluded.updated_on, data = excluded.data`,
				upload.ID, upload.WebLogID, upload.Path, upload.UpdatedOn, upload.Data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *uploadStore) queryUploads(ctx context.Context, query string, withData bool, args ...any) ([]model.Upload, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []model.Upload
	for rows.Next() {
		var upload model.Upload
		if withData {
			err = rows.Scan(&upload.ID, &upload.WebLogID, &upload.Path, &upload.UpdatedOn, &upload.Data)
		} else {
			err = rows.Scan(&upload.ID, &upload.WebLogID, &upload.Path, &upload.UpdatedOn)
		}
		if err != nil {
			return nil, err
		}
		upload.UpdatedOn = upload.UpdatedOn.UTC()
		uploads = append(uploads, upload)
	}

	return uploads, rows.Err()
}
