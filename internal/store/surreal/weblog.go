package surreal

import (
	"context"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

type webLogStore struct {
	db *surrealdb.DB
}

func (s *webLogStore) Add(ctx context.Context, webLog *model.WebLog) error {
	return upsert(s.db, "web_log", webLog.ID, webLog)
}

func (s *webLogStore) All(ctx context.Context) ([]model.WebLog, error) {
	webLogs, err := queryAll[model.WebLog](s.db, `SELECT * FROM web_log`, nil)
	if err != nil {
		return nil, err
	}
	for i := range webLogs {
		webLogs[i].ID = plainID(webLogs[i].ID)
	}
	return webLogs, nil
}

func (s *webLogStore) FindByID(ctx context.Context, id string) (*model.WebLog, error) {
	webLog, err := queryOne[model.WebLog](s.db,
		`SELECT * FROM type::thing('web_log', $id)`, map[string]any{"id": id})
	if err != nil || webLog == nil {
		return webLog, err
	}
	webLog.ID = plainID(webLog.ID)
	return webLog, nil
}

func (s *webLogStore) FindByHost(ctx context.Context, urlBase string) (*model.WebLog, error) {
	webLog, err := queryOne[model.WebLog](s.db,
		`SELECT * FROM web_log WHERE urlBase = $urlBase LIMIT 1`,
		map[string]any{"urlBase": urlBase})
	if err != nil || webLog == nil {
		return webLog, err
	}
	webLog.ID = plainID(webLog.ID)
	return webLog, nil
}

func (s *webLogStore) Update(ctx context.Context, webLog *model.WebLog) error {
	return upsert(s.db, "web_log", webLog.ID, webLog)
}

func (s *webLogStore) Save(ctx context.Context, webLog *model.WebLog) error {
	return upsert(s.db, "web_log", webLog.ID, webLog)
}
