package postgres

import (
	"context"
	"database/sql"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

type webLogStore struct {
	db *sql.DB
}

const webLogFields = `id, name, subtitle, default_page, posts_per_page, theme_id, url_base, time_zone, rss, redirect_rules, uploads`

func (s *webLogStore) Add(ctx context.Context, webLog *model.WebLog) error {
	query := `
		INSERT INTO web_log (` + webLogFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	args, err := webLogArgs(webLog)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *webLogStore) All(ctx context.Context) ([]model.WebLog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+webLogFields+` FROM web_log`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webLogs []model.WebLog
	for rows.Next() {
		webLog, err := scanWebLog(rows)
		if err != nil {
			return nil, err
		}
		webLogs = append(webLogs, *webLog)
	}

	return webLogs, rows.Err()
}

func (s *webLogStore) FindByID(ctx context.Context, id string) (*model.WebLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+webLogFields+` FROM web_log WHERE id = $1`, id)
	return nilOnNoRows(scanWebLog(row))
}

func (s *webLogStore) FindByHost(ctx context.Context, urlBase string) (*model.WebLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+webLogFields+` FROM web_log WHERE url_base = $1`, urlBase)
	return nilOnNoRows(scanWebLog(row))
}

func (s *webLogStore) Update(ctx context.Context, webLog *model.WebLog) error {
	query := `
		UPDATE web_log
		SET name = $1, subtitle = $2, default_page = $3, posts_per_page = $4, theme_id = $5,
		    url_base = $6, time_zone = $7, rss = $8, redirect_rules = $9, uploads = $10
		WHERE id = $11`

	args, err := webLogArgs(webLog)
	if err != nil {
		return err
	}
	// id moves from first position to the WHERE clause
	args = append(args[1:], webLog.ID)

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *webLogStore) Save(ctx context.Context, webLog *model.WebLog) error {
	query := `
		INSERT INTO web_log (` + webLogFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET name = excluded.name, subtitle = excluded.subtitle,
		    default_page = excluded.default_page, posts_per_page = excluded.posts_per_page,
		    theme_id = excluded.theme_id, url_base = excluded.url_base,
		    time_zone = excluded.time_zone, rss = excluded.rss,
		    redirect_rules = excluded.redirect_rules, uploads = excluded.uploads`

	args, err := webLogArgs(webLog)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func webLogArgs(webLog *model.WebLog) ([]any, error) {
	rss, err := toJSON(webLog.RSS)
	if err != nil {
		return nil, err
	}
	rules, err := toJSON(webLog.RedirectRules)
	if err != nil {
		return nil, err
	}

	return []any{
		webLog.ID, webLog.Name, webLog.Subtitle, webLog.DefaultPage, webLog.PostsPerPage,
		webLog.ThemeID, webLog.URLBase, webLog.TimeZone, rss, rules, string(webLog.Uploads),
	}, nil
}

func scanWebLog(row rowScanner) (*model.WebLog, error) {
	var (
		webLog     model.WebLog
		rss, rules []byte
		uploads    string
	)
	err := row.Scan(&webLog.ID, &webLog.Name, &webLog.Subtitle, &webLog.DefaultPage,
		&webLog.PostsPerPage, &webLog.ThemeID, &webLog.URLBase, &webLog.TimeZone,
		&rss, &rules, &uploads)
	if err != nil {
		return nil, err
	}

	if err := fromJSON(rss, &webLog.RSS); err != nil {
		return nil, err
	}
	if err := fromJSON(rules, &webLog.RedirectRules); err != nil {
		return nil, err
	}
	webLog.Uploads = model.UploadDestination(uploads)

	return &webLog, nil
}
