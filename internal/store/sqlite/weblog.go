package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
)

type webLogStore struct {
	db *sql.DB
}

const webLogFields = `id, name, subtitle, default_page, posts_per_page, theme_id, url_base, time_zone, rss, redirect_rules, uploads`

func (s *webLogStore) Add(ctx context.Context, webLog *model.WebLog) error {
	query := `
		INSERT INTO web_log (` + webLogFields + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

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
	row := s.db.QueryRowContext(ctx, `SELECT `+webLogFields+` FROM web_log WHERE id = ?`, id)
	return nilOnNoRows(scanWebLog(row))
}

func (s *webLogStore) FindByHost(ctx context.Context, urlBase string) (*model.WebLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+webLogFields+` FROM web_log WHERE url_base = ?`, urlBase)
	return nilOnNoRows(scanWebLog(row))
}

func (s *webLogStore) Update(ctx context.Context, webLog *model.WebLog) error {
	query := `
		UPDATE web_log
		SET name = ?, subtitle = ?, default_page = ?, posts_per_page = ?, theme_id = ?,
		    url_base = ?, time_zone = ?, rss = ?, redirect_rules = ?, uploads = ?
		WHERE id = ?`

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWebLog(row rowScanner) (*model.WebLog, error) {
	var (
		webLog     model.WebLog
		rss, rules string
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

// nilOnNoRows turns the driver's no-rows error into the contract's nil result.
func nilOnNoRows[T any](v *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}
