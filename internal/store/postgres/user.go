package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type userStore struct {
	db *sql.DB
}

const userFields = `id, web_log_id, email, first_name, last_name, preferred_name, password_hash, access_level, created_on, last_seen_on`

func (s *userStore) Add(ctx context.Context, user *model.WebLogUser) error {
	query := `
		INSERT INTO web_log_user (` + userFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query, userArgs(user)...)
	return err
}

func (s *userStore) FindAll(ctx context.Context, webLogID string) ([]model.WebLogUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+userFields+`
		FROM web_log_user
		WHERE web_log_id = $1
		ORDER BY lower(preferred_name)`, webLogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.WebLogUser
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (s *userStore) FindByEmail(ctx context.Context, webLogID, email string) (*model.WebLogUser, error) {
	return nilOnNoRows(scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userFields+` FROM web_log_user WHERE web_log_id = $1 AND email = $2`, webLogID, email)))
}

func (s *userStore) FindByID(ctx context.Context, webLogID, id string) (*model.WebLogUser, error) {
	return nilOnNoRows(scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userFields+` FROM web_log_user WHERE web_log_id = $1 AND id = $2`, webLogID, id)))
}

func (s *userStore) SetLastSeen(ctx context.Context, webLogID, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE web_log_user SET last_seen_on = $1 WHERE web_log_id = $2 AND id = $3`,
		at, webLogID, id)
	return err
}

func (s *userStore) Update(ctx context.Context, user *model.WebLogUser) error {
	query := `
		UPDATE web_log_user
		SET email = $1, first_name = $2, last_name = $3, preferred_name = $4,
		    password_hash = $5, access_level = $6, created_on = $7, last_seen_on = $8
		WHERE web_log_id = $9 AND id = $10`

	args := userArgs(user)
	// drop id and web_log_id from the front; they move to the WHERE clause
	args = append(args[2:], user.WebLogID, user.ID)

	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Delete refuses to remove a user who still authors content. The pre-check
// runs in the same transaction as the delete so the answer cannot go stale.
func (s *userStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	outcome := store.NotDeleted

	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		var authored bool
		err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM page WHERE web_log_id = $1 AND author_id = $2)
			    OR EXISTS (SELECT 1 FROM post WHERE web_log_id = $3 AND author_id = $4)`,
			webLogID, id, webLogID, id).Scan(&authored)
		if err != nil {
			return err
		}
		if authored {
			return store.ErrUserHasContent
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM web_log_user WHERE web_log_id = $1 AND id = $2`, webLogID, id)
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

func (s *userStore) Restore(ctx context.Context, users []model.WebLogUser) error {
	query := `
		INSERT INTO web_log_user (` + userFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET web_log_id = excluded.web_log_id, email = excluded.email,
		    first_name = excluded.first_name, last_name = excluded.last_name,
		    preferred_name = excluded.preferred_name, password_hash = excluded.password_hash,
		    access_level = excluded.access_level, created_on = excluded.created_on,
		    last_seen_on = excluded.last_seen_on`

	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range users {
			if _, err := tx.ExecContext(ctx, query, userArgs(&users[i])...); err != nil {
				return err
			}
		}
		return nil
	})
}

func userArgs(user *model.WebLogUser) []any {
	return []any{
		user.ID, user.WebLogID, user.Email, user.FirstName, user.LastName,
		user.PreferredName, user.PasswordHash, string(user.AccessLevel),
		user.CreatedOn, user.LastSeenOn,
	}
}

func scanUser(row rowScanner) (*model.WebLogUser, error) {
	var (
		user        model.WebLogUser
		accessLevel string
		lastSeenOn  sql.NullTime
	)
	err := row.Scan(&user.ID, &user.WebLogID, &user.Email, &user.FirstName, &user.LastName,
		&user.PreferredName, &user.PasswordHash, &accessLevel, &user.CreatedOn, &lastSeenOn)
	if err != nil {
		return nil, err
	}

	user.AccessLevel = model.AccessLevel(accessLevel)
	user.CreatedOn = user.CreatedOn.UTC()
	if lastSeenOn.Valid {
		t := lastSeenOn.Time.UTC()
		user.LastSeenOn = &t
	}

	return &user, nil
}
