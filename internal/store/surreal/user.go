package surreal

import (
	"context"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bit-badger/myWebLog-sub005/internal/model"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type userStore struct {
	db *surrealdb.DB
}

// userDoc is the persisted shape of a user. The password hash is excluded
// from the model's JSON form, so the document carries it explicitly.
type userDoc struct {
	model.WebLogUser
	PasswordHash string `json:"passwordHash"`
}

func docForUser(user *model.WebLogUser) *userDoc {
	doc := userDoc{WebLogUser: *user, PasswordHash: user.PasswordHash}
	doc.CreatedOn = doc.CreatedOn.UTC()
	if doc.LastSeenOn != nil {
		lastSeen := doc.LastSeenOn.UTC()
		doc.LastSeenOn = &lastSeen
	}
	return &doc
}

func (d *userDoc) user() *model.WebLogUser {
	user := d.WebLogUser
	user.PasswordHash = d.PasswordHash
	user.ID = plainID(user.ID)
	return &user
}

func (s *userStore) Add(ctx context.Context, user *model.WebLogUser) error {
	return upsert(s.db, "web_log_user", user.ID, docForUser(user))
}

func (s *userStore) FindAll(ctx context.Context, webLogID string) ([]model.WebLogUser, error) {
	docs, err := queryAll[userDoc](s.db, `
		SELECT * FROM web_log_user
		WHERE webLogId = $webLogId
		ORDER BY preferredName COLLATE ASC`,
		map[string]any{"webLogId": webLogID})
	if err != nil {
		return nil, err
	}

	users := make([]model.WebLogUser, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].user())
	}
	return users, nil
}

func (s *userStore) FindByEmail(ctx context.Context, webLogID, email string) (*model.WebLogUser, error) {
	doc, err := queryOne[userDoc](s.db,
		`SELECT * FROM web_log_user WHERE webLogId = $webLogId AND email = $email LIMIT 1`,
		map[string]any{"webLogId": webLogID, "email": email})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.user(), nil
}

func (s *userStore) FindByID(ctx context.Context, webLogID, id string) (*model.WebLogUser, error) {
	doc, err := queryOne[userDoc](s.db,
		`SELECT * FROM type::thing('web_log_user', $id) WHERE webLogId = $webLogId`,
		map[string]any{"id": id, "webLogId": webLogID})
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.user(), nil
}

func (s *userStore) SetLastSeen(ctx context.Context, webLogID, id string, at time.Time) error {
	_, err := s.db.Query(
		`UPDATE type::thing('web_log_user', $id) SET lastSeenOn = $at WHERE webLogId = $webLogId`,
		map[string]any{"id": id, "webLogId": webLogID, "at": at.UTC().Format(time.RFC3339Nano)})
	return err
}

func (s *userStore) Update(ctx context.Context, user *model.WebLogUser) error {
	return upsert(s.db, "web_log_user", user.ID, docForUser(user))
}

// Delete refuses to remove a user who still authors pages or posts.
func (s *userStore) Delete(ctx context.Context, webLogID, id string) (store.DeleteOutcome, error) {
	steps, err := querySteps(s.db, `
		BEGIN TRANSACTION;
		SELECT count() FROM page WHERE webLogId = $webLogId AND authorId = $id GROUP ALL;
		SELECT count() FROM post WHERE webLogId = $webLogId AND authorId = $id GROUP ALL;
		COMMIT TRANSACTION;`,
		map[string]any{"webLogId": webLogID, "id": id})
	if err != nil {
		return store.NotDeleted, err
	}

	for idx := 0; idx < 2; idx++ {
		n, err := stepLen(steps, idx)
		if err != nil {
			return store.NotDeleted, err
		}
		if n > 0 {
			return store.NotDeleted, store.ErrUserHasContent
		}
	}

	return deleteScoped(s.db, "web_log_user", webLogID, id)
}

func (s *userStore) Restore(ctx context.Context, users []model.WebLogUser) error {
	for i := range users {
		if err := upsert(s.db, "web_log_user", users[i].ID, docForUser(&users[i])); err != nil {
			return err
		}
	}
	return nil
}
