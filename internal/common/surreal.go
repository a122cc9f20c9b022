package common

import (
	"github.com/surrealdb/surrealdb.go"
)

// NewSurrealDB opens the single long-lived SurrealDB websocket connection,
// signs in, and selects the namespace and database. The connection is
// thread-safe and shared for the process lifetime; individual operations
// are independent queries that may interleave arbitrarily.
func NewSurrealDB(url, user, password, namespace, database string) (*surrealdb.DB, error) {
	db, err := surrealdb.New(url)
	if err != nil {
		return nil, err
	}

	if _, err := db.Signin(map[string]interface{}{
		"user": user,
		"pass": password,
	}); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Use(namespace, database); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
