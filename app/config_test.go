package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, data string) string {
	t.Helper()

	tempFile, err := os.CreateTemp("", "config-*.env")
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(tempFile.Name()) })

	_, err = tempFile.WriteString(data)
	require.NoError(t, err)
	require.NoError(t, tempFile.Close())

	return tempFile.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
DATA_BACKEND=postgres
POSTGRES_HOST=localhost
POSTGRES_PORT=5432
POSTGRES_USER=testuser
POSTGRES_PASSWORD=testpassword
POSTGRES_DB=testdb
SQLITE_PATH=./data/test.db
SURREAL_URL=ws://localhost:8000/rpc
SURREAL_USER=root
SURREAL_PASSWORD=root
SURREAL_NAMESPACE=myweblog
SURREAL_DATABASE=myweblog
`)

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, config.Backend)
	assert.Equal(t, "localhost", config.DB.Host)
	assert.Equal(t, "5432", config.DB.Port)
	assert.Equal(t, "testuser", config.DB.User)
	assert.Equal(t, "testpassword", config.DB.Password)
	assert.Equal(t, "testdb", config.DB.Name)
	assert.Equal(t, "./data/test.db", config.SQLite.Path)
	assert.Equal(t, "ws://localhost:8000/rpc", config.Surreal.URL)
	assert.Equal(t, "myweblog", config.Surreal.Namespace)
}

func TestLoadConfigDefaultsToSQLite(t *testing.T) {
	path := writeConfigFile(t, "SQLITE_PATH=./data/test.db\n")

	config, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, config.Backend)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := writeConfigFile(t, "DATA_BACKEND=mongodb\n")

	_, err := loadConfig(path)
	assert.Error(t, err)
}
