package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pedbook/internal/seed"
)

func useTempSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "pedbook.db"))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	useTempSQLite(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Database migrations completed")
}

func TestCreateUser(t *testing.T) {
	useTempSQLite(t)

	out, err := run(t, "create-user", "marian", "--password", "secret123", "--role", "librarian")
	require.NoError(t, err)
	assert.Contains(t, out, `librarian "marian"`)

	_, err = run(t, "create-user", "marian", "--password", "secret123")
	assert.Error(t, err)

	_, err = run(t, "create-user", "shorty", "--password", "abc")
	assert.Error(t, err)
}

func TestSeedFromFile(t *testing.T) {
	useTempSQLite(t)

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"authors":[{"name":"Ursula K. Le Guin","books":[{"title":"The Dispossessed"},{"title":"The Lathe of Heaven"}]}]}`), 0o644))

	out, err := run(t, "seed", path)
	require.NoError(t, err)

	var res seed.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.AuthorsCreated)
	assert.Equal(t, 2, res.BooksCreated)
}
