package commands

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"secdb/src/directors"
	"secdb/src/engine"
	"secdb/src/server"
	"secdb/src/settings"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func seed(t *testing.T, path, password string) {
	t.Helper()
	store, err := engine.Open(path, password, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.CreateCollection("users"))
	require.NoError(t, store.CreateCollection("audit"))
	require.NoError(t, store.Insert("users", engine.Document{"name": "Alice"}))
}

func TestCollectionsAndDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	seed(t, path, "pwd@123")

	out, err := execute(t, "", "collections", "--data-file", path)
	require.NoError(t, err)
	assert.Equal(t, "audit\nusers\n", out)

	out, err = execute(t, "", "dump", "--data-file", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"audit": [], "users": [{"name": "Alice"}]}`, out)
}

func TestDumpMissingFileIsEmpty(t *testing.T) {
	out, err := execute(t, "", "dump", "--data-file", filepath.Join(t.TempDir(), "new.secdb"))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, out)
}

func TestWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	seed(t, path, "right")

	_, err := execute(t, "", "collections", "--data-file", path, "--password", "wrong")
	assert.ErrorIs(t, err, engine.ErrDecryptionFailure)
}

func TestPasswordFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.secdb")
	seed(t, path, "from-env")
	t.Setenv(settings.PasswordEnv, "from-env")

	out, err := execute(t, "", "collections", "--data-file", path)
	require.NoError(t, err)
	assert.Equal(t, "audit\nusers\n", out)
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.secdb")
	seed(t, path, "pwd@123")

	config := filepath.Join(dir, "secdb.json")
	require.NoError(t, os.WriteFile(config, []byte(`{"data_file": "`+path+`", "port": 6001}`), 0600))

	c := &cli{configFile: config, port: 7000}
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&c.port, "port", 5000, "")
	require.NoError(t, cmd.Flags().Set("port", "7000"))

	args, err := c.resolve(cmd)
	require.NoError(t, err)
	assert.Equal(t, path, args.DataFile)
	assert.Equal(t, 7000, args.Port)

	out, err := execute(t, "", "collections", "--config", config)
	require.NoError(t, err)
	assert.Equal(t, "audit\nusers\n", out)
}

func TestInvalidArguments(t *testing.T) {
	_, err := execute(t, "", "collections", "--port", "0")
	assert.ErrorIs(t, err, settings.ErrInvalidArguments)
}

func TestRemoteCollections(t *testing.T) {
	args := settings.Defaults()
	args.DataFile = filepath.Join(t.TempDir(), "db.secdb")
	services, err := directors.NewServiceManager(args, nil)
	require.NoError(t, err)
	defer services.Close()
	require.NoError(t, services.DatabaseService.Store().CreateCollection("remote"))

	ts := httptest.NewServer(server.NewServer(args, services, nil).Handler())
	defer ts.Close()

	for _, extra := range [][]string{nil, {"--bson"}} {
		out, err := execute(t, "", append([]string{"collections", "--remote", ts.URL}, extra...)...)
		require.NoError(t, err)
		assert.Equal(t, "remote\n", out)

		out, err = execute(t, "", append([]string{"dump", "--remote", ts.URL}, extra...)...)
		require.NoError(t, err)
		assert.JSONEq(t, `{"remote": []}`, out)
	}

	// the served file is locked against local access
	_, err = execute(t, "", "collections", "--data-file", args.DataFile)
	assert.ErrorIs(t, err, engine.ErrIOFailure)
}

func TestUserCommands(t *testing.T) {
	usersFile := filepath.Join(t.TempDir(), "users.json")

	out, err := execute(t, "", "user", "add", "alice", "--users-file", usersFile, "--user-password", "s3cret")
	require.NoError(t, err)
	assert.Contains(t, out, "User alice created.")

	out, err = execute(t, "hunter2\n", "user", "add", "bob", "--users-file", usersFile)
	require.NoError(t, err)
	assert.Contains(t, out, "User bob created.")

	users, err := directors.NewUserService(usersFile, nil)
	require.NoError(t, err)
	assert.NoError(t, users.Authenticate("bob", "hunter2"))

	_, err = execute(t, "", "user", "add", "alice", "--users-file", usersFile, "--user-password", "again")
	assert.Error(t, err)

	out, err = execute(t, "", "user", "list", "--users-file", usersFile)
	require.NoError(t, err)
	assert.Equal(t, "alice\nbob\n", out)

	out, err = execute(t, "", "user", "remove", "alice", "--users-file", usersFile)
	require.NoError(t, err)
	assert.Equal(t, "User alice removed.\n", out)

	_, err = execute(t, "", "user", "list")
	assert.Error(t, err)

	_, err = execute(t, "\n", "user", "add", "carol", "--users-file", usersFile)
	assert.Error(t, err)
}

func TestDumpDoesNotCreateDirectories(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "", "dump", "--data-file", filepath.Join(dir, "typo", "x"))
	assert.Error(t, err)
	assert.NoDirExists(t, filepath.Join(dir, "typo"))
}

func TestUserAddCreatesDirectory(t *testing.T) {
	usersFile := filepath.Join(t.TempDir(), "auth", "users.json")
	_, err := execute(t, "", "user", "add", "alice", "--users-file", usersFile, "--user-password", "s3cret")
	require.NoError(t, err)
	assert.FileExists(t, usersFile)
}
