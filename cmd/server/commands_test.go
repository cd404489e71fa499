package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/kanban-api/internal/config"
	"github.com/phrazzld/kanban-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a memory-driver config file and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kanban.yaml")
	content := []byte(`
server:
  log_level: error
database:
  driver: memory
auth:
  jwt_secret: ` + testSecret + `
scheduler:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

// execute runs the root command with args and returns its standard output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t)
	userID := uuid.New()

	out, err := execute(t, "--config", path, "token", "--user", userID.String())
	require.NoError(t, err)

	jwtService, err := auth.NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	claims, err := jwtService.ValidateToken(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestTokenCommand_Errors(t *testing.T) {
	path := writeConfig(t)

	_, err := execute(t, "--config", path, "token")
	assert.ErrorContains(t, err, "user")

	_, err = execute(t, "--config", path, "token", "--user", "ada")
	assert.ErrorContains(t, err, "invalid --user")
}

func TestSweepCommand(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "sweep")
	require.NoError(t, err)
	assert.Equal(t, "deadline sweep updated 0 task(s)\n", out)
}

func TestMigrateCommand(t *testing.T) {
	path := writeConfig(t)

	_, err := execute(t, "--config", path, "migrate", "up")
	assert.ErrorContains(t, err, "require the postgres driver")

	_, err = execute(t, "--config", path, "migrate", "sideways")
	assert.Error(t, err)

	_, err = execute(t, "--config", path, "migrate")
	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "sweep")
	assert.ErrorContains(t, err, "failed to load configuration")
}
