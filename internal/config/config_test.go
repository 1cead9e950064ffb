package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TENANT_ID", "tenant-1")
	t.Setenv("CLIENT_ID", "client-1")
	t.Setenv("CLIENT_SECRET", "secret-1")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", cfg.TenantID)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "targets.yaml", cfg.TargetTeamsFile)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 4, cfg.RequestsPerSec)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("TENANT_ID", "tenant-1")
	t.Setenv("CLIENT_ID", "")
	t.Setenv("CLIENT_SECRET", "secret-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLIENT_ID")
}

func TestLoadClampsTunables(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GRAPH_MAX_RETRIES", "99")
	t.Setenv("GRAPH_REQUESTS_PER_SECOND", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, 1, cfg.RequestsPerSec)
}

func TestLoadSplitsRecipientLists(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAIL_SEND_TOO", "a@example.com, b@example.com")
	t.Setenv("MAIL_CCC", " c@example.com ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.MailTo)
	assert.Equal(t, []string{"c@example.com"}, cfg.MailCc)
}

func TestValidateMail(t *testing.T) {
	cfg := &Config{
		SMTPServer:   "smtp.example.com",
		MailUsername: "reports@example.com",
		MailPassword: "pw",
		MailTo:       []string{"a@example.com"},
	}
	assert.NoError(t, cfg.ValidateMail())

	cfg.MailTo = nil
	assert.Error(t, cfg.ValidateMail())

	cfg.MailTo = []string{"a@example.com"}
	cfg.SMTPServer = ""
	assert.Error(t, cfg.ValidateMail())
}

func TestLoadTargetsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets:\n  - \"Team A\"\n  - \"HZL013客服群\"\n"), 0o644))

	cfg := &Config{TargetTeamsFile: path}
	targets, err := cfg.LoadTargets()
	require.NoError(t, err)
	assert.Equal(t, []string{"Team A", "HZL013客服群"}, targets)
}

func TestLoadTargetsEnvOverridesFile(t *testing.T) {
	cfg := &Config{
		TargetTeamsFile: "does-not-exist.yaml",
		TargetTeams:     []string{"Team A"},
	}
	targets, err := cfg.LoadTargets()
	require.NoError(t, err)
	assert.Equal(t, []string{"Team A"}, targets)
}

func TestLoadTargetsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets: []\n"), 0o644))

	cfg := &Config{TargetTeamsFile: path}
	_, err := cfg.LoadTargets()
	require.Error(t, err)
}
