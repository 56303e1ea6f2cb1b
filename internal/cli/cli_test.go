package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/memoproxy/internal/config"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "memoproxy", cmd.Use)

	for _, name := range []string{"generate", "inspect", "clean"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
	assert.Equal(t, config.DefaultFile, cfg.DefValue)

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "clean", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingConfigIsCommandError(t *testing.T) {
	_, stderr, err := execute(t, "generate", "-c", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, ErrCodeConfig)
}

func TestInvalidConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memoproxy.yaml")
	writeFile(t, path, "default_memoize_seconds: -1\n")

	stdout, _, err := execute(t, "generate", "-c", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
}

func TestGenerateDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memoproxy.yaml")
	writeFile(t, path, "enabled: false\nlog: {level: none}\n")

	stdout, _, err := execute(t, "generate", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "memoization disabled")

	_, err = os.Stat(filepath.Join(dir, "memoized"))
	assert.True(t, os.IsNotExist(err))
}

const shopModule = `package shop

type Pricer interface {
	Price(sku string) int
}

//memoize:service shop
//memoize:cache ttl=15
type Store struct{}

func (s *Store) Price(sku string) int { return len(sku) }
`

func TestGenerateAndClean(t *testing.T) {
	t.Setenv("GOWORK", "off")
	t.Setenv("GOFLAGS", "-mod=mod")

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/clifix\n\ngo 1.24\n")
	writeFile(t, filepath.Join(dir, "shop", "shop.go"), shopModule)
	path := filepath.Join(dir, "memoproxy.yaml")
	writeFile(t, path, `
cache_service: cache.app
target_directory: memoized
scan: [example.com/clifix/shop]
log: {level: none}
`)

	stdout, _, err := execute(t, "generate", "-c", path, "--format", "json")
	require.NoError(t, err, stdout)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Proxies []struct {
				ServiceID string `json:"service_id"`
				File      string `json:"file"`
				Memoized  int    `json:"memoized"`
			} `json:"proxies"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Proxies, 1)
	assert.Equal(t, "shop", resp.Data.Proxies[0].ServiceID)
	assert.Equal(t, 1, resp.Data.Proxies[0].Memoized)

	_, err = os.Stat(filepath.Join(dir, "memoized", resp.Data.Proxies[0].File))
	require.NoError(t, err)

	stdout, _, err = execute(t, "inspect", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "[memo 15s, class] Price(sku string) int")

	stdout, _, err = execute(t, "clean", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "removed 2 generated files")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, false, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", memoize.F("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)

	buf.Reset()
	logger, err = NewLogger(config.LogConfig{Level: "warn"}, true, &buf)
	require.NoError(t, err)
	logger.Debug("debugging")
	assert.Contains(t, buf.String(), "debugging")

	logger, err = NewLogger(config.LogConfig{Level: "none"}, false, &buf)
	require.NoError(t, err)
	assert.IsType(t, &memoize.NoOpLogger{}, logger)

	_, err = NewLogger(config.LogConfig{Level: "loud"}, false, &buf)
	assert.Error(t, err)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", errors.New("y"))))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, _, err := execute(t, "clean", "--nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
