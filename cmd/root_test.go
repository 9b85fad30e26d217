package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"erpsheets/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlaggedCommand() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	c.Flags().AddFlagSet(rootCmd.PersistentFlags())
	return c
}

func resetConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { appConfig, configErr = nil, nil })
}

func TestLoadEnvironmentFromFile(t *testing.T) {
	resetConfig(t)
	t.Setenv("DATA_BACKEND", "xlsx")
	t.Setenv("XLSX_PATH", filepath.Join(t.TempDir(), "erp.xlsx"))
	t.Setenv("LOG_OUTPUT", "stderr")

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ERPSHEETS_TEST_REPORT_SHEET=Margini2024\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ERPSHEETS_TEST_REPORT_SHEET") })

	c := newFlaggedCommand()
	require.NoError(t, c.Flags().Set("env-file", envFile))
	require.NoError(t, c.Flags().Set("log-level", "error"))

	require.NoError(t, loadEnvironment(c, nil))
	require.NoError(t, configErr)
	assert.Equal(t, config.BackendXLSX, appConfig.DataBackend)
	assert.Equal(t, "Margini2024", os.Getenv("ERPSHEETS_TEST_REPORT_SHEET"))
}

func TestLoadEnvironmentMissingExplicitFile(t *testing.T) {
	resetConfig(t)

	c := newFlaggedCommand()
	require.NoError(t, c.Flags().Set("env-file", filepath.Join(t.TempDir(), "missing.env")))

	assert.Error(t, loadEnvironment(c, nil))
}

func TestOpenBackendInvalidConfiguration(t *testing.T) {
	resetConfig(t)
	t.Setenv("DATA_BACKEND", "sheets")
	t.Setenv("GOOGLE_SHEET_URL", "")
	t.Setenv("LOG_OUTPUT", "stderr")

	require.NoError(t, loadEnvironment(newFlaggedCommand(), nil), "a bad configuration only fails commands that need a backend")
	require.Error(t, configErr)

	_, err := openBackend(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_SHEET_URL")
}
