package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upload-service/internal/config"
	"upload-service/internal/logging"
)

func TestRootCmd_Wiring(t *testing.T) {
	root := newRootCmd()

	flag := root.PersistentFlags().Lookup("env-file")
	require.NotNil(t, flag)
	assert.Equal(t, ".env", flag.DefValue)

	cmd, _, err := root.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.Equal(t, "migrate", cmd.Name())
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	t.Setenv("MAX_MB", "0")

	root := newRootCmd()
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")})
	root.SetOut(io.Discard)
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_MB")
}

func TestMigrateCmd_RequiresDatabase(t *testing.T) {
	t.Setenv("UPLOAD_DATABASE_URL", "")

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), "missing.env")})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UPLOAD_DATABASE_URL")
}

func TestBuild(t *testing.T) {
	cfg := config.Config{
		Addr:        ":0",
		StorageDir:  "storage",
		MaxMB:       3,
		CORSOrigins: "*",
		Version:     "v1.2.3",
	}
	fs := afero.NewMemMapFs()

	a, err := build(context.Background(), cfg, fs, logging.Discard())
	require.NoError(t, err)
	defer a.close()

	for _, dir := range []string{"storage/images", "storage/files"} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		assert.True(t, ok, dir)
	}

	rr := httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"max_mb":3`)
	assert.Contains(t, rr.Body.String(), `"version":"v1.2.3"`)

	rr = httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "catalog routes need a database")
}
