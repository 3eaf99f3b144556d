package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/RoriLog/internal/bridge"
	"github.com/Rorical/RoriLog/internal/config"
	"github.com/Rorical/RoriLog/internal/store"
	"github.com/Rorical/RoriLog/internal/web"
)

func TestWriteEntries_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEntries(&buf, "text", []string{"A", "B"}))
	assert.Equal(t, "1. A\n2. B\n", buf.String())

	buf.Reset()
	require.NoError(t, writeEntries(&buf, "", nil))
	assert.Empty(t, buf.String())
}

func TestWriteEntries_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEntries(&buf, "JSON", nil))
	assert.JSONEq(t, `{"entries":[]}`, buf.String())
}

func TestWriteEntries_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEntries(&buf, "yaml", []string{"A", "needs: quoting"}))

	var doc entriesDocument
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, []string{"A", "needs: quoting"}, doc.Entries)
}

func TestWriteEntries_UnknownFormat(t *testing.T) {
	assert.Error(t, writeEntries(&bytes.Buffer{}, "csv", nil))
}

func TestCallBridge_AgainstServer(t *testing.T) {
	srv, err := web.NewServer(store.New(store.NewMemoryWorkbook(), ""))
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	ctx := context.Background()

	entries, err := callBridge(ctx, ts.URL, func(r bridge.Runner) { r.SaveText("remote note") })
	require.NoError(t, err)
	assert.Equal(t, []string{"remote note"}, entries)

	entries, err = callBridge(ctx, ts.URL, func(r bridge.Runner) { r.GetEntries() })
	require.NoError(t, err)
	assert.Equal(t, []string{"remote note"}, entries)

	_, err = callBridge(ctx, ts.URL, func(r bridge.Runner) { r.SaveText("  ") })
	assert.EqualError(t, err, "Failed to save: Text is required.")
}

func TestRemoveProfile(t *testing.T) {
	cfg := &config.Config{
		Profiles: map[string]config.Profile{
			"a": {Backend: "memory"},
			"b": {Backend: "bolt"},
		},
		ActiveProfile: "a",
	}

	removeProfile(cfg, "a")
	assert.Equal(t, "b", cfg.ActiveProfile)

	removeProfile(cfg, "b")
	assert.Equal(t, config.DefaultProfile, cfg.ActiveProfile)
	assert.Equal(t, "jsonl", cfg.Profiles[config.DefaultProfile].Backend)
}

func TestRedactTarget(t *testing.T) {
	assert.Equal(t, "postgres://me:****@db/rorilog", redactTarget("postgres://me:secret@db/rorilog"))
	assert.Equal(t, "redis://localhost:6379", redactTarget("redis://localhost:6379"))
	assert.Equal(t, "/tmp/log", redactTarget("/tmp/log"))
}

func TestRootCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"entries", "profile", "serve", "use"} {
		assert.True(t, names[want], "missing %s command", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("offline"))
}
