package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eliteGoblin/privguard/internal/catalog"
	"github.com/eliteGoblin/privguard/internal/domain"
	"github.com/eliteGoblin/privguard/internal/infra"
)

const baseHosts = "# Copyright (c) 1993-2009 Microsoft Corp.\n127.0.0.1 localhost\n"

func newTestHosts(t *testing.T, content string) (*HostsBlock, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return NewHostsBlock(infra.NewFileSystemManager(zap.NewNop()), path, zap.NewNop()), path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestHostsBlock_ApplyTwiceEqualsOnce(t *testing.T) {
	h, path := newTestHosts(t, baseHosts)

	require.NoError(t, h.Apply(testEndpoints))
	once := readFile(t, path)
	require.NoError(t, h.Apply(testEndpoints))
	twice := readFile(t, path)

	assert.Equal(t, once, twice)
	assert.True(t, strings.HasPrefix(once, baseHosts))
	assert.Contains(t, once, catalog.HostsMarkerStart+"\n0.0.0.0 telemetry.microsoft.com\n")
	assert.Equal(t, 1, strings.Count(once, catalog.HostsMarkerStart))

	applied, err := h.IsApplied()
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestHostsBlock_ReapplyReplacesEntries(t *testing.T) {
	h, path := newTestHosts(t, baseHosts)
	require.NoError(t, h.Apply(testEndpoints))
	require.NoError(t, h.Apply(testEndpoints[:1]))

	content := readFile(t, path)
	assert.Contains(t, content, "0.0.0.0 telemetry.microsoft.com")
	assert.NotContains(t, content, "bingapis.com")
}

func TestHostsBlock_RemoveRestoresOriginal(t *testing.T) {
	h, path := newTestHosts(t, baseHosts)
	require.NoError(t, h.Apply(testEndpoints))
	require.NoError(t, h.Remove())

	assert.Equal(t, baseHosts, readFile(t, path))
	applied, err := h.IsApplied()
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestHostsBlock_StartWithoutEndLeavesFileUntouched(t *testing.T) {
	broken := baseHosts + catalog.HostsMarkerStart + "\n0.0.0.0 example.com\n"
	h, path := newTestHosts(t, broken)

	err := h.Apply(testEndpoints)
	assert.True(t, errors.Is(err, domain.ErrMalformedOutput))
	assert.Equal(t, broken, readFile(t, path))

	err = h.Remove()
	assert.True(t, errors.Is(err, domain.ErrMalformedOutput))
	assert.Equal(t, broken, readFile(t, path))
}

func TestHostsBlock_MissingFileIsCreated(t *testing.T) {
	h, path := newTestHosts(t, "")
	require.NoError(t, h.Apply(testEndpoints[:1]))
	assert.Equal(t,
		catalog.HostsMarkerStart+"\n0.0.0.0 telemetry.microsoft.com\n"+catalog.HostsMarkerEnd+"\n",
		readFile(t, path))
}

func TestRenderHostsBlock_PreservesCRLF(t *testing.T) {
	in := "127.0.0.1 localhost\r\n"
	out, err := RenderHostsBlock(in, testEndpoints[:1])
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1 localhost\r\n\r\n"+catalog.HostsMarkerStart+"\r\n0.0.0.0 telemetry.microsoft.com\r\n"+catalog.HostsMarkerEnd+"\r\n", out)

	again, err := RenderHostsBlock(out, testEndpoints[:1])
	require.NoError(t, err)
	assert.Equal(t, out, again)
}
