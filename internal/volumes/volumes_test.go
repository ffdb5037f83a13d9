package volumes

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RevCBH/floki/internal/config"
)

func TestCachePath_Deterministic(t *testing.T) {
	a := CachePath("/work", "/floki/root/1/floki.yaml", "cache", false)
	b := CachePath("/work", "/floki/root/1/floki.yaml", "cache", false)
	assert.Equal(t, a, b)
}

func TestCachePath_LocalLayout(t *testing.T) {
	sum := sha256.Sum256([]byte("/floki/root/1/floki.yaml"))
	want := filepath.Join("/work", "volumes", hex.EncodeToString(sum[:])+"-cache")

	assert.Equal(t, want, CachePath("/work", "/floki/root/1/floki.yaml", "cache", false))
}

func TestCachePath_SharedIsSharedAcrossConfigs(t *testing.T) {
	a := CachePath("/work", "/floki/root/1/floki.yaml", "cache", true)
	b := CachePath("/work", "/floki/root/2/floki.yaml", "cache", true)

	assert.Equal(t, a, b)
	assert.Equal(t, "/work/volumes/cache", a)
}

func TestCachePath_LocalIsNotSharedAcrossConfigs(t *testing.T) {
	a := CachePath("/work", "/floki/root/1/floki.yaml", "cache", false)
	b := CachePath("/work", "/floki/root/2/floki.yaml", "cache", false)

	assert.NotEqual(t, a, b)
}

func TestCachePath_LocalAndSharedDontCollide(t *testing.T) {
	shared := CachePath("/work", "/floki/root/1/floki.yaml", "cache", true)
	local := CachePath("/work", "/floki/root/1/floki.yaml", "cache", false)

	assert.NotEqual(t, shared, local)
}

func TestResolve_SortedAndComplete(t *testing.T) {
	mounts := Resolve("/work", "/proj/floki.yaml", map[string]config.Volume{
		"zeta":  {Shared: true, Mount: "/z"},
		"alpha": {Mount: "/a"},
	})

	require.Len(t, mounts, 2)
	assert.Equal(t, "alpha", mounts[0].Name)
	assert.Equal(t, "/a", mounts[0].ContainerPath)
	assert.False(t, mounts[0].Shared)
	assert.Equal(t, CachePath("/work", "/proj/floki.yaml", "alpha", false), mounts[0].HostPath)

	assert.Equal(t, Mount{Name: "zeta", Shared: true, HostPath: "/work/volumes/zeta", ContainerPath: "/z"}, mounts[1])
}

func TestResolve_Empty(t *testing.T) {
	assert.Empty(t, Resolve("/work", "/proj/floki.yaml", nil))
}

func TestEnsure_CreatesAndIsIdempotent(t *testing.T) {
	workspace := t.TempDir()
	mounts := Resolve(workspace, "/proj/floki.yaml", map[string]config.Volume{
		"cache": {Shared: true, Mount: "/cache"},
		"build": {Mount: "/build"},
	})

	require.NoError(t, Ensure(mounts))

	marker := filepath.Join(mounts[1].HostPath, "keep")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0644))

	require.NoError(t, Ensure(mounts))
	for _, m := range mounts {
		info, err := os.Stat(m.HostPath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	_, err := os.Stat(marker)
	assert.NoError(t, err, "existing contents must survive")
}

func TestEnsure_Failure(t *testing.T) {
	workspace := t.TempDir()
	blocker := filepath.Join(workspace, DirName)
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0644))

	err := Ensure(Resolve(workspace, "/proj/floki.yaml", map[string]config.Volume{"cache": {Shared: true, Mount: "/c"}}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating volume directory for cache")
}
