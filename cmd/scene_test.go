package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/crystalspace/CS-sub013/asset"
	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/types"
	"github.com/stretchr/testify/require"
)

func TestCachePath(t *testing.T) {
	res := asset.NewResourceFromBytes("maps/level.obj", nil)
	require.Equal(t, "maps/my level.octree", cachePath("maps/my level.obj", res, ".octree"))
	require.Equal(t, "noext.pvs", cachePath("noext", res, ".pvs"))

	remote := asset.NewResourceFromBytes("http://example.com/maps/level.obj", nil)
	require.Equal(t, "level.pvs", cachePath("http://example.com/maps/level.obj", remote, ".pvs"))
}

func TestParsePoint(t *testing.T) {
	v, err := parsePoint("1, -2.5,3")
	require.NoError(t, err)
	require.Equal(t, types.Vec3{1, -2.5, 3}, v)

	_, err = parsePoint("1,2")
	require.Error(t, err)
	_, err = parsePoint("1,2,z")
	require.Error(t, err)
}

func TestLoadLevelCaches(t *testing.T) {
	dir := t.TempDir()
	sceneFile := filepath.Join(dir, "level.obj")
	scene := `
v 0 0 0
v 4 0 0
v 4 0 4
v 0 0 4
v 0 3 0
g floor
f 1 4 3 2
g wall
f 1 2 5
`
	require.NoError(t, os.WriteFile(sceneFile, []byte(scene), 0o644))

	cfg := config.Default()
	cfg.PVS.Resolution = 16

	lvl, err := loadLevel(cfg, sceneFile)
	require.NoError(t, err)
	require.True(t, lvl.rebuilt)
	require.FileExists(t, filepath.Join(dir, "level.octree"))
	require.Equal(t, 1, lvl.tree.Stats().Leaves)

	stats, err := loadPVS(cfg, lvl, false)
	require.NoError(t, err)
	require.NotNil(t, stats)
	require.FileExists(t, filepath.Join(dir, "level.pvs"))

	// A second load reuses both caches.
	lvl, err = loadLevel(cfg, sceneFile)
	require.NoError(t, err)
	require.False(t, lvl.rebuilt)
	stats, err = loadPVS(cfg, lvl, false)
	require.NoError(t, err)
	require.Nil(t, stats)
	require.True(t, lvl.tree.Root().PVS.Contains(lvl.tree.Root()))

	// Forcing a rebuild ignores the cache.
	stats, err = loadPVS(cfg, lvl, true)
	require.NoError(t, err)
	require.NotNil(t, stats)

	// A corrupt cache is replaced.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "level.octree"), []byte("junk"), 0o644))
	lvl, err = loadLevel(cfg, sceneFile)
	require.NoError(t, err)
	require.True(t, lvl.rebuilt)
	data, err := os.ReadFile(filepath.Join(dir, "level.octree"))
	require.NoError(t, err)
	require.Equal(t, "OCTR", string(data[:4]))

	// The PVS cache still exists but belongs to the replaced octree.
	require.FileExists(t, filepath.Join(dir, "level.pvs"))
	stats, err = loadPVS(cfg, lvl, false)
	require.NoError(t, err)
	require.NotNil(t, stats)
	require.True(t, lvl.tree.Root().PVS.Contains(lvl.tree.Root()))
}

func TestLoadLevelErrors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.obj")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing here\n"), 0o644))

	_, err := loadLevel(config.Default(), empty)
	require.Error(t, err)

	_, err = loadLevel(config.Default(), filepath.Join(dir, "missing.obj"))
	require.Error(t, err)
}
