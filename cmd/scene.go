package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/crystalspace/CS-sub013/asset"
	"github.com/crystalspace/CS-sub013/asset/mesh/reader"
	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/octree"
	"github.com/crystalspace/CS-sub013/pvs"
	"github.com/urfave/cli"
)

// A loaded scene: its geometry and the octree built over it.
type level struct {
	file       string
	octreeFile string
	pvsFile    string

	mesh *reader.Mesh
	tree *octree.Octree

	// Set when the octree was built instead of loaded. Node paths of a
	// cached PVS no longer describe the tree.
	rebuilt bool
}

// Get the path of a cache file stored next to the scene file. Caches of
// remote scenes are stored in the working directory.
func cachePath(sceneFile string, res *asset.Resource, ext string) string {
	if res.IsRemote() {
		sceneFile = res.RemotePath()
	}
	return strings.TrimSuffix(sceneFile, filepath.Ext(sceneFile)) + ext
}

// Get the scene file argument of a command.
func sceneArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("expected a single scene file argument; got %d", ctx.NArg())
	}
	return ctx.Args().First(), nil
}

// Read the scene geometry and load its octree from the cache, building and
// caching the octree when the cache is missing or stale.
func loadLevel(cfg *config.Config, sceneFile string) (*level, error) {
	res, err := asset.NewResource(sceneFile, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	if res.IsRemote() {
		logger.Infof(`caches of remote scene "%s" are kept in the working directory`, res.Path())
	}

	mesh, err := reader.Read(res)
	if err != nil {
		return nil, err
	}
	if len(mesh.Polygons) == 0 {
		return nil, fmt.Errorf("scene %s contains no polygons", sceneFile)
	}
	lvl := &level{
		file:       sceneFile,
		octreeFile: cachePath(sceneFile, res, ".octree"),
		pvsFile:    cachePath(sceneFile, res, ".pvs"),
		mesh:       mesh,
	}

	cacheFile := lvl.octreeFile
	if asset.Exists(cacheFile) {
		lvl.tree, err = readOctreeCache(cfg, cacheFile, mesh)
		if err == nil {
			logger.Infof(`loaded octree from "%s"`, cacheFile)
			return lvl, nil
		}
		logger.Warningf(`ignoring octree cache "%s": %v`, cacheFile, err)
	}

	lvl.tree = octree.Build(mesh.Arena, mesh.Polygons, mesh.BBox, cfg)
	lvl.rebuilt = true
	if err = writeCache(cacheFile, lvl.tree.Cache); err != nil {
		return nil, err
	}
	logger.Noticef(`wrote octree cache "%s"`, cacheFile)
	return lvl, nil
}

func readOctreeCache(cfg *config.Config, cacheFile string, mesh *reader.Mesh) (*octree.Octree, error) {
	res, err := asset.NewResource(cacheFile, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return octree.ReadCache(res, mesh.Arena, mesh.Polygons, cfg)
}

// Load the PVS of every leaf from the cache or build it. Returns the build
// statistics or nil if the cache was used. The cache is never used for a
// freshly built octree.
func loadPVS(cfg *config.Config, lvl *level, rebuild bool) (*pvs.Stats, error) {
	cacheFile := lvl.pvsFile
	if lvl.rebuilt && !rebuild && asset.Exists(cacheFile) {
		logger.Noticef(`octree was rebuilt; ignoring PVS cache "%s"`, cacheFile)
		rebuild = true
	}
	if !rebuild && asset.Exists(cacheFile) {
		res, err := asset.NewResource(cacheFile, nil)
		if err != nil {
			return nil, err
		}
		err = pvs.ReadCache(res, lvl.tree)
		res.Close()
		if err == nil {
			logger.Infof(`loaded PVS from "%s"`, cacheFile)
			return nil, nil
		}
		logger.Warningf(`ignoring PVS cache "%s": %v`, cacheFile, err)
	}

	b, err := pvs.NewBuilder(lvl.tree, cfg)
	if err != nil {
		return nil, err
	}
	lastPct := -1
	b.Progress = func(done, total int) {
		if pct := 100 * done / total; pct/10 != lastPct/10 {
			lastPct = pct
			logger.Infof("PVS %d%% (%d/%d)", pct, done, total)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err = b.Build(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("PVS build interrupted")
		}
		return nil, err
	}

	if err = writeCache(cacheFile, func(w io.Writer) error { return pvs.Cache(w, lvl.tree) }); err != nil {
		return nil, err
	}
	logger.Noticef(`wrote PVS cache "%s"`, cacheFile)
	stats := b.Stats()
	return &stats, nil
}

func writeCache(path string, write func(io.Writer) error) error {
	w, err := asset.Create(path)
	if err != nil {
		return err
	}
	if err = write(w); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return w.Close()
}
