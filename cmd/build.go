package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/crystalspace/CS-sub013/asset"
	"github.com/crystalspace/CS-sub013/pvs"
	"github.com/urfave/cli"
)

// Build the octree of every scene file argument and write its cache.
func BuildOctree(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	if ctx.NArg() == 0 {
		return fmt.Errorf("no scene files specified")
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		lvl, err := loadLevel(cfg, ctx.Args().Get(idx))
		if err != nil {
			logger.Error(err)
			return err
		}
		s := lvl.tree.Stats()
		logger.Noticef("%s: %d nodes, %d leaves, max depth %d", lvl.file, s.Nodes, s.Leaves, s.MaxDepth)
	}
	return nil
}

// Build (or load) the PVS of a scene and write its cache.
func BuildPVS(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	sceneFile, err := sceneArg(ctx)
	if err != nil {
		return err
	}

	lvl, err := loadLevel(cfg, sceneFile)
	if err != nil {
		logger.Error(err)
		return err
	}
	stats, err := loadPVS(cfg, lvl, ctx.Bool("rebuild"))
	if err != nil {
		logger.Error(err)
		return err
	}
	if stats != nil {
		fmt.Fprint(os.Stdout, stats.String())
	}
	return nil
}

// Print octree and PVS statistics of a scene.
func ShowStats(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	sceneFile, err := sceneArg(ctx)
	if err != nil {
		return err
	}

	lvl, err := loadLevel(cfg, sceneFile)
	if err != nil {
		logger.Error(err)
		return err
	}
	if !ctx.Bool("no-pvs") {
		if _, err = loadPVS(cfg, lvl, false); err != nil {
			logger.Error(err)
			return err
		}
	}
	fmt.Fprint(os.Stdout, lvl.tree.Stats().String())
	return nil
}

// Write the PVS of every leaf of a scene as JSON.
func DumpPVS(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	sceneFile, err := sceneArg(ctx)
	if err != nil {
		return err
	}

	lvl, err := loadLevel(cfg, sceneFile)
	if err != nil {
		logger.Error(err)
		return err
	}
	if _, err = loadPVS(cfg, lvl, false); err != nil {
		logger.Error(err)
		return err
	}

	var w io.Writer = os.Stdout
	if out := ctx.String("out"); out != "" {
		f, err := asset.Create(out)
		if err != nil {
			logger.Error(err)
			return err
		}
		defer f.Close()
		w = f
	}
	return pvs.WriteJSON(w, lvl.tree)
}
