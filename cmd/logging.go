package cmd

import (
	"fmt"

	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/log"
	"github.com/urfave/cli"
)

var logger = log.New("csvis")

// Load the build configuration and set up logging. Global flags override
// values from the configuration file.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if ctx.GlobalIsSet("threshold") {
		cfg.Octree.LeafThreshold = ctx.GlobalInt("threshold")
	}
	if ctx.GlobalIsSet("kind") {
		cfg.Occlusion.Kind = ctx.GlobalString("kind")
	}
	if ctx.GlobalIsSet("resolution") {
		cfg.PVS.Resolution = ctx.GlobalInt("resolution")
	}
	if ctx.GlobalIsSet("qad") {
		cfg.PVS.QAD = ctx.GlobalBool("qad")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)
	for module, name := range cfg.LogModules {
		if level, err = log.ParseLevel(name); err != nil {
			return nil, fmt.Errorf("log_modules.%s: %w", module, err)
		}
		log.SetModuleLevel(module, level)
	}
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}
	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return cfg, nil
}
