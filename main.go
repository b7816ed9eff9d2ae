package main

import (
	"os"

	"github.com/crystalspace/CS-sub013/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "csvis"
	app.Usage = "build octrees and potentially visible sets for static scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load build settings from a yaml file",
		},
		cli.IntFlag{
			Name:  "threshold",
			Value: 10,
			Usage: "max polygons in an octree leaf",
		},
		cli.StringFlag{
			Name:  "kind",
			Value: "cbuffer",
			Usage: "occlusion accumulator (cbuffer, solidbsp, covtree, quadtree)",
		},
		cli.IntFlag{
			Name:  "resolution",
			Value: 1024,
			Usage: "size of each face of the occlusion cube used by the PVS builder",
		},
		cli.BoolFlag{
			Name:  "qad",
			Usage: "run the quick and dirty visibility pass",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build and cache the octree of one or more scenes",
			Description: `
Parse the scene geometry from a wavefront obj file and subdivide it into an
octree with a solid-space BSP tree at every leaf.

The octree is written next to the scene file using the .octree extension and
is reused by the other commands while it matches the scene.`,
			ArgsUsage: "scene_file1.obj scene_file2.obj ...",
			Action:    cmd.BuildOctree,
		},
		{
			Name:  "pvs",
			Usage: "build and cache the potentially visible set of every octree leaf",
			Description: `
Compute, for every octree leaf, the set of nodes that may be visible from some
point inside it. The result is written next to the scene file using the .pvs
extension.`,
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "rebuild",
					Usage: "ignore an existing PVS cache",
				},
			},
			Action: cmd.BuildPVS,
		},
		{
			Name:      "stats",
			Usage:     "print octree and PVS statistics",
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "no-pvs",
					Usage: "skip loading or building the PVS",
				},
			},
			Action: cmd.ShowStats,
		},
		{
			Name:      "dump",
			Usage:     "write the PVS of every leaf as JSON",
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file; defaults to stdout",
				},
			},
			Action: cmd.DumpPVS,
		},
		{
			Name:  "debug",
			Usage: "render the occlusion cube seen from a point",
			Description: `
Traverse the scene front to back from a point, restricted to the PVS of the
leaf that contains it, and write the coverage of each cube face as a QOI image.`,
			ArgsUsage: "scene_file.obj",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "from",
					Value: "0,0,0",
					Usage: "viewpoint as x,y,z",
				},
				cli.IntFlag{
					Name:  "size",
					Value: 256,
					Usage: "size of each cube face in pixels",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "cube",
					Usage: "prefix of the written images",
				},
			},
			Action: cmd.Debug,
		},
	}

	app.Run(os.Args)
}
