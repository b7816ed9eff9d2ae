package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/occlusion"
	"github.com/crystalspace/CS-sub013/occlusion/cube"
	"github.com/crystalspace/CS-sub013/octree"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
	"github.com/urfave/cli"
)

var faceNames = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

// Parse a point given as "x,y,z".
func parsePoint(s string) (types.Vec3, error) {
	var v types.Vec3
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected point as x,y,z; got %q", s)
	}
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return v, fmt.Errorf("invalid point %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// Render the occlusion of the scene around a point into six QOI images,
// one per cube face. Only the nodes in the PVS of the leaf containing the
// point are drawn; covered pixels are black.
func Debug(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		logger.Error(err)
		return err
	}
	sceneFile, err := sceneArg(ctx)
	if err != nil {
		return err
	}
	from, err := parsePoint(ctx.String("from"))
	if err != nil {
		return err
	}

	lvl, err := loadLevel(cfg, sceneFile)
	if err != nil {
		logger.Error(err)
		return err
	}
	if !lvl.tree.BBox().In(from) {
		return fmt.Errorf("point %v lies outside the scene bounds", from)
	}
	if _, err = loadPVS(cfg, lvl, false); err != nil {
		logger.Error(err)
		return err
	}

	kind, err := occlusion.ParseKind(cfg.Occlusion.Kind)
	if err != nil {
		return err
	}
	size := ctx.Int("size")
	if _, err = occlusion.New(kind, size, size, cfg.Occlusion.Depth); err != nil {
		return err
	}
	// The face size was validated above.
	c := cube.New(size, func(w, h int) occlusion.Accumulator {
		acc, _ := occlusion.New(kind, w, h, cfg.Occlusion.Depth)
		return acc
	})

	fctx := octree.NewFrameContext()
	leaf := lvl.tree.MarkVisibleFromPVS(fctx, from)
	arena := lvl.tree.Arena()
	inserted := 0
	visitor := octree.VisitorFuncs{
		PolygonFn: func(_ *octree.Node, h polygon.Handle) bool {
			// Back faces are not drawn.
			if arena.Plane(h).Classify(from) <= types.SmallEpsilon {
				return false
			}
			world := arena.Poly3D(h)
			rel := make(geom.Poly3D, len(world))
			for i, v := range world {
				rel[i] = v.Sub(from)
			}
			if c.InsertPolygon(rel) {
				inserted++
			}
			return c.IsFull()
		},
	}
	if leaf.PVS.Len() > 0 {
		visitor.CullFn = func(n *octree.Node) bool {
			return !fctx.IsVisible(n)
		}
	}
	lvl.tree.Front2Back(fctx, visitor)
	logger.Noticef("leaf %d: %d polygons processed, %d changed the cube", leaf.ID, fctx.Processed(), inserted)

	prefix := ctx.String("out")
	screen := occlusion.ScreenBox(size, size)
	for f := range faceNames {
		name := fmt.Sprintf("%s-%s.qoi", prefix, faceNames[f])
		img := occlusion.Snapshot(c.Face(f), screen, size, size)
		err = writeCache(name, func(w io.Writer) error { return occlusion.EncodeQOI(w, img) })
		if err != nil {
			logger.Error(err)
			return err
		}
		logger.Infof(`wrote "%s"`, name)
	}
	return nil
}
