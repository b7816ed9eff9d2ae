// Package reader loads static level geometry into a polygon arena.
package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crystalspace/CS-sub013/asset"
	"github.com/crystalspace/CS-sub013/geom"
	"github.com/crystalspace/CS-sub013/log"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

// Static geometry read from a scene file.
type Mesh struct {
	Arena *polygon.Arena

	// The polygons in file order.
	Polygons []polygon.Handle

	// Named polygon groups in file order.
	Groups []Group

	BBox types.Box3
}

// A run of polygons defined under the same "g" or "o" statement.
type Group struct {
	Name  string
	First int
	Count int
}

// Read a mesh from a local file or URL.
func ReadMesh(filename string) (*Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return Read(res)
}

// Read a mesh in wavefront obj format from res. Faces may be arbitrary
// convex polygons; their winding defines the visible side.
func Read(res *asset.Resource) (*Mesh, error) {
	r := &wavefrontReader{
		logger: log.New("wavefront reader"),
		mesh: &Mesh{
			Arena: polygon.NewArena(),
			BBox:  types.EmptyBox3(),
		},
	}

	r.logger.Noticef(`parsing geometry from "%s"`, res.Path())
	start := time.Now()
	if err := r.parse(res); err != nil {
		return nil, err
	}
	r.closeGroup()

	if r.skipped > 0 {
		r.logger.Warningf("skipped %d faces with zero area", r.skipped)
	}
	r.logger.Noticef(
		"parsed %d polygons in %d groups (%d vertices) in %d ms",
		len(r.mesh.Polygons), len(r.mesh.Groups), r.mesh.Arena.NumVertices(), time.Since(start).Nanoseconds()/1e6,
	)
	return r.mesh, nil
}

type wavefrontReader struct {
	logger log.Logger
	mesh   *Mesh

	// Arena vertex index for every "v" statement.
	vertexList []int

	// Counts of "vt" and "vn" statements; only used to validate face
	// indices.
	uvCount     int
	normalCount int

	// Faces with zero area.
	skipped int

	// An error stack that provides additional error information when
	// scene files include other files.
	errStack []string
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return fmt.Errorf("%s", strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int

	// Included files use 1-based indices relative to their own vertices.
	relVertexOffset := len(r.vertexList)
	relUvOffset := r.uvCount
	relNormalOffset := r.normalCount

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, r.mesh.Arena.AddVertex(v))
		case "vt":
			r.uvCount++
		case "vn":
			r.normalCount++
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for group name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.closeGroup()
			r.mesh.Groups = append(r.mesh.Groups, Group{Name: lineTokens[1], First: len(r.mesh.Polygons)})
		case "f":
			if err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "mtllib", "usemtl", "s", "l", "p":
			// Surface attributes do not affect visibility.
		default:
			r.logger.Debugf("%s:%d: ignoring %q statement", res.Path(), lineNum, lineTokens[0])
		}
	}
	return scanner.Err()
}

// Set the polygon count of the last group, dropping it if it is empty.
func (r *wavefrontReader) closeGroup() {
	last := len(r.mesh.Groups) - 1
	if last < 0 {
		return
	}
	g := &r.mesh.Groups[last]
	g.Count = len(r.mesh.Polygons) - g.First
	if g.Count == 0 {
		r.logger.Warningf(`dropping group "%s" as it contains no polygons`, g.Name)
		r.mesh.Groups = r.mesh.Groups[:last]
	}
}

func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 vertices; got %d`, len(lineTokens)-1)
	}

	indices := make([]int, 0, len(lineTokens)-1)
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		offset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		indices = append(indices, r.vertexList[offset])

		if expIndices > 1 && vTokens[1] != "" {
			if _, err = selectFaceCoordIndex(vTokens[1], r.uvCount, relUvOffset); err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}
		if expIndices > 2 && vTokens[2] != "" {
			if _, err = selectFaceCoordIndex(vTokens[2], r.normalCount, relNormalOffset); err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}
	}

	poly := make(geom.Poly3D, len(indices))
	for i, idx := range indices {
		poly[i] = r.mesh.Arena.Vertex(idx)
	}
	if poly.Area() < types.SmallEpsilon {
		r.skipped++
		return nil
	}

	h, err := r.mesh.Arena.Add(indices)
	if err != nil {
		return err
	}
	r.mesh.Polygons = append(r.mesh.Polygons, h)
	for _, v := range poly {
		r.mesh.BBox.AddPoint(v)
	}
	return nil
}

func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var offset int
	if index < 0 {
		offset = coordListLen + int(index)
	} else {
		offset = relOffset + int(index-1)
	}
	if offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return offset, nil
}

func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	var v types.Vec3
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(lineTokens[i+1], 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(val)
	}
	return v, nil
}
