package pvs

import (
	"io"
	"strconv"
	"strings"

	"github.com/crystalspace/CS-sub013/octree"
	"github.com/segmentio/encoding/json"
)

type boxJSON struct {
	Min [3]float32 `json:"min"`
	Max [3]float32 `json:"max"`
}

type leafJSON struct {
	ID       int      `json:"id"`
	Path     string   `json:"path"`
	Box      boxJSON  `json:"box"`
	Polygons int      `json:"polygons"`
	Visible  []string `json:"visible"`
}

type dumpJSON struct {
	Nodes  int        `json:"nodes"`
	Leaves []leafJSON `json:"leaves"`
}

// Format a node path as slash separated child indices. The root is "/".
func formatPath(path []byte) string {
	if len(path) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, step := range path {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(int(step) - 1))
	}
	return sb.String()
}

// Write the PVS of every leaf as indented JSON. Nodes are identified by
// their path from the root.
func WriteJSON(w io.Writer, tree *octree.Octree) error {
	dump := dumpJSON{Nodes: len(tree.Nodes())}
	for _, leaf := range tree.Leaves() {
		path, err := NodePath(leaf)
		if err != nil {
			return err
		}
		lj := leafJSON{
			ID:       leaf.ID,
			Path:     formatPath(path),
			Box:      boxJSON{Min: leaf.Box.Lo, Max: leaf.Box.Hi},
			Polygons: len(leaf.Polygons()),
			Visible:  make([]string, 0, leaf.PVS.Len()),
		}
		for _, entry := range leaf.PVS.Visible() {
			if path, err = NodePath(entry.Node); err != nil {
				return err
			}
			lj.Visible = append(lj.Visible, formatPath(path))
		}
		dump.Leaves = append(dump.Leaves, lj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&dump)
}
