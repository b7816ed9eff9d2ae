package octree

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/crystalspace/CS-sub013/bsp"
	"github.com/crystalspace/CS-sub013/config"
	"github.com/crystalspace/CS-sub013/polygon"
	"github.com/crystalspace/CS-sub013/types"
)

const (
	cacheMagic   = "OCTR"
	cacheVersion = 100002

	// Byte terminating the child records of a node.
	childEndMarker = 255
)

// The fixed part of a node record.
type nodeRecord struct {
	Count      int32
	Center     [3]float32
	SolidMasks [6]uint16
	Leaf       bool
	MiniBSP    bool
}

type cacheHeader struct {
	Magic         [4]byte
	Version       int32
	Box           [6]float32
	LeafThreshold int32
	Mode          int32
}

// Write the tree to w. Multi-byte values are little endian.
func (t *Octree) Cache(w io.Writer) error {
	bw := bufio.NewWriter(w)
	hdr := cacheHeader{
		Version:       cacheVersion,
		LeafThreshold: int32(t.leafThreshold),
		Mode:          int32(t.mode),
	}
	copy(hdr.Magic[:], cacheMagic)
	copy(hdr.Box[:3], t.bbox.Lo[:])
	copy(hdr.Box[3:], t.bbox.Hi[:])
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	if err := t.cacheNode(bw, t.root); err != nil {
		return err
	}
	return bw.Flush()
}

func (t *Octree) cacheNode(w io.Writer, n *Node) error {
	rec := nodeRecord{
		Count:      int32(len(n.Unsplit)),
		Center:     n.Center,
		SolidMasks: n.SolidMasks,
		Leaf:       n.leaf,
		MiniBSP:    n.MiniBSP != nil,
	}
	if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
		return err
	}
	if n.MiniBSP != nil {
		if err := n.MiniBSP.WriteCache(w); err != nil {
			return err
		}
	}
	if n.leaf {
		return nil
	}
	for idx, child := range n.Children {
		if child == nil {
			continue
		}
		if err := binary.Write(w, binary.LittleEndian, uint8(idx)); err != nil {
			return err
		}
		if err := t.cacheNode(w, child); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, uint8(childEndMarker))
}

// Rebuild a tree over handles from a cache written by Cache. The stored
// split points are replayed so the same polygon partition is produced;
// every node checks that it received as many polygons as it had when the
// cache was written. The bounding box, leaf threshold and mode stored in
// the cache replace the configured values.
func ReadCache(r io.Reader, arena *polygon.Arena, handles []polygon.Handle, cfg *config.Config) (*Octree, error) {
	start := time.Now()
	br := bufio.NewReader(r)

	var hdr cacheHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("octree: reading cache header: %w", err)
	}
	if string(hdr.Magic[:]) != cacheMagic {
		return nil, ErrBadMagic
	}
	if hdr.Version != cacheVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrBadVersion, hdr.Version, cacheVersion)
	}

	bbox := types.Box3{
		Lo: types.Vec3{hdr.Box[0], hdr.Box[1], hdr.Box[2]},
		Hi: types.Vec3{hdr.Box[3], hdr.Box[4], hdr.Box[5]},
	}
	t := newOctree(arena, bbox, cfg)
	t.leafThreshold = int(hdr.LeafThreshold)
	t.mode = int(hdr.Mode)
	t.cfg.Octree.LeafThreshold = t.leafThreshold
	t.cfg.Octree.Mode = t.mode

	t.root = &Node{Box: bbox}
	if err := t.readNode(br, t.root, handles); err != nil {
		t.assignIDs()
		t.Release()
		return nil, err
	}
	t.assignIDs()
	t.logger.Debugf("octree cache loaded in %d ms, nodes: %d", time.Since(start).Nanoseconds()/1e6, len(t.nodes))
	return t, nil
}

func (t *Octree) readNode(r io.Reader, n *Node, work []polygon.Handle) error {
	var rec nodeRecord
	if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
		return fmt.Errorf("octree: reading node: %w", err)
	}
	if int(rec.Count) != len(work) {
		return fmt.Errorf("%w: node has %d polygons, cache expects %d", ErrPolygonCountMismatch, len(work), rec.Count)
	}

	n.Center = rec.Center
	n.SolidMasks = rec.SolidMasks
	n.Unsplit = append([]polygon.Handle(nil), work...)
	for _, h := range n.Unsplit {
		t.arena.IncRef(h)
	}

	if rec.MiniBSP {
		tree, err := bsp.ReadCache(r, t.arena, work)
		if err != nil {
			return err
		}
		n.MiniBSP = tree
	}
	if rec.Leaf || rec.MiniBSP {
		n.leaf = true
		return nil
	}

	parts, fragments := t.split8(work, n.Center)
	defer func() {
		for _, h := range fragments {
			t.arena.DecRef(h)
		}
	}()

	var idx uint8
	for i := range n.Children {
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return fmt.Errorf("octree: reading child index: %w", err)
		}
		if int(idx) != i {
			return fmt.Errorf("%w: got %d, expected %d", ErrBadChildIndex, idx, i)
		}
		child := &Node{Box: childBox(n.Box, n.Center, i), Depth: n.Depth + 1, parent: n}
		n.Children[i] = child
		if err := t.readNode(r, child, parts[i]); err != nil {
			return err
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
		return fmt.Errorf("octree: reading end marker: %w", err)
	}
	if idx != childEndMarker {
		return fmt.Errorf("%w: got %d", ErrMissingEndMarker, idx)
	}
	return nil
}
