package pvs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/crystalspace/CS-sub013/octree"
)

const (
	cacheMagic   = "OPVS"
	cacheVersion = 100001

	// Written after the entries of every node.
	checkByte = 'X'

	// Path lengths are stored in a byte together with the end marker.
	maxPathLen = 254
)

// Get the path from the root to n. Every byte is a child index plus one.
// The root has an empty path.
func NodePath(n *octree.Node) ([]byte, error) {
	var path []byte
	for cur := n; cur.Parent() != nil; cur = cur.Parent() {
		idx := -1
		for i, child := range cur.Parent().Children {
			if child == cur {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("%w: node %d is not a child of its parent", ErrPathMismatch, cur.ID)
		}
		path = append(path, byte(idx+1))
	}
	if len(path) > maxPathLen {
		return nil, ErrPathTooLong
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Follow path from root. Returns nil if the path leaves the tree.
func NodeFromPath(root *octree.Node, path []byte) *octree.Node {
	n := root
	for _, step := range path {
		if n == nil || step == 0 || step > 8 {
			return nil
		}
		n = n.Children[step-1]
	}
	return n
}

// Write the PVS of every node to w. Nodes are written in preorder; each
// one lists the paths of its visible nodes followed by a zero byte and a
// check byte.
func Cache(w io.Writer, tree *octree.Octree) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(cacheMagic); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(cacheVersion)); err != nil {
		return err
	}
	if err := cacheNode(bw, tree.Root()); err != nil {
		return err
	}
	return bw.Flush()
}

func cacheNode(w *bufio.Writer, n *octree.Node) error {
	if n == nil {
		return nil
	}
	for _, entry := range n.PVS.Visible() {
		path, err := NodePath(entry.Node)
		if err != nil {
			return err
		}
		if err = w.WriteByte(byte(len(path) + 1)); err != nil {
			return err
		}
		if _, err = w.Write(path); err != nil {
			return err
		}
	}
	if err := w.WriteByte(0); err != nil {
		return err
	}
	if err := w.WriteByte(checkByte); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := cacheNode(w, child); err != nil {
			return err
		}
	}
	return nil
}

// Load the PVS of every node of tree from a cache written by Cache. If the
// cache does not match the tree every PVS is cleared so that all nodes are
// treated as visible, and an error is returned.
func ReadCache(r io.Reader, tree *octree.Octree) error {
	err := readCache(bufio.NewReader(r), tree)
	if err != nil {
		clearPVS(tree)
	}
	return err
}

// Drop the PVS of every node. A node without PVS sees everything.
func clearPVS(tree *octree.Octree) {
	for _, n := range tree.Nodes() {
		n.PVS.Clear()
	}
}

func readCache(r *bufio.Reader, tree *octree.Octree) error {
	magic := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("pvs: reading cache header: %w", err)
	}
	if string(magic) != cacheMagic {
		return ErrBadMagic
	}
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("pvs: reading cache header: %w", err)
	}
	if version != cacheVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrBadVersion, version, cacheVersion)
	}
	return readNode(r, tree.Root(), tree.Root())
}

func readNode(r *bufio.Reader, root, n *octree.Node) error {
	if n == nil {
		return nil
	}
	n.PVS.Clear()

	path := make([]byte, maxPathLen)
	for {
		size, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("pvs: reading node %d: %w", n.ID, err)
		}
		if size == 0 {
			break
		}
		size--
		if _, err = io.ReadFull(r, path[:size]); err != nil {
			return fmt.Errorf("pvs: reading node %d: %w", n.ID, err)
		}
		visible := NodeFromPath(root, path[:size])
		if visible == nil {
			return fmt.Errorf("%w: node %d lists path %v", ErrPathMismatch, n.ID, path[:size])
		}
		n.PVS.Add(visible)
	}

	check, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("pvs: reading node %d: %w", n.ID, err)
	}
	if check != checkByte {
		return fmt.Errorf("%w: node %d", ErrBadCheckByte, n.ID)
	}

	for _, child := range n.Children {
		if err = readNode(r, root, child); err != nil {
			return err
		}
	}
	return nil
}
