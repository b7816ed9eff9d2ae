package pvs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"
	"testing"

	"github.com/crystalspace/CS-sub013/octree"
	"github.com/crystalspace/CS-sub013/types"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func pvsIDs(tree *octree.Octree) [][]int {
	out := make([][]int, len(tree.Nodes()))
	for i, n := range tree.Nodes() {
		for _, entry := range n.PVS.Visible() {
			out[i] = append(out[i], entry.Node.ID)
		}
		sort.Ints(out[i])
	}
	return out
}

func cacheHeader(version int32) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString(cacheMagic)
	binary.Write(&buf, binary.LittleEndian, version)
	return &buf
}

func requireCleared(t *testing.T, tree *octree.Octree) {
	for _, n := range tree.Nodes() {
		require.Zero(t, n.PVS.Len(), "node %d", n.ID)
	}
}

func TestNodePath(t *testing.T) {
	tree, _ := wallTreeBuilder(t, false)

	path, err := NodePath(tree.Root())
	require.NoError(t, err)
	require.Empty(t, path)
	require.Equal(t, "/", formatPath(path))

	leaf := tree.Node(5)
	path, err = NodePath(leaf)
	require.NoError(t, err)
	require.Equal(t, []byte{5}, path)
	require.Equal(t, "/4", formatPath(path))
	require.Equal(t, leaf, NodeFromPath(tree.Root(), path))

	require.Equal(t, tree.Root(), NodeFromPath(tree.Root(), nil))
	require.Nil(t, NodeFromPath(tree.Root(), []byte{0}))
	require.Nil(t, NodeFromPath(tree.Root(), []byte{9}))
	require.Nil(t, NodeFromPath(tree.Root(), []byte{5, 1}))
}

func TestCacheRoundTrip(t *testing.T) {
	tree, _ := wallTreeBuilder(t, false)
	exp := pvsIDs(tree)

	var buf bytes.Buffer
	require.NoError(t, Cache(&buf, tree))
	require.Equal(t, cacheMagic, buf.String()[:4])

	for _, n := range tree.Nodes() {
		n.PVS.Clear()
	}
	require.NoError(t, ReadCache(&buf, tree))
	require.Equal(t, exp, pvsIDs(tree))
}

func TestReadCacheErrors(t *testing.T) {
	tree, _ := wallTreeBuilder(t, false)
	var valid bytes.Buffer
	require.NoError(t, Cache(&valid, tree))
	data := valid.Bytes()

	badMagic := append([]byte("SVPO"), data[4:]...)
	badCheck := append([]byte(nil), data...)
	badCheck[len(badCheck)-1] = 'Y'

	mismatch := cacheHeader(cacheVersion)
	mismatch.Write([]byte{3, 5, 1})

	specs := []struct {
		data   []byte
		expErr error
	}{
		{badMagic, ErrBadMagic},
		{cacheHeader(cacheVersion + 1).Bytes(), ErrBadVersion},
		{badCheck, ErrBadCheckByte},
		{mismatch.Bytes(), ErrPathMismatch},
	}
	for index, spec := range specs {
		_, b := wallTreeBuilder(t, false)
		err := ReadCache(bytes.NewReader(spec.data), b.Tree)
		if !errors.Is(err, spec.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, spec.expErr, err)
		}
		requireCleared(t, b.Tree)
	}

	// Truncated data
	err := ReadCache(bytes.NewReader(data[:len(data)/2]), tree)
	require.Error(t, err)
	requireCleared(t, tree)
}

func TestRejectedCacheShowsEverything(t *testing.T) {
	tree, _ := wallTreeBuilder(t, false)
	var valid bytes.Buffer
	require.NoError(t, Cache(&valid, tree))
	badMagic := append([]byte("SVPO"), valid.Bytes()[4:]...)

	require.ErrorIs(t, ReadCache(bytes.NewReader(badMagic), tree), ErrBadMagic)
	requireCleared(t, tree)

	ctx := octree.NewFrameContext()
	tree.MarkVisibleFromPVS(ctx, types.Vec3{5, 5, 5})
	for _, n := range tree.Nodes() {
		require.True(t, ctx.IsVisible(n), "node %d", n.ID)
	}
}

func TestWriteJSON(t *testing.T) {
	tree, _ := wallTreeBuilder(t, false)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tree))

	var dump dumpJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dump))
	require.Equal(t, 9, dump.Nodes)
	require.Len(t, dump.Leaves, 8)

	var found bool
	for _, leaf := range dump.Leaves {
		if leaf.ID != 5 {
			continue
		}
		found = true
		require.Equal(t, "/4", leaf.Path)
		require.Zero(t, leaf.Polygons)
		require.Len(t, leaf.Visible, 6)
		require.Contains(t, leaf.Visible, "/")
		require.NotContains(t, leaf.Visible, "/0")
	}
	require.True(t, found)
}
