package bsp

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/crystalspace/CS-sub013/polygon"
)

// Upper bound for the number of recorded choices in a cache blob.
const maxCacheChoices = 1 << 20

// Write the splitter choices of the tree in preorder. Rebuilding from the
// same input list with these choices reproduces the tree without scoring
// splitter candidates.
//
// Layout (little endian): int32 choice count followed by the choices; -1
// marks a missing child.
func (t *Tree) WriteCache(w io.Writer) error {
	var choices []int32
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil {
			choices = append(choices, -1)
			return
		}
		choices = append(choices, int32(n.splitIdx))
		walk(n.Front)
		walk(n.Back)
	}
	walk(t.root)

	if err := binary.Write(w, binary.LittleEndian, int32(len(choices))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, choices)
}

// Rebuild a tree over handles using the choices written by WriteCache.
func ReadCache(r io.Reader, arena *polygon.Arena, handles []polygon.Handle) (*Tree, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("bsp: reading cache: %w", err)
	}
	if count < 0 || count > maxCacheChoices {
		return nil, ErrCacheMismatch
	}
	recorded := make([]int32, count)
	if err := binary.Read(r, binary.LittleEndian, recorded); err != nil {
		return nil, fmt.Errorf("bsp: reading cache: %w", err)
	}

	// Only non-nil entries drive the rebuild; nil markers are implied by
	// empty work lists.
	choices := make([]int32, 0, len(recorded))
	for _, c := range recorded {
		if c >= 0 {
			choices = append(choices, c)
		}
	}

	t := &Tree{
		arena:   arena,
		input:   append([]polygon.Handle(nil), handles...),
		choices: choices,
		replay:  true,
	}
	work := make([]polygon.Handle, 0, len(handles))
	for _, h := range handles {
		arena.IncRef(h)
		work = append(work, h)
	}
	t.root = t.build(work)
	t.replay = false
	if t.err == nil && len(t.choices) != 0 {
		t.err = ErrCacheMismatch
	}
	if t.err != nil {
		t.Release()
		return nil, t.err
	}
	return t, nil
}
