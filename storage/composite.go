package storage

import (
	"fmt"
	"sort"
)

// ErrFragmentIntersection is returned by Mount when the new range
// overlaps an existing fragment.
type ErrFragmentIntersection struct {
	Base, Length, ExistingBase, ExistingLength uint32
}

func (e *ErrFragmentIntersection) Error() string {
	return fmt.Sprintf("composite: range [0x%08X, 0x%08X) intersects existing fragment [0x%08X, 0x%08X)",
		e.Base, e.Base+e.Length, e.ExistingBase, e.ExistingBase+e.ExistingLength)
}

// ErrKeyAlreadyExists is returned by Mount when key is already bound.
type ErrKeyAlreadyExists struct{ Key string }

func (e *ErrKeyAlreadyExists) Error() string {
	return fmt.Sprintf("composite: key %q already exists", e.Key)
}

type fragment struct {
	base  uint32
	child Storage
	key   string
}

// Composite is an address-ranged composition of child storages. Bases
// are kept sorted ascending; adjacent fragments never overlap, and keys
// are unique. This generalizes a fixed four-segment
// Memory (code/data/heap/stack in vm/memory.go) into an arbitrary
// mountable fragment table, still routed by address via findSegment's
// "which segment contains this address" idiom, but binary-searched
// since the fragment count here is unbounded rather than fixed at four.
type Composite struct {
	frags []fragment
}

// NewComposite returns an empty composite storage.
func NewComposite() *Composite {
	return &Composite{}
}

// Length is last.base + length(last.child), or 0 if empty.
func (c *Composite) Length() uint32 {
	if len(c.frags) == 0 {
		return 0
	}
	last := c.frags[len(c.frags)-1]
	return last.base + last.child.Length()
}

// Mount places child at base under key.
func (c *Composite) Mount(base uint32, key string, child Storage) error {
	for _, f := range c.frags {
		if f.key == key {
			return &ErrKeyAlreadyExists{Key: key}
		}
	}

	length := child.Length()
	end := base + length
	if end < base {
		panic(fmt.Sprintf("composite: mount base 0x%08X + length %d overflows", base, length))
	}

	idx := sort.Search(len(c.frags), func(i int) bool { return c.frags[i].base >= base })

	if idx > 0 {
		prev := c.frags[idx-1]
		if prev.base+prev.child.Length() > base {
			return &ErrFragmentIntersection{Base: base, Length: length, ExistingBase: prev.base, ExistingLength: prev.child.Length()}
		}
	}
	if idx < len(c.frags) {
		next := c.frags[idx]
		if end > next.base {
			return &ErrFragmentIntersection{Base: base, Length: length, ExistingBase: next.base, ExistingLength: next.child.Length()}
		}
	}

	c.frags = append(c.frags, fragment{})
	copy(c.frags[idx+1:], c.frags[idx:])
	c.frags[idx] = fragment{base: base, child: child, key: key}
	return nil
}

// Unmount removes the binding for key and returns its child, if bound.
func (c *Composite) Unmount(key string) (Storage, bool) {
	for i, f := range c.frags {
		if f.key == key {
			c.frags = append(c.frags[:i], c.frags[i+1:]...)
			return f.child, true
		}
	}
	return nil, false
}

// lookup finds the fragment whose range contains address A: a binary
// search for the base, falling to the predecessor index when A isn't
// itself a base.
func (c *Composite) lookup(addr uint32) (fragment, uint32, bool) {
	idx := sort.Search(len(c.frags), func(i int) bool { return c.frags[i].base > addr })
	if idx == 0 {
		return fragment{}, 0, false
	}
	f := c.frags[idx-1]
	offset := addr - f.base
	if offset < f.child.Length() {
		return f, offset, true
	}
	return fragment{}, 0, false
}

func (c *Composite) InRange(addr, size uint32) bool {
	if size == 0 {
		return addr <= c.Length()
	}
	f, offset, ok := c.lookup(addr)
	if !ok {
		return false
	}
	return f.child.InRange(offset, size)
}

func (c *Composite) Borrow(addr, size uint32) ([]byte, error) {
	f, offset, ok := c.lookup(addr)
	if !ok {
		return nil, &OutOfRangeError{Addr: addr, Size: size, Length: c.Length()}
	}
	return f.child.Borrow(offset, size)
}

func (c *Composite) BorrowMut(addr, size uint32) ([]byte, error) {
	f, offset, ok := c.lookup(addr)
	if !ok {
		return nil, &OutOfRangeError{Addr: addr, Size: size, Length: c.Length()}
	}
	return f.child.BorrowMut(offset, size)
}

func (c *Composite) Read(addr, size uint32) (uint32, error) {
	checkSize(size)
	f, offset, ok := c.lookup(addr)
	if !ok {
		return 0, &OutOfRangeError{Addr: addr, Size: size, Length: c.Length()}
	}
	return f.child.Read(offset, size)
}

func (c *Composite) Write(addr, size, value uint32) error {
	checkSize(size)
	f, offset, ok := c.lookup(addr)
	if !ok {
		return &OutOfRangeError{Addr: addr, Size: size, Length: c.Length()}
	}
	return f.child.Write(offset, size, value)
}
