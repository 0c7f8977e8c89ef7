package snirf

import (
	"fmt"
	"sort"
)

// MemStore is an in-memory MetadataStore. It mirrors the group/dataset tree of
// an HDF5 file and is used for tests and for callers that assemble probe
// metadata before writing it out.
type MemStore struct {
	path     string
	readOnly bool
	root     *memNode
	closed   bool
}

// memNode is a group when value is nil, a dataset otherwise.
type memNode struct {
	children map[string]*memNode
	value    *Value
}

func newGroupNode() *memNode {
	return &memNode{children: make(map[string]*memNode)}
}

// NewMemStore returns an empty writable store identified by path.
func NewMemStore(path string) *MemStore {
	return &MemStore{
		path: path,
		root: newGroupNode(),
	}
}

// View returns a new handle sharing this store's tree. Closing the view does
// not close s.
func (s *MemStore) View(readOnly bool) *MemStore {
	return &MemStore{
		path:     s.path,
		readOnly: readOnly,
		root:     s.root,
	}
}

// Path implements MetadataStore.
func (s *MemStore) Path() string { return s.path }

// Writable implements MetadataStore.
func (s *MemStore) Writable() bool { return !s.readOnly && !s.closed }

func (s *MemStore) lookup(p string) *memNode {
	p = cleanPath(p)
	node := s.root
	if p == "" {
		return node
	}
	for _, part := range splitAll(p) {
		if node.value != nil {
			return nil
		}
		next, ok := node.children[part]
		if !ok {
			return nil
		}
		node = next
	}
	return node
}

// HasGroup implements MetadataStore.
func (s *MemStore) HasGroup(p string) bool {
	n := s.lookup(p)
	return n != nil && n.value == nil
}

// Has implements MetadataStore.
func (s *MemStore) Has(p string) bool {
	return s.lookup(p) != nil
}

// Keys implements MetadataStore.
func (s *MemStore) Keys(group string) ([]string, error) {
	if s.closed {
		return nil, ErrClosed
	}
	n := s.lookup(group)
	if n == nil || n.value != nil {
		return nil, fmt.Errorf("group %q not found", cleanPath(group))
	}
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Read implements MetadataStore.
func (s *MemStore) Read(p string) (*Value, error) {
	if s.closed {
		return nil, ErrClosed
	}
	n := s.lookup(p)
	if n == nil {
		return nil, fmt.Errorf("entry %q not found", cleanPath(p))
	}
	if n.value == nil {
		return nil, fmt.Errorf("entry %q is a group", cleanPath(p))
	}
	return n.value.Clone(), nil
}

// Write implements MetadataStore.
func (s *MemStore) Write(p string, v *Value) error {
	parent, err := s.prepareChild(p)
	if err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("nil value for %q", cleanPath(p))
	}
	if err := v.Validate(); err != nil {
		return wrapError(fmt.Sprintf("invalid value for %q", cleanPath(p)), err)
	}
	_, name := splitPath(p)
	parent.children[name] = &memNode{value: v.Clone()}
	return nil
}

// CreateGroup implements MetadataStore.
func (s *MemStore) CreateGroup(p string) error {
	parent, err := s.prepareChild(p)
	if err != nil {
		return err
	}
	_, name := splitPath(p)
	parent.children[name] = newGroupNode()
	return nil
}

// prepareChild checks that p can be created and returns its parent group.
func (s *MemStore) prepareChild(p string) (*memNode, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.readOnly {
		return nil, ErrReadOnly
	}
	parentPath, name := splitPath(p)
	if name == "" {
		return nil, fmt.Errorf("invalid path %q", p)
	}
	parent := s.lookup(parentPath)
	if parent == nil || parent.value != nil {
		return nil, fmt.Errorf("parent group %q not found", parentPath)
	}
	if _, exists := parent.children[name]; exists {
		return nil, fmt.Errorf("entry %q already exists", cleanPath(p))
	}
	return parent, nil
}

// Close implements MetadataStore.
func (s *MemStore) Close() error {
	s.closed = true
	return nil
}

func splitAll(p string) []string {
	var parts []string
	for p != "" {
		parent, name := splitPath(p)
		parts = append([]string{name}, parts...)
		p = parent
	}
	return parts
}
