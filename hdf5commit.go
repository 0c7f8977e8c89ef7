package snirf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/scigolib/hdf5"
)

// The HDF5 writer links new objects only into the root group or into groups
// created by the same writer, so objects cannot be appended below an existing
// nested group such as nirs/probe. A commit therefore rebuilds the whole file
// in one writer session.

// node is one object of a file being rebuilt.
type node struct {
	path  string
	value *Value // Nil for groups.
	attrs []attribute
}

type attribute struct {
	name  string
	value interface{}
}

// attributeWriter is satisfied by hdf5.GroupWriter and hdf5.DatasetWriter.
type attributeWriter interface {
	WriteAttribute(name string, value interface{}) error
}

func tempPattern(filename string) string {
	return "." + filepath.Base(filename) + ".*.tmp"
}

// stage writes the loaded tree plus the staged objects to a temporary file
// next to the original and returns its name. Nothing is written when an
// existing object cannot be reproduced.
func (s *HDF5Store) stage() (string, error) {
	nodes, err := s.snapshot()
	if err != nil {
		return "", err
	}
	nodes = append(nodes, s.pending()...)

	st, err := os.Stat(s.path)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), tempPattern(s.path))
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	_ = tmp.Close()

	if err := writeNodes(name, nodes); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	if err := os.Chmod(name, st.Mode().Perm()); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// snapshot reads every group and dataset of the loaded file, with their
// attributes, in depth-first order.
func (s *HDF5Store) snapshot() ([]node, error) {
	root := s.file.Root()
	attrs, err := root.Attributes()
	if err != nil {
		return nil, wrapError("root attributes unreadable", err)
	}
	if len(attrs) > 0 {
		return nil, fmt.Errorf("root group has %d attributes, which the HDF5 writer cannot recreate", len(attrs))
	}

	var nodes []node
	if err := collect(root, "", &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func collect(g *hdf5.Group, prefix string, nodes *[]node) error {
	for _, child := range g.Children() {
		p := joinPath(prefix, objectName(child))
		switch o := child.(type) {
		case *hdf5.Group:
			attrs, err := groupAttributes(o)
			if err != nil {
				return wrapError(fmt.Sprintf("group %q", p), err)
			}
			*nodes = append(*nodes, node{path: p, attrs: attrs})
			if err := collect(o, p, nodes); err != nil {
				return err
			}
		case *hdf5.Dataset:
			v, err := readDataset(o)
			if err != nil {
				return wrapError(fmt.Sprintf("dataset %q cannot be rewritten", p), err)
			}
			attrs, err := datasetAttributes(o)
			if err != nil {
				return wrapError(fmt.Sprintf("dataset %q", p), err)
			}
			*nodes = append(*nodes, node{path: p, value: v, attrs: attrs})
		default:
			return fmt.Errorf("entry %q has unsupported object type %T", p, child)
		}
	}
	return nil
}

func groupAttributes(g *hdf5.Group) ([]attribute, error) {
	list, err := g.Attributes()
	if err != nil {
		return nil, err
	}
	attrs := make([]attribute, 0, len(list))
	for _, a := range list {
		v, err := a.ReadValue()
		if err != nil {
			return nil, wrapError(fmt.Sprintf("attribute %q", a.Name), err)
		}
		attrs = append(attrs, attribute{name: a.Name, value: v})
	}
	return attrs, nil
}

func datasetAttributes(d *hdf5.Dataset) ([]attribute, error) {
	names, err := d.ListAttributes()
	if err != nil {
		return nil, err
	}
	attrs := make([]attribute, 0, len(names))
	for _, name := range names {
		v, err := d.ReadAttribute(name)
		if err != nil {
			return nil, wrapError(fmt.Sprintf("attribute %q", name), err)
		}
		attrs = append(attrs, attribute{name: name, value: v})
	}
	return attrs, nil
}

// pending returns the staged objects with every parent ahead of its children.
func (s *HDF5Store) pending() []node {
	paths := make([]string, 0, len(s.created))
	for p := range s.created {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	nodes := make([]node, 0, len(paths))
	for _, p := range paths {
		nodes = append(nodes, node{path: p, value: s.created[p]})
	}
	return nodes
}

// writeNodes creates filename holding nodes, in order, in a single writer
// session.
func writeNodes(filename string, nodes []node) (err error) {
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	if err != nil {
		return wrapError("create failed", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = wrapError("writer close failed", cerr)
		}
	}()

	for _, n := range nodes {
		if n.value == nil {
			gw, err := fw.CreateGroup("/" + n.path)
			if err != nil {
				return wrapError(fmt.Sprintf("group %q create failed", n.path), err)
			}
			if err := writeAttributes(gw, n); err != nil {
				return err
			}
			continue
		}
		if err := writeDataset(fw, n); err != nil {
			return err
		}
	}
	return nil
}

func writeDataset(fw *hdf5.FileWriter, n node) error {
	dtype, data, opts, err := encodeValue(n.value)
	if err != nil {
		return wrapError(fmt.Sprintf("dataset %q", n.path), err)
	}
	dw, err := fw.CreateDataset("/"+n.path, dtype, storedDims(n.value), opts...)
	if err != nil {
		return wrapError(fmt.Sprintf("dataset %q create failed", n.path), err)
	}
	if err := dw.Write(data); err != nil {
		_ = dw.Close()
		return wrapError(fmt.Sprintf("dataset %q write failed", n.path), err)
	}
	if err := writeAttributes(dw, n); err != nil {
		_ = dw.Close()
		return err
	}
	if err := dw.Close(); err != nil {
		return wrapError(fmt.Sprintf("dataset %q close failed", n.path), err)
	}
	return nil
}

func writeAttributes(w attributeWriter, n node) error {
	for _, a := range n.attrs {
		if err := w.WriteAttribute(a.name, a.value); err != nil {
			return wrapError(fmt.Sprintf("attribute %q of %q", a.name, n.path), err)
		}
	}
	return nil
}
