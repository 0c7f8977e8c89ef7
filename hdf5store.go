package snirf

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/scigolib/hdf5"
)

// HDF5Store is a MetadataStore backed by an HDF5 file.
//
// The group tree is loaded once when the file is opened. Groups and datasets
// created through a writable store are staged in memory, so Keys, Has and
// Read see them immediately. Close commits them by rewriting the file: the
// loaded tree plus the staged objects go to a temporary file in the same
// directory, which then replaces the original. A failed commit leaves the
// original untouched, and a store with nothing staged never rewrites.
type HDF5Store struct {
	path     string
	file     *hdf5.File // Read view, loaded at open.
	writable bool

	created map[string]*Value // Staged in this session; nil value marks a group.
}

// OpenHDF5 opens an existing HDF5 file read-only.
//
// Errors:
//   - *NotFoundError if the path does not exist
//   - *AccessError if the file cannot be read (permissions)
//   - *FormatError if the file is not a readable HDF5 file
func OpenHDF5(filename string) (*HDF5Store, error) {
	f, err := openHDF5File(filename)
	if err != nil {
		return nil, err
	}
	return &HDF5Store{
		path:    filename,
		file:    f,
		created: make(map[string]*Value),
	}, nil
}

// OpenHDF5ReadWrite opens an existing HDF5 file for read-modify-write.
// New groups and datasets can be added; existing objects keep their values.
//
// Errors are the same as OpenHDF5, plus *AccessError when the file cannot be
// replaced (permission denied on the file or its directory, read-only
// filesystem).
func OpenHDF5ReadWrite(filename string) (*HDF5Store, error) {
	f, err := openHDF5File(filename)
	if err != nil {
		return nil, err
	}
	if err := checkReplaceable(filename); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &HDF5Store{
		path:     filename,
		file:     f,
		writable: true,
		created:  make(map[string]*Value),
	}, nil
}

// checkReplaceable verifies up front what the commit in Close needs: write
// access to the file and room for a temporary sibling in its directory.
func checkReplaceable(filename string) error {
	//nolint:gosec // G304: User-provided filename is intentional
	f, err := os.OpenFile(filename, os.O_RDWR, 0)
	if err != nil {
		return &AccessError{Path: filename, Op: "open for writing", Err: err}
	}
	_ = f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(filename), tempPattern(filename))
	if err != nil {
		return &AccessError{Path: filename, Op: "create temporary file", Err: err}
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

func openHDF5File(filename string) (*hdf5.File, error) {
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: filename, Err: err}
		}
		return nil, &AccessError{Path: filename, Op: "stat", Err: err}
	}

	f, err := hdf5.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, &AccessError{Path: filename, Op: "open", Err: err}
		}
		return nil, &FormatError{Path: filename, Reason: "not a readable HDF5 file", Err: err}
	}
	return f, nil
}

// Path implements MetadataStore.
func (s *HDF5Store) Path() string { return s.path }

// Writable implements MetadataStore.
func (s *HDF5Store) Writable() bool { return s.writable }

// SuperblockVersion returns the HDF5 superblock version of the underlying file.
func (s *HDF5Store) SuperblockVersion() uint8 {
	if s.file == nil {
		return 0
	}
	return s.file.SuperblockVersion()
}

// ObjectInfo describes one group or dataset in an HDF5 file.
type ObjectInfo struct {
	Path  string
	Group bool
	Class string // Datatype class for datasets: float, integer, string, compound...
	Shape string // "scalar" or "[3 x 2]" for datasets.
}

// Objects walks the file as loaded at open time and returns every group and
// dataset below the root in depth-first order. Datasets whose header cannot be
// summarized are listed with an empty class.
func (s *HDF5Store) Objects() ([]ObjectInfo, error) {
	if s.file == nil {
		return nil, ErrClosed
	}
	var objs []ObjectInfo
	s.file.Walk(func(p string, obj hdf5.Object) {
		p = cleanPath(p)
		if p == "" {
			return
		}
		switch o := obj.(type) {
		case *hdf5.Group:
			objs = append(objs, ObjectInfo{Path: p, Group: true})
		case *hdf5.Dataset:
			oi := ObjectInfo{Path: p}
			if info, err := o.Info(); err == nil {
				if di, err := parseDatasetInfo(info); err == nil {
					oi.Class = di.class
					oi.Shape = di.shape()
				}
			}
			objs = append(objs, oi)
		}
	})
	return objs, nil
}

// lookup resolves a path in the tree loaded at open time.
func (s *HDF5Store) lookup(p string) hdf5.Object {
	if s.file == nil {
		return nil
	}
	var obj hdf5.Object = s.file.Root()
	for _, part := range splitAll(cleanPath(p)) {
		g, ok := obj.(*hdf5.Group)
		if !ok {
			return nil
		}
		obj = findChild(g, part)
		if obj == nil {
			return nil
		}
	}
	return obj
}

// findChild returns the direct child of g named name.
func findChild(g *hdf5.Group, name string) hdf5.Object {
	for _, child := range g.Children() {
		if objectName(child) == name {
			return child
		}
	}
	return nil
}

// objectName normalizes an object name; some group layouts report a path
// rather than a bare link name.
func objectName(obj hdf5.Object) string {
	return path.Base("/" + strings.Trim(obj.Name(), "/"))
}

// HasGroup implements MetadataStore.
func (s *HDF5Store) HasGroup(p string) bool {
	p = cleanPath(p)
	if v, ok := s.created[p]; ok {
		return v == nil
	}
	_, ok := s.lookup(p).(*hdf5.Group)
	return ok
}

// Has implements MetadataStore.
func (s *HDF5Store) Has(p string) bool {
	p = cleanPath(p)
	if _, ok := s.created[p]; ok {
		return true
	}
	return s.lookup(p) != nil
}

// Keys implements MetadataStore.
func (s *HDF5Store) Keys(group string) ([]string, error) {
	if s.file == nil {
		return nil, ErrClosed
	}
	group = cleanPath(group)

	seen := make(map[string]struct{})
	if g, ok := s.lookup(group).(*hdf5.Group); ok {
		for _, child := range g.Children() {
			seen[objectName(child)] = struct{}{}
		}
	} else if v, ok := s.created[group]; !ok || v != nil {
		return nil, fmt.Errorf("group %q not found", group)
	}

	for p := range s.created {
		if parent, name := splitPath(p); parent == group {
			seen[name] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Read implements MetadataStore.
func (s *HDF5Store) Read(p string) (*Value, error) {
	if s.file == nil {
		return nil, ErrClosed
	}
	p = cleanPath(p)
	if v, ok := s.created[p]; ok {
		if v == nil {
			return nil, fmt.Errorf("entry %q is a group", p)
		}
		return v.Clone(), nil
	}

	switch obj := s.lookup(p).(type) {
	case nil:
		return nil, fmt.Errorf("entry %q not found", p)
	case *hdf5.Dataset:
		return readDataset(obj)
	default:
		return nil, fmt.Errorf("entry %q is a group", p)
	}
}

// Write implements MetadataStore. The dataset is staged until Close.
//
// Scalars are stored as one-element arrays: the HDF5 writer requires at least
// one dimension. StoredShape reports this.
func (s *HDF5Store) Write(p string, v *Value) error {
	if err := s.checkCreate(p); err != nil {
		return err
	}
	if v == nil {
		return fmt.Errorf("nil value for %q", cleanPath(p))
	}
	if err := v.Validate(); err != nil {
		return wrapError(fmt.Sprintf("invalid value for %q", cleanPath(p)), err)
	}
	if _, _, _, err := encodeValue(v); err != nil {
		return err
	}
	s.created[cleanPath(p)] = v.Clone()
	return nil
}

// StoredShape implements ShapeNormalizer.
func (s *HDF5Store) StoredShape(v *Value) string {
	return (&Value{Kind: KindArray, Dims: storedDims(v)}).Shape()
}

func storedDims(v *Value) []uint64 {
	if len(v.Dims) == 0 {
		return []uint64{1}
	}
	return v.Dims
}

// CreateGroup implements MetadataStore. The group is staged until Close.
func (s *HDF5Store) CreateGroup(p string) error {
	if err := s.checkCreate(p); err != nil {
		return err
	}
	s.created[cleanPath(p)] = nil
	return nil
}

func (s *HDF5Store) checkCreate(p string) error {
	if s.file == nil {
		return ErrClosed
	}
	if !s.writable {
		return ErrReadOnly
	}
	parent, name := splitPath(p)
	if name == "" {
		return fmt.Errorf("invalid path %q", p)
	}
	if !s.HasGroup(parent) {
		return fmt.Errorf("parent group %q not found", parent)
	}
	if s.Has(p) {
		return fmt.Errorf("entry %q already exists", cleanPath(p))
	}
	return nil
}

// Close implements MetadataStore. Staged objects are committed before the
// read view is released; if the commit fails the file on disk is unchanged.
// Safe to call multiple times.
func (s *HDF5Store) Close() error {
	if s.file == nil {
		return nil
	}

	var errs []error
	var staged string
	if s.writable && len(s.created) > 0 {
		var err error
		if staged, err = s.stage(); err != nil {
			errs = append(errs, wrapError("commit failed", err))
		}
	}

	if err := s.file.Close(); err != nil {
		errs = append(errs, wrapError("file close failed", err))
	}
	s.file = nil

	if staged != "" {
		if err := os.Rename(staged, s.path); err != nil {
			_ = os.Remove(staged)
			errs = append(errs, wrapError("commit failed", err))
		}
	}
	return errors.Join(errs...)
}

// datasetInfo is the parsed form of hdf5.Dataset.Info().
type datasetInfo struct {
	class  string
	size   uint32
	scalar bool
	dims   []uint64
}

func (di *datasetInfo) shape() string {
	if di.scalar {
		return "scalar"
	}
	return (&Value{Kind: KindArray, Dims: di.dims}).Shape()
}

var (
	infoTypeRe  = regexp.MustCompile(`^Dataset: (\w+) \(size=(\d+) bytes\), `)
	infoSpaceRe = regexp.MustCompile(`^(scalar|null|1D array \[(\d+)\]|2D array \[(\d+) x (\d+)\]|\d+D array \[([\d ]+)\])`)
)

// parseDatasetInfo extracts datatype class, element size and dimensions from
// the summary produced by hdf5.Dataset.Info, e.g.
// "Dataset: float (size=8 bytes), 2D array [3 x 4], contiguous (...)".
func parseDatasetInfo(info string) (*datasetInfo, error) {
	m := infoTypeRe.FindStringSubmatch(info)
	if m == nil {
		return nil, fmt.Errorf("unrecognized dataset info %q", info)
	}
	size, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid element size in %q: %w", info, err)
	}
	di := &datasetInfo{class: m[1], size: uint32(size)}

	rest := info[len(m[0]):]
	sm := infoSpaceRe.FindStringSubmatch(rest)
	if sm == nil {
		return nil, fmt.Errorf("unrecognized dataspace in %q", info)
	}

	var dimStrs []string
	switch {
	case sm[1] == "scalar":
		di.scalar = true
		return di, nil
	case sm[1] == "null":
		return nil, fmt.Errorf("null dataspace has no value")
	case sm[2] != "":
		dimStrs = []string{sm[2]}
	case sm[3] != "":
		dimStrs = []string{sm[3], sm[4]}
	default:
		dimStrs = strings.Fields(sm[5])
	}

	for _, d := range dimStrs {
		n, err := strconv.ParseUint(d, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q: %w", d, err)
		}
		di.dims = append(di.dims, n)
	}
	return di, nil
}

// readDataset reads a dataset into a Value, keeping its shape and element type.
func readDataset(ds *hdf5.Dataset) (*Value, error) {
	info, err := ds.Info()
	if err != nil {
		return nil, wrapError("dataset info failed", err)
	}
	di, err := parseDatasetInfo(info)
	if err != nil {
		return nil, err
	}

	switch di.class {
	case "string":
		strs, err := ds.ReadStrings()
		if err != nil {
			return nil, wrapError("string read failed", err)
		}
		dims := di.dims
		if di.scalar {
			dims = []uint64{uint64(len(strs))}
		}
		return &Value{
			Kind:     KindString,
			Class:    ClassString,
			ElemSize: di.size,
			Dims:     dims,
			Strings:  strs,
		}, nil

	case "float", "integer":
		nums, err := ds.Read()
		if err != nil {
			return nil, wrapError("numeric read failed", err)
		}
		v := &Value{
			Kind:     KindArray,
			Class:    ClassFloat,
			ElemSize: di.size,
			Dims:     di.dims,
			Numbers:  nums,
		}
		if di.class == "integer" {
			v.Class = ClassInteger
		}
		if di.scalar {
			v.Kind = KindScalar
			v.Dims = nil
		}
		return v, v.Validate()

	default:
		return nil, fmt.Errorf("unsupported datatype %q", di.class)
	}
}

// encodeValue maps a Value onto the HDF5 writer's datatype and Go slice type.
// Numbers that the target type cannot hold exactly are an error, never a
// silent conversion.
func encodeValue(v *Value) (hdf5.Datatype, interface{}, []hdf5.DatasetOption, error) {
	switch v.Class {
	case ClassString:
		size := v.ElemSize
		for _, s := range v.Strings {
			size = max(size, uint32(len(s))) //nolint:gosec // G115: string length bounded by memory
		}
		size = max(size, 1)
		return hdf5.String, v.Strings, []hdf5.DatasetOption{hdf5.WithStringSize(size)}, nil

	case ClassFloat:
		switch v.ElemSize {
		case 4:
			out := make([]float32, len(v.Numbers))
			for i, n := range v.Numbers {
				if !math.IsInf(n, 0) && math.Abs(n) > math.MaxFloat32 {
					return 0, nil, nil, fmt.Errorf("value %v at index %d overflows float32", n, i)
				}
				out[i] = float32(n)
			}
			return hdf5.Float32, out, nil, nil
		case 8, 0:
			return hdf5.Float64, v.Numbers, nil, nil
		}

	case ClassInteger:
		var (
			out interface{}
			err error
		)
		dtype := hdf5.Int64
		switch v.ElemSize {
		case 1:
			dtype = hdf5.Int8
			out, err = toInts[int8](v.Numbers, 8)
		case 2:
			dtype = hdf5.Int16
			out, err = toInts[int16](v.Numbers, 16)
		case 4:
			dtype = hdf5.Int32
			out, err = toInts[int32](v.Numbers, 32)
		case 8:
			out, err = toInts[int64](v.Numbers, 64)
		default:
			return 0, nil, nil, fmt.Errorf("unsupported element type %s/%d bytes", v.Class, v.ElemSize)
		}
		if err != nil {
			return 0, nil, nil, err
		}
		return dtype, out, nil, nil
	}
	return 0, nil, nil, fmt.Errorf("unsupported element type %s/%d bytes", v.Class, v.ElemSize)
}

// toInts converts numbers to a signed integer type of the given width.
// Integers are always written signed, so an unsigned value above the signed
// range is rejected along with fractions, NaN and infinities.
func toInts[T int8 | int16 | int32 | int64](nums []float64, bits int) ([]T, error) {
	limit := math.Ldexp(1, bits-1)
	out := make([]T, len(nums))
	for i, n := range nums {
		if n != math.Trunc(n) || n < -limit || n >= limit {
			return nil, fmt.Errorf("value %v at index %d does not fit a %d-bit signed integer", n, i, bits)
		}
		out[i] = T(n)
	}
	return out, nil
}
