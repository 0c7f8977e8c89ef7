package snirf

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Opener locates and opens the stores a Reconciler works on.
type Opener interface {
	// Stat returns an error wrapping fs.ErrNotExist when path does not exist.
	Stat(path string) error

	// Open opens the store at path, read-only unless writable is set.
	Open(path string, writable bool) (MetadataStore, error)
}

// HDF5Opener opens SNIRF files from the local filesystem.
type HDF5Opener struct{}

// Stat implements Opener.
func (HDF5Opener) Stat(path string) error {
	_, err := os.Stat(path)
	return err
}

// Open implements Opener.
func (HDF5Opener) Open(path string, writable bool) (MetadataStore, error) {
	var (
		s   *HDF5Store
		err error
	)
	if writable {
		s, err = OpenHDF5ReadWrite(path)
	} else {
		s, err = OpenHDF5(path)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for progress and per-field events.
// The default logger discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithDryRun makes the reconciler plan without writing. The report lists the
// keys that would be copied and whether the probe group would be created.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) {
		r.dryRun = dryRun
	}
}

// WithOpener replaces the store opener. The default opens HDF5 files.
func WithOpener(opener Opener) Option {
	return func(r *Reconciler) {
		if opener != nil {
			r.opener = opener
		}
	}
}

// WithClock sets the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// checkExists maps a Stat failure to the reconciler's error kinds.
func checkExists(opener Opener, path string) error {
	err := opener.Stat(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return &NotFoundError{Path: path, Err: err}
	default:
		return &AccessError{Path: path, Op: "stat", Err: err}
	}
}
