package snirf

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Reconciler copies probe metadata that is present in a source SNIRF store
// but missing from a target store. Entries already present in the target are
// authoritative and never overwritten; entries only in the target are never
// deleted.
//
// A Reconciler holds no per-run state and may be reused.
type Reconciler struct {
	logger zerolog.Logger
	dryRun bool
	opener Opener
	now    func() time.Time
}

// New returns a Reconciler configured by opts.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		logger: zerolog.Nop(),
		opener: HDF5Opener{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile makes the probe group of the file at targetPath complete relative
// to the file at sourcePath.
//
// Parameters:
//   - sourcePath: SNIRF file read for missing fields (opened read-only)
//   - targetPath: SNIRF file that receives missing fields (opened read-write)
//   - opts: WithLogger, WithDryRun, WithOpener, WithClock
//
// Returns:
//   - *Report: copied, existing, target-only and failed keys
//   - error: *NotFoundError, *FormatError or *AccessError; nothing is written
//     when one of these aborts the run. Copies into an HDF5 target land
//     together when the target is closed; if that commit fails the target is
//     unchanged and an *AccessError with Op "close" is returned. Per-field
//     failures are not returned here but recorded in Report.Failed.
//
// Example:
//
//	report, err := snirf.Reconcile("raw_data.snirf", "processed.snirf")
//	if err != nil {
//	    return err
//	}
//	fmt.Println("copied:", report.Copied)
func Reconcile(sourcePath, targetPath string, opts ...Option) (*Report, error) {
	return New(opts...).Reconcile(sourcePath, targetPath)
}

// Reconcile opens both stores, reconciles them and releases them on every
// exit path. See the package-level Reconcile for the contract.
func (r *Reconciler) Reconcile(sourcePath, targetPath string) (report *Report, err error) {
	// Both paths must exist before anything is opened.
	if err := checkExists(r.opener, sourcePath); err != nil {
		return nil, err
	}
	if err := checkExists(r.opener, targetPath); err != nil {
		return nil, err
	}

	src, err := r.opener.Open(sourcePath, false)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			r.logger.Warn().Err(cerr).Str("source", sourcePath).Msg("source close failed")
		}
	}()

	// Validate the source before the target is opened for writing.
	if err := requireProbe(src); err != nil {
		return nil, err
	}

	dst, err := r.opener.Open(targetPath, !r.dryRun)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = &AccessError{Path: targetPath, Op: "close", Err: cerr}
		}
	}()

	return r.ReconcileStores(src, dst)
}

// ReconcileStores reconciles two already-open stores. The caller owns both
// stores and must close them.
func (r *Reconciler) ReconcileStores(src, dst MetadataStore) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		Source:     src.Path(),
		Target:     dst.Path(),
		DryRun:     r.dryRun,
		Copied:     []string{},
		Existing:   []string{},
		TargetOnly: []string{},
		Failed:     []FieldFailure{},
		StartedAt:  r.now(),
	}
	log := r.logger.With().
		Str("run_id", report.RunID).
		Str("source", report.Source).
		Str("target", report.Target).
		Bool("dry_run", r.dryRun).
		Logger()

	if err := requireProbe(src); err != nil {
		return nil, err
	}
	if err := requireGroup(dst, NIRSGroup); err != nil {
		return nil, err
	}
	if !r.dryRun && !dst.Writable() {
		return nil, &AccessError{Path: dst.Path(), Op: "reconcile", Err: ErrReadOnly}
	}

	srcKeys, err := src.Keys(ProbeGroup)
	if err != nil {
		return nil, &FormatError{Path: src.Path(), Reason: "probe group unreadable", Err: err}
	}

	var dstKeys []string
	if dst.HasGroup(ProbeGroup) {
		dstKeys, err = dst.Keys(ProbeGroup)
		if err != nil {
			return nil, &FormatError{Path: dst.Path(), Reason: "probe group unreadable", Err: err}
		}
	} else {
		log.Info().Str("group", ProbeGroup).Msg("target has no probe group")
		if !r.dryRun {
			if err := dst.CreateGroup(ProbeGroup); err != nil {
				return nil, &AccessError{Path: dst.Path(), Op: "create group", Err: err}
			}
		}
		report.GroupCreated = true
	}

	inTarget := make(map[string]struct{}, len(dstKeys))
	for _, k := range dstKeys {
		inTarget[k] = struct{}{}
	}
	inSource := make(map[string]struct{}, len(srcKeys))

	for _, key := range srcKeys {
		inSource[key] = struct{}{}
		if !IsRecognizedProbeField(key) {
			report.Unrecognized = append(report.Unrecognized, key)
		}

		if _, ok := inTarget[key]; ok {
			report.Existing = append(report.Existing, key)
			log.Debug().Str("key", key).Msg("already present")
			continue
		}

		if r.dryRun {
			report.Copied = append(report.Copied, key)
			log.Info().Str("key", key).Msg("would copy")
			continue
		}

		v, err := copyField(src, dst, key)
		if err != nil {
			report.Failed = append(report.Failed, FieldFailure{
				Key:    key,
				Reason: err.Err.Error(),
				Err:    err,
			})
			log.Error().Err(err.Err).Str("key", key).Msg("copy failed")
			continue
		}
		report.Copied = append(report.Copied, key)
		if note := shapeNote(dst, v); note != "" {
			report.note(key, note)
			log.Warn().Str("key", key).Str("note", note).Msg("copied with shape change")
		} else {
			log.Info().Str("key", key).Msg("copied")
		}
	}

	for _, key := range dstKeys {
		if _, ok := inSource[key]; !ok {
			report.TargetOnly = append(report.TargetOnly, key)
		}
	}

	report.FinishedAt = r.now()
	log.Info().
		Int("copied", len(report.Copied)).
		Int("existing", len(report.Existing)).
		Int("target_only", len(report.TargetOnly)).
		Int("failed", len(report.Failed)).
		Bool("group_created", report.GroupCreated).
		Msg("reconcile finished")

	return report, nil
}

// copyField copies one probe entry, preserving its kind, element type and
// shape, and returns the copied value.
func copyField(src, dst MetadataStore, key string) (*Value, *CopyError) {
	p := joinPath(ProbeGroup, key)

	v, err := src.Read(p)
	if err != nil {
		return nil, &CopyError{Key: key, Err: wrapError("read source", err)}
	}
	if err := dst.Write(p, v); err != nil {
		return nil, &CopyError{Key: key, Err: wrapError("write target", err)}
	}
	return v, nil
}

// shapeNote describes how dst changes the shape of v, if it does.
func shapeNote(dst MetadataStore, v *Value) string {
	n, ok := dst.(ShapeNormalizer)
	if !ok {
		return ""
	}
	if stored := n.StoredShape(v); stored != v.Shape() {
		return fmt.Sprintf("%s stored as %s", v.Shape(), stored)
	}
	return ""
}

func requireProbe(store MetadataStore) error {
	if err := requireGroup(store, NIRSGroup); err != nil {
		return err
	}
	return requireGroup(store, ProbeGroup)
}
