// Package snirf reconciles probe metadata between SNIRF (Shared Near Infrared
// Spectroscopy Format) files.
//
// A SNIRF file is an HDF5 file whose "nirs/probe" group holds the probe
// geometry: source and detector positions, wavelengths, landmarks and labels.
// Processing pipelines often drop some of these fields. Reconcile copies every
// probe entry present in a source file (usually the raw recording) but absent
// from a target file (usually the processed output) into the target.
//
// # Rules
//
//   - Target entries are authoritative: an entry present in both files is
//     never overwritten, whatever its shape or content.
//   - Target-only entries are reported and left untouched.
//   - Each copied entry is an independent write; a failed copy is recorded in
//     the report as a *CopyError and the run continues.
//   - Running Reconcile twice copies nothing the second time.
//
// # Stores
//
// Reconciliation works on the MetadataStore interface. HDF5Store implements
// it on top of github.com/scigolib/hdf5; MemStore is an in-memory tree with
// the same semantics. A writable HDF5Store stages new entries and commits
// them on Close by rebuilding the file next to the original and renaming it
// into place, so a failed commit leaves the original untouched.
//
// # Errors
//
// Run-level failures are typed: *NotFoundError, *FormatError and
// *AccessError. Each matches its sentinel (ErrNotFound, ErrFormat, ErrAccess)
// with errors.Is. Per-field failures are *CopyError values in Report.Failed.
package snirf
