package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/snirf"
)

// isolate keeps user config files and .env out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	return dir
}

// writeSNIRF writes groups and float64 probe fields in a single writer
// session.
func writeSNIRF(t *testing.T, filename string, groups []string, fields map[string]*snirf.Value) string {
	t.Helper()

	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	require.NoError(t, err)
	for _, g := range groups {
		_, err := fw.CreateGroup("/" + g)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.Equal(t, snirf.ClassFloat, v.Class, k)
		dw, err := fw.CreateDataset("/"+snirf.ProbeGroup+"/"+k, hdf5.Float64, v.Dims)
		require.NoError(t, err, k)
		require.NoError(t, dw.Write(v.Numbers), k)
		require.NoError(t, dw.Close(), k)
	}
	require.NoError(t, fw.Close())
	return filename
}

func fixturePair(t *testing.T, dir string) (raw, processed string) {
	t.Helper()
	groups := []string{snirf.NIRSGroup, snirf.ProbeGroup}
	raw = writeSNIRF(t, filepath.Join(dir, "raw.snirf"), groups, map[string]*snirf.Value{
		"sourcePos3D":   snirf.Float64Array([]uint64{1, 3}, []float64{0, 0, 0}),
		"detectorPos3D": snirf.Float64Array([]uint64{1, 3}, []float64{3, 0, 0}),
		"wavelengths":   snirf.Float64Array([]uint64{2}, []float64{760, 850}),
	})
	processed = writeSNIRF(t, filepath.Join(dir, "processed.snirf"), groups, map[string]*snirf.Value{
		"wavelengths": snirf.Float64Array([]uint64{2}, []float64{760, 850}),
	})
	return raw, processed
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	code = Execute(args, out, errOut, BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	return code, out.String(), errOut.String()
}

func TestExecute_Reconcile(t *testing.T) {
	dir := isolate(t)
	raw, processed := fixturePair(t, dir)

	for _, sub := range [][]string{{"reconcile"}, nil} {
		t.Run(fmt.Sprintf("args=%v", sub), func(t *testing.T) {
			raw, processed := raw, processed
			if sub == nil {
				raw, processed = fixturePair(t, t.TempDir())
			}
			args := append(append([]string{}, sub...), "--source", raw, "--target", processed, "-o", "json", "-q")

			code, stdout, stderr := run(t, args...)
			require.Equal(t, ExitOK, code, stderr)

			var report snirf.Report
			require.NoError(t, json.Unmarshal([]byte(stdout), &report))
			assert.Equal(t, []string{"detectorPos3D", "sourcePos3D"}, report.Copied)
			assert.Equal(t, []string{"wavelengths"}, report.Existing)

			code, stdout, _ = run(t, args...)
			require.Equal(t, ExitOK, code)
			require.NoError(t, json.Unmarshal([]byte(stdout), &report))
			assert.Empty(t, report.Copied, "second run copies nothing")
		})
	}
}

func TestExecute_DryRunYAML(t *testing.T) {
	dir := isolate(t)
	raw, processed := fixturePair(t, dir)

	code, stdout, stderr := run(t, "reconcile", "--source", raw, "--target", processed, "--dry-run", "-o", "yaml", "-q")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "dry_run: true")
	assert.Contains(t, stdout, "- sourcePos3D")

	keys, err := snirf.ListProbeKeys(processed)
	require.NoError(t, err)
	assert.Equal(t, []string{"wavelengths"}, keys)
}

func TestExecute_ConfigFromEnv(t *testing.T) {
	dir := isolate(t)
	raw, processed := fixturePair(t, dir)
	t.Setenv("SNIRF_SOURCE", raw)
	t.Setenv("SNIRF_TARGET", processed)
	t.Setenv("SNIRF_OUTPUT", "toml")

	code, stdout, stderr := run(t, "-q")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, `copied = ["detectorPos3D", "sourcePos3D"]`)
}

func TestExecute_Errors(t *testing.T) {
	dir := isolate(t)
	raw, processed := fixturePair(t, dir)
	bare := writeSNIRF(t, filepath.Join(dir, "bare.snirf"), []string{"data"}, nil)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing target", []string{"reconcile", "--source", raw, "--target", filepath.Join(dir, "nope.snirf")}, "not found"},
		{"missing source", []string{"--source", filepath.Join(dir, "nope.snirf"), "--target", processed}, "not found"},
		{"no nirs group", []string{"reconcile", "--source", raw, "--target", bare}, `missing group "nirs"`},
		{"no flags", []string{"reconcile"}, "--source and --target are required"},
		{"bad format", []string{"reconcile", "--source", raw, "--target", processed, "-o", "xml"}, "invalid format"},
		{"unknown flag", []string{"reconcile", "--bogus"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := run(t, append(tt.args, "-q")...)
			assert.Equal(t, ExitError, code)
			assert.Contains(t, stderr, tt.wantErr)
		})
	}

	keys, err := snirf.ListProbeKeys(processed)
	require.NoError(t, err)
	assert.Equal(t, []string{"wavelengths"}, keys, "failed runs leave the target untouched")
}

func TestExecute_PartialCopy(t *testing.T) {
	dir := isolate(t)
	_, processed := fixturePair(t, dir)

	// The source holds one readable field and one opaque blob.
	raw := filepath.Join(dir, "raw_blob.snirf")
	fw, err := hdf5.CreateForWrite(raw, hdf5.CreateTruncate)
	require.NoError(t, err)
	for _, g := range []string{snirf.NIRSGroup, snirf.ProbeGroup} {
		_, err := fw.CreateGroup("/" + g)
		require.NoError(t, err)
	}
	dw, err := fw.CreateDataset("/nirs/probe/sourcePos3D", hdf5.Float64, []uint64{1, 3})
	require.NoError(t, err)
	require.NoError(t, dw.Write([]float64{0, 0, 0}))
	require.NoError(t, dw.Close())
	dw, err = fw.CreateDataset("/nirs/probe/landmarkPos3D", hdf5.Opaque, []uint64{1}, hdf5.WithOpaqueTag("vendor landmarks", 8))
	require.NoError(t, err)
	require.NoError(t, dw.Write(make([]byte, 8)))
	require.NoError(t, dw.Close())
	require.NoError(t, fw.Close())

	code, stdout, stderr := run(t, "reconcile", "--source", raw, "--target", processed, "-o", "json", "-q")
	assert.Equal(t, ExitPartial, code)
	assert.Contains(t, stderr, `copy "landmarkPos3D"`)

	var report snirf.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, []string{"sourcePos3D"}, report.Copied)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "landmarkPos3D", report.Failed[0].Key)

	keys, err := snirf.ListProbeKeys(processed)
	require.NoError(t, err)
	assert.Equal(t, []string{"sourcePos3D", "wavelengths"}, keys, "readable field still committed")
}

func TestExecute_Keys(t *testing.T) {
	dir := isolate(t)
	raw, processed := fixturePair(t, dir)

	code, stdout, stderr := run(t, "keys", raw, processed, "-o", "json")
	require.Equal(t, ExitOK, code, stderr)

	var listings struct {
		Files []struct {
			File string   `json:"file"`
			Keys []string `json:"keys"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &listings))
	require.Len(t, listings.Files, 2)
	assert.Equal(t, []string{"detectorPos3D", "sourcePos3D", "wavelengths"}, listings.Files[0].Keys)
	assert.Equal(t, []string{"wavelengths"}, listings.Files[1].Keys)

	code, _, _ = run(t, "keys")
	assert.Equal(t, ExitError, code)
}

func TestExecute_Inspect(t *testing.T) {
	dir := isolate(t)
	raw, _ := fixturePair(t, dir)

	code, stdout, stderr := run(t, "inspect", raw, "-o", "json")
	require.Equal(t, ExitOK, code, stderr)

	var inv struct {
		Entries []struct {
			Path  string `json:"path"`
			Type  string `json:"type"`
			Shape string `json:"shape"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &inv))

	byPath := make(map[string]string)
	for _, e := range inv.Entries {
		byPath[e.Path] = e.Type + " " + e.Shape
	}
	assert.Equal(t, "group ", byPath["nirs/probe"])
	assert.Equal(t, "float [2]", byPath["nirs/probe/wavelengths"])
	assert.Equal(t, "float [1 x 3]", byPath["nirs/probe/sourcePos3D"])
}

func TestExecute_Dump(t *testing.T) {
	dir := isolate(t)
	raw, _ := fixturePair(t, dir)

	code, stdout, stderr := run(t, "dump", raw, "--length", "8")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "Dumping 8 bytes at offset 0x0")
	assert.Contains(t, stdout, "00000000: 89 48 44 46 0d 0a 1a 0a")
	assert.Contains(t, stdout, "|.HDF....|")

	code, _, stderr = run(t, "dump", raw, "--offset", "-1")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "invalid offset")
}

func TestExecute_Version(t *testing.T) {
	isolate(t)

	code, stdout, _ := run(t, "version")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, stdout, "snirf-reconcile version 1.2.3")
	assert.Contains(t, stdout, "commit: abc")
}

func TestExitCode(t *testing.T) {
	failed := &snirf.Report{
		Copied: []string{"sourcePos3D"},
		Failed: []snirf.FieldFailure{{Key: "detectorPos3D", Reason: "disk full"}},
	}

	tests := []struct {
		name   string
		report *snirf.Report
		err    error
		want   int
	}{
		{"success", &snirf.Report{Copied: []string{"wavelengths"}}, nil, ExitOK},
		{"nothing to copy", &snirf.Report{}, nil, ExitOK},
		{"partial", failed, nil, ExitPartial},
		{"not found", nil, &snirf.NotFoundError{Path: "x", Err: os.ErrNotExist}, ExitError},
		{"access", nil, &snirf.AccessError{Path: "x", Op: "open", Err: os.ErrPermission}, ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.report, tt.err))
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	partial := &exitError{code: ExitPartial, err: errors.New("copy failed")}

	assert.Equal(t, ExitOK, exitCodeFor(nil))
	assert.Equal(t, ExitError, exitCodeFor(errors.New("boom")))
	assert.Equal(t, ExitPartial, exitCodeFor(partial))
	assert.Equal(t, ExitPartial, exitCodeFor(fmt.Errorf("wrapped: %w", partial)))
}
