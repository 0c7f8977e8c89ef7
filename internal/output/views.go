package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/scigolib/snirf"
)

// KeyListing is the probe key set of one file.
type KeyListing struct {
	File string   `json:"file" yaml:"file" toml:"file"`
	Keys []string `json:"keys" yaml:"keys" toml:"keys"`
}

// KeyListings is the result of the keys command. TOML needs a table at the
// document root, hence the wrapper struct.
type KeyListings struct {
	Files []KeyListing `json:"files" yaml:"files" toml:"files"`
}

// Table implements Tabular.
func (l KeyListings) Table() Data {
	data := Data{Headers: []string{"File", "Key", "SNIRF Field"}}
	for _, f := range l.Files {
		for _, k := range f.Keys {
			known := "no"
			if snirf.IsRecognizedProbeField(k) {
				known = "yes"
			}
			data.Rows = append(data.Rows, []string{f.File, k, known})
		}
	}
	return data
}

// Entry is one object found while walking an HDF5 file.
type Entry struct {
	Path  string `json:"path" yaml:"path" toml:"path"`
	Type  string `json:"type" yaml:"type" toml:"type"`
	Shape string `json:"shape,omitempty" yaml:"shape,omitempty" toml:"shape,omitempty"`
}

// Inventory is the result of the inspect command.
type Inventory struct {
	File    string  `json:"file" yaml:"file" toml:"file"`
	Entries []Entry `json:"entries" yaml:"entries" toml:"entries"`
}

// Table implements Tabular.
func (inv Inventory) Table() Data {
	data := Data{Headers: []string{"Path", "Type", "Shape"}}
	for _, e := range inv.Entries {
		data.Rows = append(data.Rows, []string{e.Path, e.Type, e.Shape})
	}
	return data
}

// ReportTable lays out a reconciliation report with one row per key.
func ReportTable(r *snirf.Report) Data {
	copied := "copied"
	if r.DryRun {
		copied = "would copy"
	}

	data := Data{Headers: []string{"Key", "Status", "Detail"}}
	if r.GroupCreated {
		status := "created"
		if r.DryRun {
			status = "would create"
		}
		data.Rows = append(data.Rows, []string{snirf.ProbeGroup, status, "group"})
	}
	for _, k := range r.Copied {
		data.Rows = append(data.Rows, []string{k, copied, r.Notes[k]})
	}
	for _, k := range r.Existing {
		data.Rows = append(data.Rows, []string{k, "existing", "kept target value"})
	}
	for _, k := range r.TargetOnly {
		data.Rows = append(data.Rows, []string{k, "target only", ""})
	}
	for _, f := range r.Failed {
		data.Rows = append(data.Rows, []string{f.Key, "failed", f.Reason})
	}
	return data
}

// Render writes v to w in format. Reports are laid out per key for tables.
func Render(w io.Writer, format Format, v any) error {
	if format == FormatTable {
		if r, ok := v.(*snirf.Report); ok {
			return NewFormatter(format).Format(w, ReportTable(r))
		}
	}
	return NewFormatter(format).Format(w, v)
}

// Summary returns a one-line description of a report.
func Summary(r *snirf.Report) string {
	var b strings.Builder
	verb := "copied"
	if r.DryRun {
		verb = "would copy"
	}
	fmt.Fprintf(&b, "%s %d, existing %d, target only %d, failed %d",
		verb, len(r.Copied), len(r.Existing), len(r.TargetOnly), len(r.Failed))
	if r.GroupCreated {
		b.WriteString(" (probe group created)")
	}
	return b.String()
}
