package snirf

import "sort"

// SNIRF group paths.
const (
	// NIRSGroup is the top-level SNIRF measurement group.
	NIRSGroup = "nirs"

	// ProbeGroup holds the probe geometry and wavelength metadata.
	ProbeGroup = NIRSGroup + "/probe"
)

// recognizedProbeFields are the probe entries defined by the SNIRF format.
var recognizedProbeFields = map[string]struct{}{
	"wavelengths":                 {},
	"wavelengthsEmission":         {},
	"sourcePos2D":                 {},
	"sourcePos3D":                 {},
	"detectorPos2D":               {},
	"detectorPos3D":               {},
	"frequencies":                 {},
	"timeDelays":                  {},
	"timeDelayWidths":             {},
	"momentOrders":                {},
	"correlationTimeDelays":       {},
	"correlationTimeDelayWidths":  {},
	"sourceLabels":                {},
	"detectorLabels":              {},
	"landmarkPos2D":               {},
	"landmarkPos3D":               {},
	"landmarkLabels":              {},
	"coordinateSystem":            {},
	"coordinateSystemDescription": {},
	"useLocalIndex":               {},
}

// IsRecognizedProbeField reports whether name is a probe field defined by the
// SNIRF format. Unrecognized fields are still reconciled.
func IsRecognizedProbeField(name string) bool {
	_, ok := recognizedProbeFields[name]
	return ok
}

// RecognizedProbeFields returns the SNIRF probe field names in sorted order.
func RecognizedProbeFields() []string {
	names := make([]string, 0, len(recognizedProbeFields))
	for name := range recognizedProbeFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProbeKeys returns the sorted entry names of the probe group in store.
// It fails with *FormatError when the nirs or nirs/probe group is missing.
func ProbeKeys(store MetadataStore) ([]string, error) {
	if err := requireGroup(store, NIRSGroup); err != nil {
		return nil, err
	}
	if err := requireGroup(store, ProbeGroup); err != nil {
		return nil, err
	}
	return store.Keys(ProbeGroup)
}

// ListProbeKeys opens an HDF5 SNIRF file read-only and returns the entry names
// of its probe group.
//
// Example:
//
//	keys, err := snirf.ListProbeKeys("raw_data.snirf")
//	if err != nil {
//	    return err
//	}
//	for _, k := range keys {
//	    fmt.Println(k)
//	}
func ListProbeKeys(filename string) (keys []string, err error) {
	store, err := OpenHDF5(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = wrapError("close failed", cerr)
		}
	}()

	return ProbeKeys(store)
}

func requireGroup(store MetadataStore, group string) error {
	if !store.HasGroup(group) {
		return &FormatError{Path: store.Path(), Group: group}
	}
	return nil
}
