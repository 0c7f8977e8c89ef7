//go:build ignore
// +build ignore

// Command generate_test_files writes a raw/processed SNIRF fixture pair:
//
//	testdata/raw_data.snirf   full probe group
//	testdata/processed.snirf  probe group with only wavelengths and a custom entry
//
// Usage:
//
//	go run testdata/generators/generate_test_files.go
package main

import (
	"log"
	"os"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/snirf"
)

func main() {
	if err := os.MkdirAll("testdata", 0o750); err != nil {
		log.Fatalf("Failed to create testdata directory: %v", err)
	}

	raw := map[string]*snirf.Value{
		"wavelengths": snirf.Float64Array([]uint64{2}, []float64{760, 850}),
		"sourcePos3D": snirf.Float64Array([]uint64{2, 3}, []float64{
			0, 0, 0,
			30, 0, 0,
		}),
		"detectorPos3D": snirf.Float64Array([]uint64{3, 3}, []float64{
			15, 0, 0,
			15, 15, 0,
			45, 0, 0,
		}),
		"sourceLabels":     snirf.StringArray("S1", "S2"),
		"detectorLabels":   snirf.StringArray("D1", "D2", "D3"),
		"coordinateSystem": snirf.StringArray("MNI"),
		"useLocalIndex":    snirf.Scalar(0),
	}
	processed := map[string]*snirf.Value{
		"wavelengths":       snirf.Float64Array([]uint64{2}, []float64{760, 850}),
		"customCalibration": snirf.Float64Array([]uint64{2}, []float64{0.98, 1.02}),
	}

	generate("testdata/raw_data.snirf", raw)
	generate("testdata/processed.snirf", processed)
}

func generate(filename string, fields map[string]*snirf.Value) {
	fw, err := hdf5.CreateForWrite(filename, hdf5.CreateTruncate)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", filename, err)
	}
	for _, g := range []string{"/" + snirf.NIRSGroup, "/" + snirf.ProbeGroup} {
		if _, err := fw.CreateGroup(g); err != nil {
			log.Fatalf("Failed to create group %s: %v", g, err)
		}
	}
	if err := fw.Close(); err != nil {
		log.Fatalf("Failed to close %s: %v", filename, err)
	}

	store, err := snirf.OpenHDF5ReadWrite(filename)
	if err != nil {
		log.Fatalf("Failed to reopen %s: %v", filename, err)
	}
	for key, v := range fields {
		if err := store.Write(snirf.ProbeGroup+"/"+key, v); err != nil {
			log.Fatalf("Failed to write %s: %v", key, err)
		}
	}
	if err := store.Close(); err != nil {
		log.Fatalf("Failed to close %s: %v", filename, err)
	}
	log.Printf("Created: %s (%d probe fields)", filename, len(fields))
}
