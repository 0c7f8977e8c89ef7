// Package main provides the snirf-reconcile command-line tool.
package main

import (
	"os"

	"github.com/scigolib/snirf/cmd/snirf-reconcile/cmd"
)

// Version information populated at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, cmd.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}))
}
