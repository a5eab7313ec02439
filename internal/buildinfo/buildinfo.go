// Package buildinfo exposes values stamped in at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/leasekeeper/internal/buildinfo.Version=v1.2.0 \
//	    -X github.com/dmitrijs2005/leasekeeper/internal/buildinfo.Date=2025-01-01 \
//	    -X github.com/dmitrijs2005/leasekeeper/internal/buildinfo.Commit=abc123"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = ""
	Date    = ""
	Commit  = ""
)

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// String is the one-line version used by --version.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", orNA(Version), orNA(Commit), orNA(Date))
}

// PrintBuildData writes the build values, one per line.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", orNA(Version))
	fmt.Fprintf(w, "Build date: %s\n", orNA(Date))
	fmt.Fprintf(w, "Build commit: %s\n", orNA(Commit))
}
