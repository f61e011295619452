/*
 *  base.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"os"
	"path"
	"strings"

	logging "github.com/op/go-logging"
	"github.com/shenwei356/xopen"
)

const (
	// Version is the current version of ancmix
	Version = "0.2.1"
	// MissingAllele is the marker written in place of a masked haplotype call
	MissingAllele = "."
	// ProgressInterval is how often the masker logs progress, in records
	ProgressInterval = 10000
)

var log = logging.MustGetLogger("ancmix")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// Backend is the default stderr output
var Backend = logging.NewLogBackend(os.Stderr, "", 0)

// BackendFormatter contains the fancy debug formatter
var BackendFormatter = logging.NewBackendFormatter(Backend, format)

// mustCreate returns a writer that gzips when filename ends with .gz,
// or aborts when the file cannot be written
func mustCreate(filename string) *xopen.Writer {
	fh, err := xopen.Wopen(filename)
	if err != nil {
		log.Fatalf("Cannot create file `%s` (%s)", filename, err)
	}
	return fh
}

// RemoveExt returns the substring minus the extension
func RemoveExt(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}

// Make2DSlice allocates a 2D matrix with shape (m, n)
func Make2DSlice(m, n int) [][]int {
	P := make([][]int, m)
	for i := 0; i < m; i++ {
		P[i] = make([]int, n)
	}
	return P
}

// max gets the maximum for two ints
func max(x, y int) int {
	if x > y {
		return x
	}
	return y
}
