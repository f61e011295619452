/*
 *  filemap.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// QFile is one ADMIXTURE Q matrix on disk, named <prefix>.<K>.Q
type QFile struct {
	Path  string
	K     int
	RunID string
}

// FindQFiles scans a directory for Q files whose name starts with prefix,
// sorted by K then name. The run ID is the file stem with dots replaced by
// `x` and the K value appended, which keeps pong run IDs free of dots.
func FindQFiles(dir, prefix string) ([]QFile, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.Q"))
	if err != nil {
		return nil, err
	}
	var qfiles []QFile
	for _, file := range files {
		name := filepath.Base(file)
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		parts := strings.Split(name, ".")
		if len(parts) < 3 {
			return nil, fmt.Errorf("cannot parse K from `%s`; expected <prefix>.<K>.Q", name)
		}
		k, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("cannot parse K from `%s`; expected <prefix>.<K>.Q", name)
		}
		stem := RemoveExt(name)
		qfiles = append(qfiles, QFile{
			Path:  file,
			K:     k,
			RunID: fmt.Sprintf("%s-%d", strings.ReplaceAll(stem, ".", "x"), k),
		})
	}
	if len(qfiles) == 0 {
		return nil, fmt.Errorf("no Q files with prefix `%s` found in `%s`", prefix, dir)
	}
	sort.Slice(qfiles, func(i, j int) bool {
		if qfiles[i].K != qfiles[j].K {
			return qfiles[i].K < qfiles[j].K
		}
		return qfiles[i].Path < qfiles[j].Path
	})
	return qfiles, nil
}

// Filemapper writes the headerless tab-delimited filemap that pong takes
// as input: run ID, K, file path
type Filemapper struct {
	Qdir    string
	Prefix  string
	Outfile string
}

// Run scans the Q files and writes the filemap
func (r *Filemapper) Run() error {
	qfiles, err := FindQFiles(r.Qdir, r.Prefix)
	if err != nil {
		return err
	}
	fw := mustCreate(r.Outfile)
	for _, qf := range qfiles {
		fmt.Fprintf(fw, "%s\t%d\t%s\n", qf.RunID, qf.K, qf.Path)
	}
	if err := fw.Close(); err != nil {
		return err
	}
	log.Noticef("Filemap with %d runs written to `%s`", len(qfiles), r.Outfile)
	return nil
}
