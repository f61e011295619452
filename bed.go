/*
 *  bed.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shenwei356/xopen"
)

// BEDTrack is one per-haplotype local ancestry track: a headered,
// tab-delimited table with at least spos, epos and ancestry columns
type BEDTrack struct {
	File   string
	Header []string
	Rows   [][]string
}

// ParseBED loads a track wholesale; these files hold one segment per row
// and stay small even for whole genomes
func ParseBED(file string) (*BEDTrack, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s` (%s)", file, err)
	}
	defer fh.Close()

	t := &BEDTrack{File: file}
	for lineNo := 1; ; lineNo++ {
		row, err := fh.ReadString('\n')
		row = strings.TrimRight(row, "\r\n")
		if row == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s: %s", file, err)
		}
		if row == "" {
			continue
		}
		words := strings.Split(row, "\t")
		if t.Header == nil {
			t.Header = words
			continue
		}
		if len(words) != len(t.Header) {
			return nil, fmt.Errorf("%s: line %d: expected %d columns, got %d",
				file, lineNo, len(t.Header), len(words))
		}
		t.Rows = append(t.Rows, words)
	}
	if t.Header == nil {
		return nil, fmt.Errorf("%s: empty file", file)
	}
	return t, nil
}

// Column returns the index of a named header column, -1 when absent
func (t *BEDTrack) Column(name string) int {
	for i, col := range t.Header {
		if strings.TrimPrefix(col, "#") == name {
			return i
		}
	}
	return -1
}

// PairHaplotypeTracks groups the <sample>_0.bed / <sample>_1.bed files of a
// directory by sample. Samples missing one of the two haplotype tracks are
// skipped with a warning.
func PairHaplotypeTracks(dir string) (map[string][2]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.bed"))
	if err != nil {
		return nil, err
	}
	bysample := map[string][]string{}
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".bed")
		sample := strings.TrimSuffix(strings.TrimSuffix(name, "_0"), "_1")
		bysample[sample] = append(bysample[sample], file)
	}
	pairs := map[string][2]string{}
	for sample, tracks := range bysample {
		if len(tracks) != 2 {
			log.Warningf("Sample `%s` does not have exactly two haplotype tracks, skipped", sample)
			continue
		}
		sort.Strings(tracks)
		pairs[sample] = [2]string{tracks[0], tracks[1]}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no paired haplotype tracks found in `%s`", dir)
	}
	return pairs, nil
}

// Collector merges per-chromosome BED shards: every input directory holds
// one shard per sample haplotype, and tracks sharing a file name are
// concatenated under a single header into the output directory
type Collector struct {
	Beddirs []string
	Outdir  string
}

// Run concatenates the shards in input-directory order
func (r *Collector) Run() error {
	if err := os.MkdirAll(r.Outdir, 0755); err != nil {
		return err
	}
	shards := map[string][]string{}
	var names []string
	for _, dir := range r.Beddirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.bed"))
		if err != nil {
			return err
		}
		sort.Strings(files)
		for _, file := range files {
			name := filepath.Base(file)
			if len(shards[name]) == 0 {
				names = append(names, name)
			}
			shards[name] = append(shards[name], file)
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("no .bed files found under %s", strings.Join(r.Beddirs, ", "))
	}

	for _, name := range names {
		if err := r.collectOne(name, shards[name]); err != nil {
			return err
		}
	}
	log.Noticef("Collected %d merged tracks into `%s`", len(names), r.Outdir)
	return nil
}

// collectOne merges the shards of one sample haplotype
func (r *Collector) collectOne(name string, files []string) error {
	outfile := filepath.Join(r.Outdir, name)
	fw := mustCreate(outfile)

	var header []string
	for _, file := range files {
		t, err := ParseBED(file)
		if err != nil {
			fw.Close()
			return err
		}
		if header == nil {
			header = t.Header
			fmt.Fprintln(fw, strings.Join(header, "\t"))
		} else if strings.Join(header, "\t") != strings.Join(t.Header, "\t") {
			fw.Close()
			return fmt.Errorf("%s: header differs from `%s`", file, files[0])
		}
		for _, row := range t.Rows {
			fmt.Fprintln(fw, strings.Join(row, "\t"))
		}
	}
	return fw.Close()
}
