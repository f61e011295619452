/*
 *  msp.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
)

// mspFixedColumns is the number of columns before the per-haplotype labels:
// #chm, spos, epos, sgpos, egpos, n snps
const mspFixedColumns = 6

// codesPrefix starts the optional first line mapping population names to
// the integer ancestry codes used in the label columns
const codesPrefix = "#Subpopulation order/codes:"

// Interval is one ancestry segment: a genomic range, inclusive on both
// ends, with one ancestry label per sample haplotype
type Interval struct {
	Start int
	End   int
	// Labels[i] holds the ancestry labels of the i-th sample, first and
	// second haplotype in that order
	Labels [][2]int
}

// MSP is a parsed local ancestry segment map, e.g. the .msp output of
// gnomix. Rather than leaving the sample-to-column correspondence implicit
// in column positions, the parser materializes the ordered sample list and
// a fixed pair of haplotype labels per sample, which callers can validate
// against the sample list of a companion VCF.
type MSP struct {
	File    string
	Codes   map[string]int // population name to ancestry code
	Samples []string       // sample names in column order
	chroms  map[string][]Interval
}

// ParseMSP reads and validates an ancestry segment map file
func ParseMSP(file string) (*MSP, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s` (%s)", file, err)
	}
	defer fh.Close()

	m := &MSP{File: file, chroms: map[string][]Interval{}}
	lineNo := 0
	var readErr error
	readLine := func() (string, bool) {
		row, err := fh.ReadString('\n')
		row = strings.TrimRight(row, "\r\n")
		if err != nil && err != io.EOF {
			readErr = err
			return "", false
		}
		if row == "" && err == io.EOF {
			return "", false
		}
		lineNo++
		return row, true
	}

	row, ok := readLine()
	if !ok {
		return nil, fmt.Errorf("%s: empty file", file)
	}
	if strings.HasPrefix(row, codesPrefix) {
		m.Codes = parseCodes(row)
		if row, ok = readLine(); !ok {
			return nil, fmt.Errorf("%s: missing column header line", file)
		}
	}
	if err := m.parseHeader(row, lineNo); err != nil {
		return nil, err
	}

	for {
		row, ok := readLine()
		if !ok {
			break
		}
		if row == "" {
			continue
		}
		if err := m.parseRow(row, lineNo); err != nil {
			return nil, err
		}
	}
	if readErr != nil {
		return nil, fmt.Errorf("%s: %s", file, readErr)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	log.Noticef("Parsed %d samples and %d chromosomes from `%s`",
		len(m.Samples), len(m.chroms), file)
	return m, nil
}

// parseCodes extracts the population-to-code mapping from the first line,
// formatted as NAME=0 NAME=1 ...
func parseCodes(row string) map[string]int {
	codes := map[string]int{}
	for _, token := range strings.Fields(strings.TrimPrefix(row, codesPrefix)) {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			continue
		}
		code, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		codes[parts[0]] = code
	}
	return codes
}

// parseHeader reads the column header and derives the ordered sample list
// from the paired <sample>.0 / <sample>.1 haplotype columns
func (m *MSP) parseHeader(row string, lineNo int) error {
	cols := strings.Split(row, "\t")
	if len(cols) < mspFixedColumns || strings.TrimPrefix(cols[0], "#") != "chm" {
		return fmt.Errorf("%s: line %d: malformed column header", m.File, lineNo)
	}
	hapCols := cols[mspFixedColumns:]
	if len(hapCols) == 0 || len(hapCols)%2 != 0 {
		return fmt.Errorf("%s: line %d: expected an even number of haplotype columns, got %d",
			m.File, lineNo, len(hapCols))
	}
	for i := 0; i < len(hapCols); i += 2 {
		sample := strings.TrimSuffix(hapCols[i], ".0")
		if sample == hapCols[i] || hapCols[i+1] != sample+".1" {
			return fmt.Errorf("%s: line %d: columns `%s`, `%s` do not form a <sample>.0/<sample>.1 pair",
				m.File, lineNo, hapCols[i], hapCols[i+1])
		}
		m.Samples = append(m.Samples, sample)
	}
	return nil
}

// parseRow parses one segment row and appends it to its chromosome
func (m *MSP) parseRow(row string, lineNo int) error {
	words := strings.Split(row, "\t")
	want := mspFixedColumns + 2*len(m.Samples)
	if len(words) != want {
		return fmt.Errorf("%s: line %d: expected %d columns, got %d",
			m.File, lineNo, want, len(words))
	}
	start, err := strconv.Atoi(words[1])
	if err != nil {
		return fmt.Errorf("%s: line %d: invalid spos `%s`", m.File, lineNo, words[1])
	}
	end, err := strconv.Atoi(words[2])
	if err != nil {
		return fmt.Errorf("%s: line %d: invalid epos `%s`", m.File, lineNo, words[2])
	}
	if start > end {
		return fmt.Errorf("%s: line %d: interval start %d exceeds end %d",
			m.File, lineNo, start, end)
	}
	iv := Interval{Start: start, End: end, Labels: make([][2]int, len(m.Samples))}
	for i := range m.Samples {
		for k := 0; k < 2; k++ {
			label, err := strconv.Atoi(words[mspFixedColumns+2*i+k])
			if err != nil {
				return fmt.Errorf("%s: line %d: invalid ancestry label `%s` for sample %s",
					m.File, lineNo, words[mspFixedColumns+2*i+k], m.Samples[i])
			}
			iv.Labels[i][k] = label
		}
	}
	chrom := words[0]
	m.chroms[chrom] = append(m.chroms[chrom], iv)
	return nil
}

// validate checks that the intervals of every chromosome are sorted by
// start and non-overlapping, so that any position maps to at most one
func (m *MSP) validate() error {
	for chrom, ivs := range m.chroms {
		for i := 1; i < len(ivs); i++ {
			if ivs[i].Start <= ivs[i-1].End {
				return fmt.Errorf("%s: intervals on %s are unsorted or overlap near position %d",
					m.File, chrom, ivs[i].Start)
			}
		}
	}
	return nil
}

// Chromosomes returns the chromosome names present in the map, sorted
func (m *MSP) Chromosomes() []string {
	names := make([]string, 0, len(m.chroms))
	for chrom := range m.chroms {
		names = append(names, chrom)
	}
	sort.Strings(names)
	return names
}

// Locate binary-searches the containing interval for a position. Both
// interval ends are inclusive. The second return is false when no segment
// covers the position, including when the chromosome is absent entirely.
func (m *MSP) Locate(chrom string, pos int) (*Interval, bool) {
	ivs := m.chroms[chrom]
	i := sort.Search(len(ivs), func(i int) bool { return ivs[i].End >= pos })
	if i == len(ivs) || ivs[i].Start > pos {
		return nil, false
	}
	return &ivs[i], true
}
