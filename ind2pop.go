/*
 *  ind2pop.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shenwei356/xopen"
)

// Ind2Pop maps each sample of an ordered cohort to a population label, the
// two files that pong needs: ind2pop.txt with one label per sample in
// cohort order, and pop_order.txt with the distinct labels in first-seen
// order. The labels come from one covariate column of a sample metadata
// CSV.
type Ind2Pop struct {
	Popinfo     string // metadata CSV with a header row
	Sampleorder string // whitespace-delimited, sample ID in the second column
	Covariate   string // metadata column to use as the population label
	IDColumn    string // metadata column holding the sample ID
	OutInd2Pop  string // defaults to ind2pop.txt
	OutPopOrder string // defaults to pop_order.txt
}

// Run writes the two mapping files
func (r *Ind2Pop) Run() error {
	if r.OutInd2Pop == "" {
		r.OutInd2Pop = "ind2pop.txt"
	}
	if r.OutPopOrder == "" {
		r.OutPopOrder = "pop_order.txt"
	}
	labels, err := r.readPopinfo()
	if err != nil {
		return err
	}
	samples, err := r.readSampleOrder()
	if err != nil {
		return err
	}

	find2pop := mustCreate(r.OutInd2Pop)
	fpoporder := mustCreate(r.OutPopOrder)
	seen := map[string]bool{}
	for _, sample := range samples {
		label, ok := labels[sample]
		if !ok {
			find2pop.Close()
			fpoporder.Close()
			return fmt.Errorf("sample `%s` from `%s` is missing in `%s`",
				sample, r.Sampleorder, r.Popinfo)
		}
		label = strings.ReplaceAll(label, " ", "_")
		fmt.Fprintln(find2pop, label)
		if !seen[label] {
			seen[label] = true
			fmt.Fprintln(fpoporder, label)
		}
	}
	if err := find2pop.Close(); err != nil {
		return err
	}
	if err := fpoporder.Close(); err != nil {
		return err
	}
	log.Noticef("Wrote %d samples to `%s` and %d populations to `%s`",
		len(samples), r.OutInd2Pop, len(seen), r.OutPopOrder)
	return nil
}

// readPopinfo loads the metadata CSV into a sample-to-label map
func (r *Ind2Pop) readPopinfo() (map[string]string, error) {
	fh, err := xopen.Ropen(r.Popinfo)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s` (%s)", r.Popinfo, err)
	}
	defer fh.Close()

	cr := csv.NewReader(bufio.NewReader(fh))
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: cannot read header (%s)", r.Popinfo, err)
	}
	idCol, covCol := -1, -1
	for i, col := range header {
		switch col {
		case r.IDColumn:
			idCol = i
		case r.Covariate:
			covCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%s: no column named `%s`", r.Popinfo, r.IDColumn)
	}
	if covCol < 0 {
		return nil, fmt.Errorf("%s: no column named `%s`", r.Popinfo, r.Covariate)
	}

	labels := map[string]string{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %s", r.Popinfo, err)
		}
		labels[rec[idCol]] = rec[covCol]
	}
	return labels, nil
}

// readSampleOrder reads the ordered sample IDs, second column per line
func (r *Ind2Pop) readSampleOrder() ([]string, error) {
	fh, err := xopen.Ropen(r.Sampleorder)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s` (%s)", r.Sampleorder, err)
	}
	defer fh.Close()

	var samples []string
	for lineNo := 1; ; lineNo++ {
		row, err := fh.ReadString('\n')
		row = strings.TrimSpace(row)
		if row == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s: %s", r.Sampleorder, err)
		}
		if row == "" {
			continue
		}
		words := strings.Fields(row)
		if len(words) < 2 {
			return nil, fmt.Errorf("%s: line %d: expected at least 2 columns", r.Sampleorder, lineNo)
		}
		samples = append(samples, words[1])
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%s: no samples found", r.Sampleorder)
	}
	return samples, nil
}
