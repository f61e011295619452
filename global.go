/*
 *  global.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"

	"github.com/kshedden/gonpy"
)

// GlobalAncestry summarizes per-haplotype local ancestry tracks into one
// global ancestry proportion per sample and ancestry: the fraction of the
// sample's covered genome length assigned to that ancestry, both
// haplotypes pooled. Segments without an ancestry call (`.` or NA) are
// excluded from both numerator and denominator.
type GlobalAncestry struct {
	Beddir   string
	Outfile  string // TSV, one row per sample
	Npyfile  string // optional numpy matrix, samples x ancestries
	Jsonfile string // optional JSON report consumed by `ancmix view`

	samples     []string
	ancestries  []string
	proportions [][]float64
}

// globalReport is the JSON shape served by the view command
type globalReport struct {
	Samples     []string    `json:"samples"`
	Ancestries  []string    `json:"ancestries"`
	Proportions [][]float64 `json:"proportions"`
}

// Run computes the proportions and writes the requested outputs
func (r *GlobalAncestry) Run() error {
	pairs, err := PairHaplotypeTracks(r.Beddir)
	if err != nil {
		return err
	}
	for sample := range pairs {
		r.samples = append(r.samples, sample)
	}
	sort.Strings(r.samples)

	weights := make([]map[string]float64, len(r.samples))
	seen := map[string]bool{}
	for i, sample := range r.samples {
		tracks := pairs[sample]
		w, err := ancestryWeights(tracks[:])
		if err != nil {
			return err
		}
		weights[i] = w
		for ancestry := range w {
			if !seen[ancestry] {
				seen[ancestry] = true
				r.ancestries = append(r.ancestries, ancestry)
			}
		}
	}
	sort.Strings(r.ancestries)

	r.proportions = make([][]float64, len(r.samples))
	for i := range r.samples {
		total := 0.0
		for _, w := range weights[i] {
			total += w
		}
		row := make([]float64, len(r.ancestries))
		for j, ancestry := range r.ancestries {
			if total > 0 {
				row[j] = weights[i][ancestry] / total
			}
		}
		r.proportions[i] = row
	}
	log.Noticef("Computed global ancestry for %d samples over %d ancestries",
		len(r.samples), len(r.ancestries))

	if err := r.writeTSV(); err != nil {
		return err
	}
	if r.Npyfile != "" {
		if err := r.writeNpy(); err != nil {
			return err
		}
	}
	if r.Jsonfile != "" {
		if err := r.writeJSON(); err != nil {
			return err
		}
	}
	return nil
}

// ancestryWeights sums segment lengths per ancestry over both haplotype
// tracks of one sample
func ancestryWeights(files []string) (map[string]float64, error) {
	weights := map[string]float64{}
	for _, file := range files {
		t, err := ParseBED(file)
		if err != nil {
			return nil, err
		}
		si, ei, ai := t.Column("spos"), t.Column("epos"), t.Column("ancestry")
		if si < 0 || ei < 0 || ai < 0 {
			return nil, fmt.Errorf("%s: missing spos/epos/ancestry columns", file)
		}
		for _, row := range t.Rows {
			ancestry := row[ai]
			if ancestry == "" || ancestry == "." || ancestry == "NA" {
				continue
			}
			spos, err := strconv.Atoi(row[si])
			if err != nil {
				return nil, fmt.Errorf("%s: invalid spos `%s`", file, row[si])
			}
			epos, err := strconv.Atoi(row[ei])
			if err != nil {
				return nil, fmt.Errorf("%s: invalid epos `%s`", file, row[ei])
			}
			if epos < spos {
				return nil, fmt.Errorf("%s: segment start %d exceeds end %d", file, spos, epos)
			}
			weights[ancestry] += float64(epos - spos)
		}
	}
	return weights, nil
}

func (r *GlobalAncestry) writeTSV() error {
	fw := mustCreate(r.Outfile)
	fmt.Fprintln(fw, "sample\t"+strings.Join(r.ancestries, "\t"))
	for i, sample := range r.samples {
		cells := make([]string, len(r.proportions[i]))
		for j, p := range r.proportions[i] {
			cells[j] = strconv.FormatFloat(p, 'f', 6, 64)
		}
		fmt.Fprintln(fw, sample+"\t"+strings.Join(cells, "\t"))
	}
	if err := fw.Close(); err != nil {
		return err
	}
	log.Noticef("Global ancestry proportions written to `%s`", r.Outfile)
	return nil
}

func (r *GlobalAncestry) writeNpy() error {
	wtr, err := gonpy.NewFileWriter(r.Npyfile)
	if err != nil {
		return err
	}
	wtr.Shape = []int{len(r.samples), len(r.ancestries)}
	flat := make([]float64, 0, len(r.samples)*len(r.ancestries))
	for _, row := range r.proportions {
		flat = append(flat, row...)
	}
	if err := wtr.WriteFloat64(flat); err != nil {
		return err
	}
	log.Noticef("Proportion matrix written to `%s`", r.Npyfile)
	return nil
}

func (r *GlobalAncestry) writeJSON() error {
	report := globalReport{
		Samples:     r.samples,
		Ancestries:  r.ancestries,
		Proportions: r.proportions,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(r.Jsonfile, append(data, '\n'), 0644); err != nil {
		return err
	}
	log.Noticef("JSON report written to `%s`", r.Jsonfile)
	return nil
}
