/*
 *  qmatrix.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gonum/matrix/mat64"
	hungarianAlgorithm "github.com/oddg/hungarian-algorithm"
	"github.com/shenwei356/xopen"
)

// hungarianScale converts fractional column similarities to the integer
// weights the assignment solver works on
const hungarianScale = 1000000

// LoadQMatrix reads a whitespace-delimited ADMIXTURE Q file into a dense
// matrix, rows being samples and columns being the K cluster memberships
func LoadQMatrix(file string) (*mat64.Dense, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s` (%s)", file, err)
	}
	defer fh.Close()

	var data []float64
	nrows, ncols := 0, 0
	for lineNo := 1; ; lineNo++ {
		row, err := fh.ReadString('\n')
		row = strings.TrimSpace(row)
		if row == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s: %s", file, err)
		}
		if row == "" {
			continue
		}
		words := strings.Fields(row)
		if ncols == 0 {
			ncols = len(words)
		} else if len(words) != ncols {
			return nil, fmt.Errorf("%s: line %d: expected %d columns, got %d",
				file, lineNo, ncols, len(words))
		}
		for _, word := range words {
			v, err := strconv.ParseFloat(word, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: line %d: invalid value `%s`", file, lineNo, word)
			}
			data = append(data, v)
		}
		nrows++
	}
	if nrows == 0 {
		return nil, fmt.Errorf("%s: empty Q file", file)
	}
	return mat64.NewDense(nrows, ncols, data), nil
}

// AlignClusters matches the cluster columns of one run onto a reference
// run of the same K. ADMIXTURE assigns cluster labels arbitrarily per run,
// so column i of one run and column i of another need not describe the
// same population; the returned perm fixes that, perm[i] being the
// reference column paired with column i of run. The pairing maximizes the
// summed column dot products via Hungarian assignment, which works on
// costs, so the weights are subtracted from their maximum first.
func AlignClusters(ref, run *mat64.Dense) ([]int, error) {
	rr, rc := ref.Dims()
	nr, nc := run.Dims()
	if rr != nr || rc != nc {
		return nil, fmt.Errorf("matrix shapes differ: %dx%d vs %dx%d", rr, rc, nr, nc)
	}

	weights := Make2DSlice(nc, nc)
	maxCell := 0
	for i := 0; i < nc; i++ {
		for j := 0; j < rc; j++ {
			dot := 0.0
			for s := 0; s < nr; s++ {
				dot += run.At(s, i) * ref.At(s, j)
			}
			weights[i][j] = int(dot * hungarianScale / float64(nr))
			maxCell = max(maxCell, weights[i][j])
		}
	}
	costs := Make2DSlice(nc, nc)
	for i, row := range weights {
		for j, cell := range row {
			costs[i][j] = maxCell - cell
		}
	}
	perm, err := hungarianAlgorithm.Solve(costs)
	if err != nil {
		return nil, err
	}
	return perm, nil
}

// Qaligner computes, per K, the cluster column permutation of every run
// relative to the first run of that K, and writes one line per run:
// run ID, K, comma-separated permutation
type Qaligner struct {
	Qdir    string
	Prefix  string
	Outfile string
}

// Run aligns all runs and writes the permutation table
func (r *Qaligner) Run() error {
	qfiles, err := FindQFiles(r.Qdir, r.Prefix)
	if err != nil {
		return err
	}

	fw := mustCreate(r.Outfile)
	nAligned := 0
	var ref *mat64.Dense
	refK := -1
	for _, qf := range qfiles {
		m, err := LoadQMatrix(qf.Path)
		if err != nil {
			fw.Close()
			return err
		}
		var perm []int
		if qf.K != refK {
			// First run of this K anchors the column order
			ref, refK = m, qf.K
			_, nc := m.Dims()
			perm = make([]int, nc)
			for i := range perm {
				perm[i] = i
			}
		} else {
			if perm, err = AlignClusters(ref, m); err != nil {
				fw.Close()
				return fmt.Errorf("%s: %s", qf.Path, err)
			}
		}
		cells := make([]string, len(perm))
		for i, p := range perm {
			cells[i] = strconv.Itoa(p)
		}
		fmt.Fprintf(fw, "%s\t%d\t%s\n", qf.RunID, qf.K, strings.Join(cells, ","))
		nAligned++
	}
	if err := fw.Close(); err != nil {
		return err
	}
	log.Noticef("Cluster alignments for %d runs written to `%s`", nAligned, r.Outfile)
	return nil
}
