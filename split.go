/*
 *  split.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"fmt"
	"io"
)

// Splitter partitions a single-chromosome VCF into contiguous shards of
// near-equal variant counts, so that downstream steps such as masking can
// run once per shard. Record order is preserved and every shard carries
// the full header.
type Splitter struct {
	Vcffile string
	Prefix  string // shard files are named <Prefix>_<i>.vcf.gz, 1-based
	Parts   int
}

// Run makes two passes over the input: one to count records and check the
// single-chromosome requirement, one to write the shards
func (r *Splitter) Run() error {
	if r.Parts <= 0 {
		return fmt.Errorf("number of parts must be positive, got %d", r.Parts)
	}
	nRecords, err := r.countRecords()
	if err != nil {
		return err
	}
	if nRecords < r.Parts {
		return fmt.Errorf("`%s` has fewer variants (%d) than requested parts (%d)",
			r.Vcffile, nRecords, r.Parts)
	}

	in, err := NewVCFReader(r.Vcffile)
	if err != nil {
		return err
	}
	defer in.Close()

	for i, size := range chunkSizes(nRecords, r.Parts) {
		outfile := fmt.Sprintf("%s_%d.vcf.gz", r.Prefix, i+1)
		out, err := NewVCFWriter(outfile, in.Header)
		if err != nil {
			return err
		}
		for j := 0; j < size; j++ {
			rec, err := in.Read()
			if err != nil {
				out.Discard()
				return err
			}
			if err := out.WriteRecord(rec); err != nil {
				out.Discard()
				return err
			}
		}
		if err := out.Close(); err != nil {
			return err
		}
		log.Noticef("Wrote %d records to `%s`", size, outfile)
	}
	return nil
}

// countRecords scans the input once, enforcing a single chromosome
func (r *Splitter) countRecords() (int, error) {
	in, err := NewVCFReader(r.Vcffile)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	n, chrom := 0, ""
	for {
		rec, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if chrom == "" {
			chrom = rec.Chrom
		} else if rec.Chrom != chrom {
			return 0, fmt.Errorf("`%s` contains multiple chromosomes (%s, %s); split one chromosome at a time",
				r.Vcffile, chrom, rec.Chrom)
		}
		n++
	}
	return n, nil
}

// chunkSizes distributes n records over k contiguous chunks, the first
// n%k chunks holding one extra record
func chunkSizes(n, k int) []int {
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}
