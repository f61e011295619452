/*
 *  mask.go
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

// Masker rewrites genotype calls that fall outside the target local
// ancestry as missing. GT slot k of a sample is paired with the <sample>.k
// haplotype column of the segment map: slot 0 with .0, slot 1 with .1. A
// slot whose ancestry label differs from the target becomes the missing
// marker; a position covered by no segment has no ancestry call at all, so
// the whole genotype is masked.
type Masker struct {
	Ancestry int    // target ancestry code, see the first line of the msp file
	Vcffile  string // input VCF, plain or gzipped
	Mspfile  string // local ancestry segment map
	Outfile  string // output VCF, BGZF when the name ends with .gz
}

// Run streams the VCF through the masking transform
func (r *Masker) Run() error {
	msp, err := ParseMSP(r.Mspfile)
	if err != nil {
		return err
	}
	in, err := NewVCFReader(r.Vcffile)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := checkSamples(msp, in); err != nil {
		return err
	}
	log.Noticef("Mask `%s` (%d samples) against ancestry %d from `%s`",
		r.Vcffile, len(in.Samples), r.Ancestry, r.Mspfile)

	out, err := NewVCFWriter(r.Outfile, in.Header)
	if err != nil {
		return err
	}
	nRecords := 0
	for {
		rec, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Discard()
			return err
		}
		r.maskRecord(rec, msp)
		if err := out.WriteRecord(rec); err != nil {
			out.Discard()
			return err
		}
		nRecords++
		if nRecords%ProgressInterval == 0 {
			log.Noticef("Masked %d records, now at %s:%d", nRecords, rec.Chrom, rec.Pos)
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Noticef("Masked VCF (%d records) written to `%s`", nRecords, r.Outfile)
	return nil
}

// maskRecord applies the per-haplotype masking policy to one record
func (r *Masker) maskRecord(rec *VCFRecord, msp *MSP) {
	iv, covered := msp.Locate(rec.Chrom, rec.Pos)
	for i := range msp.Samples {
		mask := []bool{true, true}
		if covered {
			mask[0] = iv.Labels[i][0] != r.Ancestry
			mask[1] = iv.Labels[i][1] != r.Ancestry
		}
		if mask[0] || mask[1] {
			rec.MaskGenotype(i, mask)
		}
	}
}

// checkSamples verifies that the segment map columns and the VCF sample
// columns name the same samples in the same order
func checkSamples(msp *MSP, vcf *VCFReader) error {
	if len(msp.Samples) != len(vcf.Samples) {
		return fmt.Errorf("`%s` has %d samples but `%s` has %d",
			msp.File, len(msp.Samples), vcf.File, len(vcf.Samples))
	}
	for i, sample := range vcf.Samples {
		if msp.Samples[i] != sample {
			return fmt.Errorf("sample %d is `%s` in `%s` but `%s` in `%s`",
				i+1, sample, vcf.File, msp.Samples[i], msp.File)
		}
	}
	return nil
}
