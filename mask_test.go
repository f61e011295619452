/*
 *  mask_test.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix_test

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ancmix/ancmix"
)

const vcfFixture = `##fileformat=VCFv4.2
##contig=<ID=chr22>
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	S1	S2
chr22	50	.	A	T	.	PASS	.	GT	0/1	1/1
chr22	1000	rs1	A	T	50	PASS	DP=10	GT:DP	0/1:12	1|0:9
chr22	1500	.	G	C	.	PASS	.	GT	0/1	0/0
chr22	2000	.	C	G	.	PASS	.	GT	1/1	0|1
chr22	2500	.	T	A	.	PASS	.	GT	./.	0/1
chr22	4000	.	A	G	.	PASS	.	GT	1/0	1/1
`

// runMask masks the fixture VCF against the fixture MSP with target
// ancestry 0 and returns the output data lines
func runMask(t *testing.T, vcf, msp string) []string {
	t.Helper()
	dir := t.TempDir()
	vcffile := filepath.Join(dir, "in.vcf")
	outfile := filepath.Join(dir, "out.vcf")
	if err := ioutil.WriteFile(vcffile, []byte(vcf), 0644); err != nil {
		t.Fatal(err)
	}
	p := &ancmix.Masker{Ancestry: 0, Vcffile: vcffile, Mspfile: writeMSP(t, msp), Outfile: outfile}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadFile(outfile)
	if err != nil {
		t.Fatal(err)
	}
	var records []string
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if !strings.HasPrefix(line, "#") {
			records = append(records, line)
		}
	}
	return records
}

func genotypes(t *testing.T, record string) (string, string) {
	t.Helper()
	words := strings.Split(record, "\t")
	if len(words) != 11 {
		t.Fatalf("Expected 11 columns, got %d in %q", len(words), record)
	}
	return words[9], words[10]
}

func TestMaskSingleHaplotype(t *testing.T) {
	records := runMask(t, vcfFixture, mspFixture)
	// At 1000, S1 is AFR on haplotype 0 and EUR on haplotype 1: GT slot 0
	// pairs with the S1.0 column and stays, slot 1 is masked
	s1, s2 := genotypes(t, records[1])
	if s1 != "0/.:12" {
		t.Fatalf("S1 at 1000 = %q, want \"0/.:12\"", s1)
	}
	if s2 != ".|.:9" {
		t.Fatalf("S2 at 1000 = %q, want \".|.:9\"", s2)
	}
}

func TestMaskOutsideSegments(t *testing.T) {
	records := runMask(t, vcfFixture, mspFixture)
	// Position 50 precedes every interval: no ancestry call, mask entirely
	s1, s2 := genotypes(t, records[0])
	if s1 != "./." || s2 != "./." {
		t.Fatalf("Genotypes at 50 = %q, %q, want fully masked", s1, s2)
	}
}

func TestMaskBoundaryInclusive(t *testing.T) {
	records := runMask(t, vcfFixture, mspFixture)
	// 2000 is the inclusive end of the first interval
	s1, s2 := genotypes(t, records[3])
	if s1 != "1/." {
		t.Fatalf("S1 at 2000 = %q, want \"1/.\"", s1)
	}
	if s2 != ".|." {
		t.Fatalf("S2 at 2000 = %q, want \".|.\"", s2)
	}
}

func TestMaskMatchingAncestryUnchanged(t *testing.T) {
	records := runMask(t, vcfFixture, mspFixture)
	// At 4000, both S2 haplotypes carry the target ancestry
	s1, s2 := genotypes(t, records[5])
	if s2 != "1/1" {
		t.Fatalf("S2 at 4000 = %q, want \"1/1\"", s2)
	}
	if s1 != "./." {
		t.Fatalf("S1 at 4000 = %q, want \"./.\"", s1)
	}
}

func TestMaskAlreadyMissing(t *testing.T) {
	records := runMask(t, vcfFixture, mspFixture)
	s1, s2 := genotypes(t, records[4])
	if s1 != "./." {
		t.Fatalf("S1 at 2500 = %q, want \"./.\"", s1)
	}
	if s2 != "./1" {
		t.Fatalf("S2 at 2500 = %q, want \"./1\"", s2)
	}
}

func TestMaskPreservesRecordStructure(t *testing.T) {
	records := runMask(t, vcfFixture, mspFixture)
	var input []string
	for _, line := range strings.Split(strings.TrimSuffix(vcfFixture, "\n"), "\n") {
		if !strings.HasPrefix(line, "#") {
			input = append(input, line)
		}
	}
	if len(records) != len(input) {
		t.Fatalf("Expected %d records, got %d", len(input), len(records))
	}
	for i := range records {
		got := strings.Split(records[i], "\t")
		want := strings.Split(input[i], "\t")
		if len(got) != len(want) {
			t.Fatalf("Record %d: column count changed from %d to %d", i, len(want), len(got))
		}
		// The first nine columns pass through byte for byte
		for j := 0; j < 9; j++ {
			if got[j] != want[j] {
				t.Fatalf("Record %d column %d: %q changed to %q", i, j, want[j], got[j])
			}
		}
	}
}

func TestMaskDeterministic(t *testing.T) {
	dir := t.TempDir()
	vcffile := filepath.Join(dir, "in.vcf")
	if err := ioutil.WriteFile(vcffile, []byte(vcfFixture), 0644); err != nil {
		t.Fatal(err)
	}
	mspfile := writeMSP(t, mspFixture)
	var outputs [][]byte
	for _, name := range []string{"a.vcf", "b.vcf"} {
		outfile := filepath.Join(dir, name)
		p := &ancmix.Masker{Ancestry: 0, Vcffile: vcffile, Mspfile: mspfile, Outfile: outfile}
		if err := p.Run(); err != nil {
			t.Fatal(err)
		}
		data, err := ioutil.ReadFile(outfile)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatal("Two runs on identical inputs produced different outputs")
	}
}

func TestMaskSampleMismatch(t *testing.T) {
	dir := t.TempDir()
	vcffile := filepath.Join(dir, "in.vcf")
	if err := ioutil.WriteFile(vcffile, []byte(vcfFixture), 0644); err != nil {
		t.Fatal(err)
	}
	swapped := strings.Replace(mspFixture, "S1.0	S1.1	S2.0	S2.1", "S2.0	S2.1	S1.0	S1.1", 1)
	p := &ancmix.Masker{
		Ancestry: 0,
		Vcffile:  vcffile,
		Mspfile:  writeMSP(t, swapped),
		Outfile:  filepath.Join(dir, "out.vcf"),
	}
	if err := p.Run(); err == nil {
		t.Fatal("Expected an error for reordered msp samples")
	}
}
