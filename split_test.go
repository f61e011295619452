/*
 *  split_test.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix_test

import (
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ancmix/ancmix"
)

func TestSplitShardSizes(t *testing.T) {
	dir := t.TempDir()
	vcffile := filepath.Join(dir, "in.vcf")
	if err := ioutil.WriteFile(vcffile, []byte(vcfFixture), 0644); err != nil {
		t.Fatal(err)
	}
	prefix := filepath.Join(dir, "shard")
	p := &ancmix.Splitter{Vcffile: vcffile, Prefix: prefix, Parts: 4}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}

	// 6 records over 4 parts: 2, 2, 1, 1
	var positions []int
	for i, want := range []int{2, 2, 1, 1} {
		shard := fmt.Sprintf("%s_%d.vcf.gz", prefix, i+1)
		r, err := ancmix.NewVCFReader(shard)
		if err != nil {
			t.Fatal(err)
		}
		if len(r.Header) != 3 {
			t.Fatalf("%s: expected the full 3-line header, got %d lines", shard, len(r.Header))
		}
		n := 0
		for {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatal(err)
			}
			positions = append(positions, rec.Pos)
			n++
		}
		r.Close()
		if n != want {
			t.Fatalf("Shard %d holds %d records, want %d", i+1, n, want)
		}
	}
	want := []int{50, 1000, 1500, 2000, 2500, 4000}
	for i := range want {
		if positions[i] != want[i] {
			t.Fatalf("Record order not preserved: got %v, want %v", positions, want)
		}
	}
}

func TestSplitErrors(t *testing.T) {
	dir := t.TempDir()
	vcffile := filepath.Join(dir, "in.vcf")
	if err := ioutil.WriteFile(vcffile, []byte(vcfFixture), 0644); err != nil {
		t.Fatal(err)
	}
	p := &ancmix.Splitter{Vcffile: vcffile, Prefix: filepath.Join(dir, "s"), Parts: 0}
	if err := p.Run(); err == nil {
		t.Error("Expected an error for zero parts")
	}
	p = &ancmix.Splitter{Vcffile: vcffile, Prefix: filepath.Join(dir, "s"), Parts: 7}
	if err := p.Run(); err == nil {
		t.Error("Expected an error for more parts than variants")
	}

	multi := vcfFixture + "chr21\t100\t.\tA\tT\t.\tPASS\t.\tGT\t0/1\t1/1\n"
	multifile := filepath.Join(dir, "multi.vcf")
	if err := ioutil.WriteFile(multifile, []byte(multi), 0644); err != nil {
		t.Fatal(err)
	}
	p = &ancmix.Splitter{Vcffile: multifile, Prefix: filepath.Join(dir, "m"), Parts: 2}
	if err := p.Run(); err == nil {
		t.Error("Expected an error for a multi-chromosome input")
	}
}
