/*
 *  vcf.go
 *  ancmix
 *
 *  Created by the ancmix authors on 03/08/24
 *  Copyright © 2024 the ancmix authors. All rights reserved.
 */

package ancmix

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/shenwei356/xopen"
)

// vcfFixedColumns is the number of columns before the per-sample fields:
// CHROM, POS, ID, REF, ALT, QUAL, FILTER, INFO, FORMAT
const vcfFixedColumns = 9

// VCFRecord holds one data line of a VCF file. The columns are kept as raw
// strings so that fields the masker does not touch round-trip byte for byte.
type VCFRecord struct {
	Chrom  string
	Pos    int
	fields []string
}

func parseVCFRecord(line string, nSamples int) (*VCFRecord, error) {
	fields := strings.Split(line, "\t")
	want := vcfFixedColumns + nSamples
	if nSamples == 0 && len(fields) == vcfFixedColumns-1 {
		// Site-only VCF without a FORMAT column
		want = vcfFixedColumns - 1
	}
	if len(fields) != want {
		return nil, fmt.Errorf("expected %d columns, got %d", want, len(fields))
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid POS `%s`", fields[1])
	}
	return &VCFRecord{Chrom: fields[0], Pos: pos, fields: fields}, nil
}

// NumSamples returns the number of per-sample genotype fields
func (r *VCFRecord) NumSamples() int {
	if len(r.fields) < vcfFixedColumns {
		return 0
	}
	return len(r.fields) - vcfFixedColumns
}

// Genotype returns the raw per-sample field of the i-th sample
func (r *VCFRecord) Genotype(i int) string {
	return r.fields[vcfFixedColumns+i]
}

// gtIndex locates the GT key within the FORMAT column, -1 when absent
func (r *VCFRecord) gtIndex() int {
	for i, key := range strings.Split(r.fields[8], ":") {
		if key == "GT" {
			return i
		}
	}
	return -1
}

// MaskGenotype replaces allele slots in the GT subfield of the i-th sample
// with the missing marker. mask[k] controls slot k; slots beyond len(mask)
// are replaced only when every entry of mask is set, i.e. when the whole
// call is being masked. Phase separators and the other FORMAT subfields are
// left untouched.
func (r *VCFRecord) MaskGenotype(i int, mask []bool) {
	gi := r.gtIndex()
	if gi < 0 {
		return
	}
	subfields := strings.Split(r.fields[vcfFixedColumns+i], ":")
	if gi >= len(subfields) {
		return
	}
	subfields[gi] = maskGT(subfields[gi], mask)
	r.fields[vcfFixedColumns+i] = strings.Join(subfields, ":")
}

// maskGT rewrites individual allele tokens within a genotype string while
// keeping the phase separators in place
func maskGT(gt string, mask []bool) string {
	maskAll := true
	for _, m := range mask {
		maskAll = maskAll && m
	}
	var sb strings.Builder
	slot, start := 0, 0
	flush := func(end int) {
		if (slot < len(mask) && mask[slot]) || (slot >= len(mask) && maskAll) {
			sb.WriteString(MissingAllele)
		} else {
			sb.WriteString(gt[start:end])
		}
		slot++
	}
	for i := 0; i < len(gt); i++ {
		if gt[i] == '/' || gt[i] == '|' {
			flush(i)
			sb.WriteByte(gt[i])
			start = i + 1
		}
	}
	flush(len(gt))
	return sb.String()
}

// String outputs the tab-joined representation of VCFRecord
func (r *VCFRecord) String() string {
	return strings.Join(r.fields, "\t")
}

// VCFReader streams records out of a plain or gzipped VCF file
type VCFReader struct {
	File    string
	Header  []string // all meta lines plus the #CHROM line, in file order
	Samples []string
	fh      *xopen.Reader
	lineNo  int
}

// NewVCFReader opens the file and consumes the header lines
func NewVCFReader(file string) (*VCFReader, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, fmt.Errorf("cannot open `%s` (%s)", file, err)
	}
	r := &VCFReader{File: file, fh: fh}
	for {
		row, err := fh.ReadString('\n')
		row = strings.TrimRight(row, "\r\n")
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("%s: %s", file, err)
		}
		if row == "" && err == io.EOF {
			return nil, fmt.Errorf("%s: no #CHROM header line found", file)
		}
		r.lineNo++
		r.Header = append(r.Header, row)
		if strings.HasPrefix(row, "#CHROM") {
			cols := strings.Split(row, "\t")
			if len(cols) > vcfFixedColumns {
				r.Samples = cols[vcfFixedColumns:]
			}
			return r, nil
		}
		if !strings.HasPrefix(row, "##") {
			return nil, fmt.Errorf("%s: line %d: unexpected content before #CHROM header", file, r.lineNo)
		}
	}
}

// Read returns the next record, or io.EOF after the last one. Blank lines
// are tolerated and dropped; they carry no record and are not written back.
func (r *VCFReader) Read() (*VCFRecord, error) {
	for {
		row, err := r.fh.ReadString('\n')
		row = strings.TrimRight(row, "\r\n")
		if err != nil && err != io.EOF {
			return nil, err
		}
		if row == "" {
			if err == io.EOF {
				return nil, io.EOF
			}
			r.lineNo++
			continue
		}
		r.lineNo++
		rec, perr := parseVCFRecord(row, len(r.Samples))
		if perr != nil {
			return nil, fmt.Errorf("%s: line %d: %s", r.File, r.lineNo, perr)
		}
		return rec, nil
	}
}

// Close releases the underlying file handle
func (r *VCFReader) Close() error {
	return r.fh.Close()
}

// VCFWriter writes a VCF stream to a temporary file and moves it into place
// on Close, so a failed run never leaves a truncated output behind. Files
// ending in .gz or .bgz are written as BGZF so that downstream tools can
// index them.
type VCFWriter struct {
	path string
	tmp  string
	f    *os.File
	bg   *bgzf.Writer
	buf  *bufio.Writer
}

// NewVCFWriter creates the temporary output file and writes the header
func NewVCFWriter(path string, header []string) (*VCFWriter, error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("cannot create `%s` (%s)", tmp, err)
	}
	w := &VCFWriter{path: path, tmp: tmp, f: f}
	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".bgz") {
		w.bg = bgzf.NewWriter(f, 1)
	} else {
		w.buf = bufio.NewWriter(f)
	}
	for _, row := range header {
		if err := w.writeString(row + "\n"); err != nil {
			w.Discard()
			return nil, err
		}
	}
	return w, nil
}

func (w *VCFWriter) writeString(s string) error {
	var err error
	if w.bg != nil {
		_, err = w.bg.Write([]byte(s))
	} else {
		_, err = w.buf.WriteString(s)
	}
	return err
}

// WriteRecord appends one record to the output stream
func (w *VCFWriter) WriteRecord(rec *VCFRecord) error {
	return w.writeString(rec.String() + "\n")
}

// Close flushes the stream and renames the temporary file onto the target
func (w *VCFWriter) Close() error {
	if w.bg != nil {
		if err := w.bg.Close(); err != nil {
			return err
		}
	} else if err := w.buf.Flush(); err != nil {
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	return os.Rename(w.tmp, w.path)
}

// Discard abandons the output and removes the temporary file
func (w *VCFWriter) Discard() {
	if w.bg != nil {
		_ = w.bg.Close()
	}
	_ = w.f.Close()
	_ = os.Remove(w.tmp)
}
