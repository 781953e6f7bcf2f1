package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadCSV reads a delimited file with the enrollment header.
func LoadCSV(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(filepath.Base(path), f, opt)
}

// ReadCSV reads a delimited stream. name labels the resulting dataset.
func ReadCSV(name string, src io.Reader, opt Options) (*Dataset, error) {
	br := bufio.NewReader(src)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(br, name)
	}
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	return decode(name, header, r.Read, opt)
}

// WriteCSV writes records under header with each column in its source form,
// so the output reads back through ReadCSV. An empty header writes the
// required columns only.
func WriteCSV(w io.Writer, header []string, records []Record) error {
	if len(header) == 0 {
		header = RequiredFields
	}
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = h
		for _, f := range RequiredFields {
			if strings.EqualFold(f, h) {
				fields[i] = f
				break
			}
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(fields))
	for n, r := range records {
		for i, f := range fields {
			row[i] = r.Raw(f)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", n+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// sniffDelimiter peeks at the header line and picks the most frequent of
// ';', '\t' and ','. A .tsv name forces tab.
func sniffDelimiter(br *bufio.Reader, name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	line, _ := br.Peek(4096)
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(string(line), ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(string(line), string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
