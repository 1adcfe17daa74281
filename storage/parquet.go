// Package storage writes the assembled report tables to secondary sinks:
// parquet files for downstream analysis tooling and Prometheus textfiles
// for dashboard scraping.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"usbip-report/table"
)

// WriteTableParquet writes a table to a parquet file. The schema is built
// from the table's columns; cells are stored as UTF8 strings rendered the
// same way the CSV writer renders them, with absent cells as parquet nulls.
func WriteTableParquet(t *table.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}

	file, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrapf(err, "create parquet file %s", path)
	}

	cols := t.Columns()
	md := make([]string, len(cols))
	for i, c := range cols {
		md[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL", c)
	}

	pw, err := writer.NewCSVWriter(md, file, 4)
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "create parquet writer for %s", path)
	}

	rec := make([]*string, len(cols))
	for _, r := range t.Rows() {
		for i, c := range cols {
			if v, ok := r[c]; ok && v != nil {
				s := table.FormatValue(v)
				rec[i] = &s
			} else {
				rec[i] = nil
			}
		}
		if err := pw.WriteString(rec); err != nil {
			file.Close()
			return errors.Wrapf(err, "write parquet row to %s", path)
		}
	}

	if err := pw.WriteStop(); err != nil {
		file.Close()
		return errors.Wrapf(err, "finalize parquet file %s", path)
	}
	return errors.Wrapf(file.Close(), "close parquet file %s", path)
}
