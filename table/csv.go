package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteCSV writes the table with a header row. Absent cells become empty
// fields. An empty table still writes its header so downstream tooling sees
// the schema.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	rec := make([]string, len(t.columns))
	for _, r := range t.rows {
		for i, c := range t.columns {
			rec[i] = FormatValue(r[c])
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// WriteCSVFile writes the table to path, creating parent directories.
func (t *Table) WriteCSVFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
