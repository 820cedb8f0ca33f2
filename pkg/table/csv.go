package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"tractcoords/internal/models"
)

// WriteCSV writes the header and one line per row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	record := make([]string, len(Columns))
	for _, r := range t {
		record[0] = r.ROI
		for i, v := range r.Fields() {
			record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Columns are matched by header
// name, so their order in the file does not matter.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	for _, name := range Columns {
		if _, ok := pos[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var t Table
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var fields [models.NumCoordinates]float64
		for i, name := range models.CoordinateColumns {
			v, err := strconv.ParseFloat(record[pos[name]], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, name, err)
			}
			fields[i] = v
		}
		t = append(t, models.TractRowFromFields(record[pos["roi"]], fields))
	}
	return t, nil
}

// SaveCSV writes t to path, creating parent directories as needed.
func SaveCSV(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return f.Close()
}

// LoadCSV reads a table from path.
func LoadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return t, nil
}

// ResolveOutputPath places a relative file under dir. Absolute paths are
// returned unchanged.
func ResolveOutputPath(dir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(dir, file)
}

// IsStorePath reports whether path names a SQLite database rather than a CSV file.
func IsStorePath(path string) bool {
	switch filepath.Ext(path) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
