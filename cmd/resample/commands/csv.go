package commands

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
)

// loadCSV reads a headed CSV file into a frame. A column becomes numeric
// when every value parses as a float; otherwise it is kept as labels.
func loadCSV(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(rows) < 2 {
		return nil, errors.Newf("%s needs a header row and at least one data row", path)
	}

	header := rows[0]
	records := rows[1:]
	f := frame.New()
	for col, name := range header {
		values := make([]string, len(records))
		floats := make([]float64, len(records))
		numeric := true
		for i, record := range records {
			if col >= len(record) {
				return nil, errors.Newf("%s row %d has %d fields, header has %d", path, i+2, len(record), len(header))
			}
			values[i] = record[col]
			if numeric {
				floats[i], err = strconv.ParseFloat(record[col], 64)
				if err != nil {
					numeric = false
				}
			}
		}
		if numeric {
			err = f.AddFloats(name, floats)
		} else {
			err = f.AddLabels(name, values)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", name)
		}
	}
	return f, nil
}
