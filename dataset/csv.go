package dataset

import (
	"encoding/csv"
	"io"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// ReadCSV parses a header row followed by one record per row. Columns may
// appear in any order and unknown columns are ignored. Line numbers in
// errors are 1-based and count the header.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewValidationError("header", "empty dataset", nil)
	}
	if err != nil {
		return nil, errors.NewRowValidationError(1, "header", "unreadable header", nil, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = trimBOM(name)
		}
		index[name] = i
	}
	pos := make([]int, len(Columns))
	for i, col := range Columns {
		p, ok := index[col]
		if !ok {
			return nil, errors.NewValidationError("header", "missing required column "+col, header)
		}
		pos[i] = p
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, errors.NewRowValidationError(line, "row", "malformed csv", nil, err)
		}
		rec, err := parseRow(row, pos)
		if err != nil {
			return nil, rowError(line, err)
		}
		if err := ValidateRecord(rec); err != nil {
			return nil, rowError(line, err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, errors.NewValidationError("rows", "empty dataset", 0)
	}
	return records, nil
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}

// rowError attaches a line number to a field-level ValidationError.
func rowError(line int, err error) error {
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		return errors.NewRowValidationError(line, ve.ParamName, ve.Reason, ve.Value, ve.Err)
	}
	return errors.NewRowValidationError(line, "row", "invalid row", nil, err)
}

func parseRow(row []string, pos []int) (Record, error) {
	var (
		rec Record
		err error
	)
	rec.Gender = row[pos[0]]
	rec.RaceEthnicity = row[pos[1]]
	rec.ParentalLevelOfEducation = row[pos[2]]
	rec.Lunch = row[pos[3]]
	rec.TestPreparationCourse = row[pos[4]]
	if rec.MathScore, err = parseScore(ColMathScore, row[pos[5]]); err != nil {
		return Record{}, err
	}
	if rec.ReadingScore, err = parseScore(ColReadingScore, row[pos[6]]); err != nil {
		return Record{}, err
	}
	if rec.WritingScore, err = parseScore(ColWritingScore, row[pos[7]]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// WriteCSV writes the canonical header followed by records.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, rec := range records {
		if err := cw.Write(rec.Values()); err != nil {
			return errors.Wrap(err, "write record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
