// Package dataset defines the raw student-performance record, its
// validation rules, CSV encoding and the deterministic train/test split.
package dataset

import (
	"slices"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// Column names as they appear in the CSV header.
const (
	ColGender                   = "gender"
	ColRaceEthnicity            = "race_ethnicity"
	ColParentalLevelOfEducation = "parental_level_of_education"
	ColLunch                    = "lunch"
	ColTestPreparationCourse    = "test_preparation_course"
	ColMathScore                = "math_score"
	ColReadingScore             = "reading_score"
	ColWritingScore             = "writing_score"
)

// Columns is the canonical column order of the raw data.
var Columns = []string{
	ColGender,
	ColRaceEthnicity,
	ColParentalLevelOfEducation,
	ColLunch,
	ColTestPreparationCourse,
	ColMathScore,
	ColReadingScore,
	ColWritingScore,
}

// InputColumns are the columns known at inference time.
var InputColumns = []string{
	ColGender,
	ColRaceEthnicity,
	ColParentalLevelOfEducation,
	ColLunch,
	ColTestPreparationCourse,
	ColReadingScore,
	ColWritingScore,
}

// CategoricalColumns are the one-hot encoded inputs, in encoding order.
var CategoricalColumns = []string{
	ColGender,
	ColRaceEthnicity,
	ColParentalLevelOfEducation,
	ColLunch,
	ColTestPreparationCourse,
}

// Accepted categorical values. Matching is exact and case-sensitive.
var (
	Genders = []string{"female", "male"}

	RaceEthnicities = []string{"group A", "group B", "group C", "group D", "group E"}

	ParentalEducationLevels = []string{
		"some high school",
		"high school",
		"some college",
		"associate's degree",
		"bachelor's degree",
		"master's degree",
	}

	Lunches = []string{"standard", "free/reduced"}

	TestPreparationCourses = []string{"none", "completed"}
)

// Score bounds, inclusive.
const (
	MinScore = 0
	MaxScore = 100
)

// Record is one student. MathScore is the regression target and is ignored
// by inference-time validation.
type Record struct {
	Gender                   string
	RaceEthnicity            string
	ParentalLevelOfEducation string
	Lunch                    string
	TestPreparationCourse    string
	MathScore                int
	ReadingScore             int
	WritingScore             int
}

// Categorical returns the categorical fields in CategoricalColumns order.
func (r Record) Categorical() []string {
	return []string{
		r.Gender,
		r.RaceEthnicity,
		r.ParentalLevelOfEducation,
		r.Lunch,
		r.TestPreparationCourse,
	}
}

// Values returns the record as strings in Columns order.
func (r Record) Values() []string {
	return []string{
		r.Gender,
		r.RaceEthnicity,
		r.ParentalLevelOfEducation,
		r.Lunch,
		r.TestPreparationCourse,
		strconv.Itoa(r.MathScore),
		strconv.Itoa(r.ReadingScore),
		strconv.Itoa(r.WritingScore),
	}
}

func checkCategory(name, value string, allowed []string) error {
	if value == "" {
		return errors.NewValidationError(name, "must not be empty", value)
	}
	if !slices.Contains(allowed, value) {
		return errors.NewValidationError(name, "not one of ["+strings.Join(allowed, ", ")+"]", value)
	}
	return nil
}

func checkScore(name string, value int) error {
	if value < MinScore || value > MaxScore {
		return errors.NewValidationError(name, "must be an integer in [0, 100]", value)
	}
	return nil
}

// ValidateInput checks the seven fields used for inference.
func ValidateInput(r Record) error {
	checks := []error{
		checkCategory(ColGender, r.Gender, Genders),
		checkCategory(ColRaceEthnicity, r.RaceEthnicity, RaceEthnicities),
		checkCategory(ColParentalLevelOfEducation, r.ParentalLevelOfEducation, ParentalEducationLevels),
		checkCategory(ColLunch, r.Lunch, Lunches),
		checkCategory(ColTestPreparationCourse, r.TestPreparationCourse, TestPreparationCourses),
		checkScore(ColReadingScore, r.ReadingScore),
		checkScore(ColWritingScore, r.WritingScore),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidateRecord checks a training record, target included.
func ValidateRecord(r Record) error {
	if err := ValidateInput(r); err != nil {
		return err
	}
	return checkScore(ColMathScore, r.MathScore)
}

// parseScore converts a score cell. Range is checked by validation.
func parseScore(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.NewValidationError(name, "not an integer", raw)
	}
	return v, nil
}

// ParseInput builds an inference record from string values keyed by column
// name and validates it. math_score is not read.
func ParseInput(values map[string]string) (Record, error) {
	var rec Record
	for _, col := range InputColumns {
		if _, ok := values[col]; !ok {
			return Record{}, errors.NewValidationError(col, "missing", nil)
		}
	}
	rec.Gender = values[ColGender]
	rec.RaceEthnicity = values[ColRaceEthnicity]
	rec.ParentalLevelOfEducation = values[ColParentalLevelOfEducation]
	rec.Lunch = values[ColLunch]
	rec.TestPreparationCourse = values[ColTestPreparationCourse]

	var err error
	if rec.ReadingScore, err = parseScore(ColReadingScore, values[ColReadingScore]); err != nil {
		return Record{}, err
	}
	if rec.WritingScore, err = parseScore(ColWritingScore, values[ColWritingScore]); err != nil {
		return Record{}, err
	}
	if err := ValidateInput(rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
