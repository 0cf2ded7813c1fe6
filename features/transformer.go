// Package features turns raw student records into numeric feature matrices.
//
// The layout of a transformed row is the standardized numeric block
// (writing_score, reading_score) followed by the one-hot block of the five
// categorical columns, each indicator divided by its training standard
// deviation. With target requested, math_score is appended as the last
// column.
package features

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/dataset"
	"github.com/YuminosukeSato/aurora/pkg/errors"
	"github.com/YuminosukeSato/aurora/preprocessing"
)

// NumericColumns are the scaled numeric inputs, in output order.
var NumericColumns = []string{dataset.ColWritingScore, dataset.ColReadingScore}

// Transformer is fitted once on the training partition and then applied
// unchanged to every other partition and to inference records.
type Transformer struct {
	State *model.StateManager

	NumericScaler     *preprocessing.StandardScaler
	Encoder           *preprocessing.OneHotEncoder
	CategoricalScaler *preprocessing.StandardScaler
}

// NewTransformer creates an unfitted transformer.
func NewTransformer() *Transformer {
	return &Transformer{
		State:             model.NewStateManager(),
		NumericScaler:     preprocessing.NewStandardScaler(true, true),
		Encoder:           preprocessing.NewOneHotEncoder(),
		CategoricalScaler: preprocessing.NewStandardScaler(false, true),
	}
}

func numericBlock(recs []dataset.Record) *mat.Dense {
	m := mat.NewDense(len(recs), len(NumericColumns), nil)
	for i, r := range recs {
		m.Set(i, 0, float64(r.WritingScore))
		m.Set(i, 1, float64(r.ReadingScore))
	}
	return m
}

func categoricalRows(recs []dataset.Record) [][]string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = r.Categorical()
	}
	return rows
}

// Fit learns scaling statistics and categories from train.
func (t *Transformer) Fit(train []dataset.Record) error {
	if len(train) == 0 {
		return errors.NewModelError("Transformer.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := t.NumericScaler.Fit(numericBlock(train)); err != nil {
		return errors.Wrap(err, "fit numeric scaler")
	}
	if err := t.Encoder.Fit(categoricalRows(train)); err != nil {
		return errors.Wrap(err, "fit encoder")
	}
	encoded, err := t.Encoder.Transform(categoricalRows(train))
	if err != nil {
		return errors.Wrap(err, "encode categories")
	}
	if err := t.CategoricalScaler.Fit(encoded); err != nil {
		return errors.Wrap(err, "fit categorical scaler")
	}

	t.State.SetDimensions(t.NFeatures(), len(train))
	t.State.SetFitted()
	return nil
}

// Transform encodes recs. When withTarget is set, math_score is appended as
// the final column.
func (t *Transformer) Transform(recs []dataset.Record, withTarget bool) (*mat.Dense, error) {
	if err := t.State.RequireFitted("Transformer", "Transform"); err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.NewModelError("Transformer.Transform", "empty data", errors.ErrEmptyData)
	}

	num, err := t.NumericScaler.Transform(numericBlock(recs))
	if err != nil {
		return nil, errors.Wrap(err, "scale numeric columns")
	}
	encoded, err := t.Encoder.Transform(categoricalRows(recs))
	if err != nil {
		return nil, errors.Wrap(err, "encode categories")
	}
	cat, err := t.CategoricalScaler.Transform(encoded)
	if err != nil {
		return nil, errors.Wrap(err, "scale categorical columns")
	}

	nNum := len(NumericColumns)
	nCat := t.Encoder.NOutputs()
	width := nNum + nCat
	if withTarget {
		width++
	}
	out := mat.NewDense(len(recs), width, nil)
	out.Slice(0, len(recs), 0, nNum).(*mat.Dense).Copy(num)
	if nCat > 0 {
		out.Slice(0, len(recs), nNum, nNum+nCat).(*mat.Dense).Copy(cat)
	}
	if withTarget {
		for i, r := range recs {
			out.Set(i, width-1, float64(r.MathScore))
		}
	}
	return out, nil
}

// FitTransform fits on train and returns its transformed matrix.
func (t *Transformer) FitTransform(train []dataset.Record, withTarget bool) (*mat.Dense, error) {
	if err := t.Fit(train); err != nil {
		return nil, err
	}
	return t.Transform(train, withTarget)
}

// NFeatures is the number of feature columns, target excluded.
func (t *Transformer) NFeatures() int {
	return len(NumericColumns) + t.Encoder.NOutputs()
}

// FeatureNames names the feature columns in output order.
func (t *Transformer) FeatureNames() []string {
	names := append([]string{}, NumericColumns...)
	return append(names, t.Encoder.FeatureNames(dataset.CategoricalColumns)...)
}
