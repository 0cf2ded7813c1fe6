package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/aurora/core/model"
	"github.com/YuminosukeSato/aurora/pkg/errors"
)

// OneHotEncoder はカテゴリ列を固定幅の0/1列に変換する
//
// カテゴリは Fit 時のデータから列ごとに学習し、辞書順に並べる。
// Transform 時に未知のカテゴリが現れた場合、その列のブロックはすべて0になる
// （scikit-learn の handle_unknown="ignore" と同じ）。
type OneHotEncoder struct {
	State *model.StateManager

	// Categories は列ごとのソート済みカテゴリ
	Categories [][]string
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{State: model.NewStateManager()}
}

// Fit は rows（n_samples × n_columns の文字列表）からカテゴリを学習する
func (e *OneHotEncoder) Fit(rows [][]string) error {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	nCols := len(rows[0])

	seen := make([]map[string]struct{}, nCols)
	for j := range seen {
		seen[j] = map[string]struct{}{}
	}
	for i, row := range rows {
		if len(row) != nCols {
			return errors.NewDimensionError(fmt.Sprintf("OneHotEncoder.Fit row %d", i), nCols, len(row), 1)
		}
		for j, v := range row {
			seen[j][v] = struct{}{}
		}
	}

	e.Categories = make([][]string, nCols)
	for j, set := range seen {
		cats := make([]string, 0, len(set))
		for v := range set {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}

	e.State.SetDimensions(nCols, len(rows))
	e.State.SetFitted()
	return nil
}

// NOutputs は出力列の数（全カテゴリ数の合計）を返す
func (e *OneHotEncoder) NOutputs() int {
	n := 0
	for _, cats := range e.Categories {
		n += len(cats)
	}
	return n
}

// Transform は rows をOne-Hot表現に変換する
func (e *OneHotEncoder) Transform(rows [][]string) (*mat.Dense, error) {
	if err := e.State.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewModelError("OneHotEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	offsets := make([]int, len(e.Categories))
	width := 0
	for j, cats := range e.Categories {
		offsets[j] = width
		width += len(cats)
	}

	out := mat.NewDense(len(rows), width, nil)
	for i, row := range rows {
		if err := e.State.CheckFeatures("OneHotEncoder.Transform", len(row)); err != nil {
			return nil, err
		}
		for j, v := range row {
			k := sort.SearchStrings(e.Categories[j], v)
			if k < len(e.Categories[j]) && e.Categories[j][k] == v {
				out.Set(i, offsets[j]+k, 1)
			}
		}
	}
	return out, nil
}

// FeatureNames は "列名_カテゴリ" 形式の出力列名を返す
func (e *OneHotEncoder) FeatureNames(inputNames []string) []string {
	names := make([]string, 0, e.NOutputs())
	for j, cats := range e.Categories {
		prefix := fmt.Sprintf("x%d", j)
		if j < len(inputNames) {
			prefix = inputNames[j]
		}
		for _, c := range cats {
			names = append(names, prefix+"_"+c)
		}
	}
	return names
}
