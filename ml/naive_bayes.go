package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultVarSmoothing matches scikit-learn's GaussianNB default.
const DefaultVarSmoothing = 1e-9

// GaussianNB is a Gaussian Naive Bayes classifier with the same estimates as
// scikit-learn: frequency priors, per-class population mean and variance, and
// VarSmoothing times the largest feature variance added to every variance.
type GaussianNB struct {
	VarSmoothing float64

	classes  []int
	priors   []float64
	theta    [][]float64
	variance [][]float64
	epsilon  float64
	features int
}

// NewGaussianNB returns an unfitted classifier. A non-positive varSmoothing
// selects DefaultVarSmoothing.
func NewGaussianNB(varSmoothing float64) *GaussianNB {
	if varSmoothing <= 0 {
		varSmoothing = DefaultVarSmoothing
	}
	return &GaussianNB{VarSmoothing: varSmoothing}
}

// Fit estimates priors, means and variances from X and y. Classes are the
// distinct labels of y in ascending order.
func (nb *GaussianNB) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(y) == 0 {
		return errors.New("features or labels empty")
	}
	if len(X) != len(y) {
		return errors.New("features and labels size mismatch")
	}
	width := len(X[0])
	if width == 0 {
		return errors.New("feature vectors are empty")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}

	columns := transpose(X, width)
	maxVar := 0.0
	for _, col := range columns {
		_, v := stat.PopMeanVariance(col, nil)
		if v > maxVar {
			maxVar = v
		}
	}
	epsilon := nb.VarSmoothing * maxVar
	if epsilon == 0 {
		return errors.New("all features have zero variance")
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	priors := make([]float64, len(classes))
	theta := make([][]float64, len(classes))
	variance := make([][]float64, len(classes))
	values := make([]float64, 0, len(X))
	for c, label := range classes {
		rows := byClass[label]
		priors[c] = float64(len(rows)) / float64(len(X))
		theta[c] = make([]float64, width)
		variance[c] = make([]float64, width)
		for j := 0; j < width; j++ {
			values = values[:0]
			for _, idx := range rows {
				values = append(values, X[idx][j])
			}
			mean, v := stat.PopMeanVariance(values, nil)
			theta[c][j] = mean
			variance[c][j] = v + epsilon
		}
	}

	nb.classes = classes
	nb.priors = priors
	nb.theta = theta
	nb.variance = variance
	nb.epsilon = epsilon
	nb.features = width
	return nil
}

// Classes returns the fitted labels in ascending order.
func (nb *GaussianNB) Classes() []int {
	return append([]int(nil), nb.classes...)
}

// Priors returns the class priors in Classes order.
func (nb *GaussianNB) Priors() []float64 {
	return append([]float64(nil), nb.priors...)
}

// Predict returns the most likely class per row.
func (nb *GaussianNB) Predict(X [][]float64) ([]int, error) {
	labels := make([]int, len(X))
	for i, x := range X {
		jll, err := nb.jointLogLikelihood(x)
		if err != nil {
			return nil, err
		}
		labels[i] = nb.classes[floats.MaxIdx(jll)]
	}
	return labels, nil
}

// PredictProba returns normalised class probabilities per row, in Classes order.
func (nb *GaussianNB) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, x := range X {
		jll, err := nb.jointLogLikelihood(x)
		if err != nil {
			return nil, err
		}
		norm := floats.LogSumExp(jll)
		proba := make([]float64, len(jll))
		for c := range jll {
			proba[c] = math.Exp(jll[c] - norm)
		}
		out[i] = proba
	}
	return out, nil
}

func (nb *GaussianNB) jointLogLikelihood(x []float64) ([]float64, error) {
	if len(nb.classes) == 0 {
		return nil, ErrNotTrained
	}
	if len(x) != nb.features {
		return nil, fmt.Errorf("expected %d features, got %d", nb.features, len(x))
	}
	jll := make([]float64, len(nb.classes))
	for c := range nb.classes {
		sum := 0.0
		for j, v := range x {
			diff := v - nb.theta[c][j]
			sum += math.Log(2*math.Pi*nb.variance[c][j]) + diff*diff/nb.variance[c][j]
		}
		jll[c] = math.Log(nb.priors[c]) - 0.5*sum
	}
	return jll, nil
}

func transpose(X [][]float64, width int) [][]float64 {
	columns := make([][]float64, width)
	for j := range columns {
		columns[j] = make([]float64, len(X))
		for i := range X {
			columns[j][i] = X[i][j]
		}
	}
	return columns
}
