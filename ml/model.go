package ml

// Classifier is a trained-once numeric classifier. Rows of X are feature
// vectors in FeatureColumns order.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) ([]int, error)
	// PredictProba returns one row per sample with a column per entry of Classes.
	PredictProba(X [][]float64) ([][]float64, error)
	Classes() []int
}
