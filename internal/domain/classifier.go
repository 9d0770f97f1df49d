package domain

// Classifier scores a feature row with a trained binary model.
type Classifier interface {
	// PredictProba returns the class probabilities [p(safe), p(danger)] for a
	// row ordered like the model's feature schema.
	PredictProba(row []float64) ([]float64, error)
}
