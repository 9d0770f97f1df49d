package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidModel is returned when a model artifact cannot be used for inference.
var ErrInvalidModel = errors.New("invalid model")

// Supported objectives.
const (
	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveRegLogistic    = "reg:logistic"
	ObjectiveBinaryLogitRaw = "binary:logitraw"
)

// Booster is a binary gradient-boosted tree ensemble ready for inference.
// It is immutable after decoding and safe for concurrent use.
type Booster struct {
	trees        []tree
	activeTrees  int
	numFeature   int
	baseMargin   float64
	objective    string
	featureNames []string
}

type tree struct {
	left        []int
	right       []int
	splitIndex  []int
	splitCond   []float64
	threshold   []float32
	defaultLeft []bool
	lossChange  []float64
}

// DecodeBooster parses an XGBoost JSON model.
func DecodeBooster(r io.Reader) (*Booster, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode json: %w", ErrInvalidModel, err)
	}
	return NewBooster(doc)
}

// NewBooster validates a decoded model document and builds a Booster from it.
func NewBooster(doc Document) (*Booster, error) {
	learner := doc.Learner

	if name := learner.GradientBooster.Name; name != "gbtree" {
		return nil, fmt.Errorf("%w: unsupported booster %q", ErrInvalidModel, name)
	}

	numClass, err := parseIntParam(learner.LearnerModelParam.NumClass, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: num_class: %w", ErrInvalidModel, err)
	}
	if numClass > 1 {
		return nil, fmt.Errorf("%w: expected a binary model, got %d classes", ErrInvalidModel, numClass)
	}

	numFeature, err := parseIntParam(learner.LearnerModelParam.NumFeature, -1)
	if err != nil || numFeature <= 0 {
		return nil, fmt.Errorf("%w: num_feature %q", ErrInvalidModel, learner.LearnerModelParam.NumFeature)
	}

	baseScore, err := parseBaseScore(learner.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, fmt.Errorf("%w: base_score: %w", ErrInvalidModel, err)
	}

	objective := learner.Objective.Name
	baseMargin, err := baseMarginFor(objective, baseScore)
	if err != nil {
		return nil, err
	}

	if len(learner.FeatureNames) > 0 && len(learner.FeatureNames) != numFeature {
		return nil, fmt.Errorf("%w: %d feature names for %d features", ErrInvalidModel, len(learner.FeatureNames), numFeature)
	}

	docs := learner.GradientBooster.Model.Trees
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: model has no trees", ErrInvalidModel)
	}

	trees := make([]tree, len(docs))
	for i, td := range docs {
		t, err := newTree(td, numFeature)
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %w", ErrInvalidModel, i, err)
		}
		trees[i] = t
	}

	activeTrees, err := activeTreeCount(learner, len(trees))
	if err != nil {
		return nil, err
	}

	return &Booster{
		trees:        trees,
		activeTrees:  activeTrees,
		numFeature:   numFeature,
		baseMargin:   baseMargin,
		objective:    objective,
		featureNames: slices.Clone(learner.FeatureNames),
	}, nil
}

// NumFeature returns the number of input columns the model expects.
func (b *Booster) NumFeature() int { return b.numFeature }

// NumTrees returns the number of trees used for prediction.
func (b *Booster) NumTrees() int { return b.activeTrees }

// Objective returns the training objective name.
func (b *Booster) Objective() string { return b.objective }

// FeatureNames returns the feature names stored in the model, if any.
func (b *Booster) FeatureNames() []string { return slices.Clone(b.featureNames) }

// Margin returns the raw ensemble score for a row.
func (b *Booster) Margin(row []float64) (float64, error) {
	if len(row) != b.numFeature {
		return 0, fmt.Errorf("row has %d features, model expects %d", len(row), b.numFeature)
	}
	for i, v := range row {
		if math.IsInf(v, 0) {
			return 0, fmt.Errorf("feature %d is infinite", i)
		}
	}

	margin := b.baseMargin
	for i := range b.activeTrees {
		leaf, err := b.trees[i].predict(row)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		margin += leaf
	}
	return margin, nil
}

// PredictProba returns [p(class 0), p(class 1)] for a row.
func (b *Booster) PredictProba(row []float64) ([]float64, error) {
	margin, err := b.Margin(row)
	if err != nil {
		return nil, err
	}
	p := sigmoid(margin)
	return []float64{1 - p, p}, nil
}

// FeatureImportances returns gain importances (average loss reduction per
// split of each feature) normalized to sum to 1, indexed by feature column.
// All trees are counted, matching the scikit-learn wrapper.
func (b *Booster) FeatureImportances() []float64 {
	gain := make([]float64, b.numFeature)
	count := make([]int, b.numFeature)
	for _, t := range b.trees {
		for node, left := range t.left {
			if left == -1 {
				continue
			}
			idx := t.splitIndex[node]
			gain[idx] += t.lossChange[node]
			count[idx]++
		}
	}

	var total float64
	for i := range gain {
		if count[i] > 0 {
			gain[i] /= float64(count[i])
		}
		total += gain[i]
	}
	if total == 0 {
		return gain
	}
	for i := range gain {
		gain[i] /= total
	}
	return gain
}

func newTree(td TreeDocument, numFeature int) (tree, error) {
	n := len(td.LeftChildren)
	if n == 0 {
		return tree{}, errors.New("empty tree")
	}
	if len(td.RightChildren) != n || len(td.SplitIndices) != n || len(td.SplitConditions) != n {
		return tree{}, errors.New("node arrays have different lengths")
	}

	defaultLeft := make([]bool, n)
	if len(td.DefaultLeft) != 0 {
		if len(td.DefaultLeft) != n {
			return tree{}, errors.New("default_left has wrong length")
		}
		for i, v := range td.DefaultLeft {
			defaultLeft[i] = bool(v)
		}
	}

	lossChange := make([]float64, n)
	if len(td.LossChanges) != 0 {
		if len(td.LossChanges) != n {
			return tree{}, errors.New("loss_changes has wrong length")
		}
		copy(lossChange, td.LossChanges)
	}

	for i := range n {
		l, r := td.LeftChildren[i], td.RightChildren[i]
		if l == -1 {
			continue
		}
		if l <= 0 || l >= n || r <= 0 || r >= n {
			return tree{}, fmt.Errorf("node %d has out of range children %d/%d", i, l, r)
		}
		if idx := td.SplitIndices[i]; idx < 0 || idx >= numFeature {
			return tree{}, fmt.Errorf("node %d splits on feature %d of %d", i, idx, numFeature)
		}
	}

	threshold := make([]float32, n)
	for i, c := range td.SplitConditions {
		threshold[i] = float32(c)
	}

	return tree{
		left:        slices.Clone(td.LeftChildren),
		right:       slices.Clone(td.RightChildren),
		splitIndex:  slices.Clone(td.SplitIndices),
		splitCond:   slices.Clone(td.SplitConditions),
		threshold:   threshold,
		defaultLeft: defaultLeft,
		lossChange:  lossChange,
	}, nil
}

// predict walks from the root to a leaf. A valid walk visits each node at most
// once, so a longer walk means the tree contains a cycle. Splits compare in
// float32, the precision XGBoost stores both inputs and thresholds in.
func (t tree) predict(row []float64) (float64, error) {
	node := 0
	for range len(t.left) {
		if t.left[node] == -1 {
			return t.splitCond[node], nil
		}
		x := row[t.splitIndex[node]]
		switch {
		case math.IsNaN(x):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case float32(x) < t.threshold[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return 0, errors.New("tree walk did not reach a leaf")
}

// activeTreeCount honors best_iteration from early stopping, as the
// scikit-learn wrapper does for predict_proba.
func activeTreeCount(learner LearnerDocument, total int) (int, error) {
	best, ok := learner.Attributes["best_iteration"]
	if !ok {
		return total, nil
	}
	iteration, err := strconv.Atoi(best)
	if err != nil || iteration < 0 {
		return 0, fmt.Errorf("%w: best_iteration %q", ErrInvalidModel, best)
	}
	perIteration, err := parseIntParam(learner.GradientBooster.Model.Param.NumParallelTree, 1)
	if err != nil || perIteration < 1 {
		return 0, fmt.Errorf("%w: num_parallel_tree %q", ErrInvalidModel, learner.GradientBooster.Model.Param.NumParallelTree)
	}
	return min((iteration+1)*perIteration, total), nil
}

func baseMarginFor(objective string, baseScore float64) (float64, error) {
	switch objective {
	case ObjectiveBinaryLogistic, ObjectiveRegLogistic:
		if baseScore <= 0 || baseScore >= 1 {
			return 0, fmt.Errorf("%w: base_score %v outside (0, 1) for %s", ErrInvalidModel, baseScore, objective)
		}
		return math.Log(baseScore / (1 - baseScore)), nil
	case ObjectiveBinaryLogitRaw:
		return baseScore, nil
	default:
		return 0, fmt.Errorf("%w: unsupported objective %q", ErrInvalidModel, objective)
	}
}

// parseBaseScore accepts "5E-1" as well as the bracketed "[5E-1]" written by XGBoost 3.
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "[]"))
	if s == "" {
		return 0.5, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseIntParam(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
