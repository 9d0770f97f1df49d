// Command genmodel writes a small demonstration model artifact pair (an
// XGBoost JSON gbtree model and its model_config.json) over the default
// feature schema, so the dashboard can run without the trained model. After
// writing, it loads the pair back through the model package and prints the
// probabilities of the reference scenarios.
//
// Usage:
//
//	go run ./cmd/genmodel -out deployment_files
//	go run ./cmd/genmodel -out deployment_files -zstd
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/pipeline"
	"github.com/klauspost/compress/zstd"
)

const (
	configFile = "model_config.json"
	modelFile  = "best_model_xgboost.json"
)

// node is a tree under construction; leaves have nil children.
type node struct {
	feature     string
	cond        float64
	gain        float64
	defaultLeft bool
	left, right *node
}

func leaf(value float64) *node { return &node{cond: value} }

func split(feature string, cond, gain float64, left, right *node) *node {
	return &node{feature: feature, cond: cond, gain: gain, left: left, right: right}
}

// demoTrees encodes the qualitative behaviour of the trained model: sustained
// rain with saturated air pushes the margin up, dry sunny days pull it down.
func demoTrees() []*node {
	return []*node{
		split(domain.FeatureRRRollMean, 20, 40,
			split(domain.VarRHAvg, 90, 12, leaf(-1.2), leaf(-0.2)),
			split(domain.VarRHAvg, 85, 8, leaf(0.3), leaf(1.0)),
		),
		split(domain.LagFeatureName(domain.VarRR, 1), 5, 15,
			leaf(-0.6),
			split(domain.VarTAVG, 23, 5, leaf(0.5), leaf(0.1)),
		),
		split(domain.VarSS, 1, 6,
			leaf(0.4),
			split(domain.VarFFAvg, 2.5, 2, leaf(-0.3), leaf(0.1)),
		),
		split(domain.LagFeatureName(domain.VarRHAvg, 1), 95, 3, leaf(-0.1), leaf(0.3)),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "deployment_files", "output directory for the model artifacts")
	threshold := flag.Float64("threshold", domain.DefaultThreshold, "decision threshold written to the model config")
	compress := flag.Bool("zstd", false, "write the model as a zstd-compressed .zst artifact")
	flag.Parse()

	schema := domain.DefaultSchema()
	cfg := model.Config{FeatureNames: schema, Threshold: *threshold}
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := buildDocument(schema, demoTrees())
	if err != nil {
		return err
	}

	configPath := filepath.Join(*out, configFile)
	if err := writeJSON(configPath, cfg); err != nil {
		return fmt.Errorf("writing model config: %w", err)
	}
	log.Printf("wrote %s (%d features, threshold %.2f)", configPath, len(schema), cfg.Threshold)

	modelPath := filepath.Join(*out, modelFile)
	if *compress {
		modelPath += ".zst"
		err = writeZstdJSON(modelPath, doc)
	} else {
		err = writeJSON(modelPath, doc)
	}
	if err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	log.Printf("wrote %s (%d trees)", modelPath, len(doc.Learner.GradientBooster.Model.Trees))

	return printScenarios(configPath, modelPath)
}

// buildDocument flattens the trees breadth-first into XGBoost's parallel
// per-node arrays.
func buildDocument(schema domain.FeatureSchema, roots []*node) (model.Document, error) {
	index := make(map[string]int, len(schema))
	for i, name := range schema {
		index[name] = i
	}

	trees := make([]model.TreeDocument, 0, len(roots))
	treeInfo := make([]int, 0, len(roots))
	for id, root := range roots {
		td, err := flatten(id, root, index)
		if err != nil {
			return model.Document{}, fmt.Errorf("tree %d: %w", id, err)
		}
		trees = append(trees, td)
		treeInfo = append(treeInfo, 0)
	}

	return model.Document{
		Version: []int{2, 1, 3},
		Learner: model.LearnerDocument{
			Attributes:   map[string]string{},
			FeatureNames: schema,
			GradientBooster: model.GradientBoosterDocument{
				Name: "gbtree",
				Model: model.GBTreeModelDocument{
					Param: model.GBTreeParamDocument{
						NumTrees:        fmt.Sprint(len(trees)),
						NumParallelTree: "1",
					},
					TreeInfo: treeInfo,
					Trees:    trees,
				},
			},
			LearnerModelParam: model.LearnerModelParamDocument{
				BaseScore:  "5E-1",
				NumClass:   "0",
				NumFeature: fmt.Sprint(len(schema)),
			},
			Objective: model.ObjectiveDocument{Name: model.ObjectiveBinaryLogistic},
		},
	}, nil
}

func flatten(id int, root *node, index map[string]int) (model.TreeDocument, error) {
	td := model.TreeDocument{ID: id}
	queue := []*node{root}
	for i := 0; i < len(queue); i++ {
		n := queue[i]
		left, right, splitIndex := -1, -1, 0
		if n.left != nil {
			idx, ok := index[n.feature]
			if !ok {
				return model.TreeDocument{}, fmt.Errorf("feature %q is not in the schema", n.feature)
			}
			splitIndex = idx
			left = len(queue)
			right = len(queue) + 1
			queue = append(queue, n.left, n.right)
		}
		td.LeftChildren = append(td.LeftChildren, left)
		td.RightChildren = append(td.RightChildren, right)
		td.SplitIndices = append(td.SplitIndices, splitIndex)
		td.SplitConditions = append(td.SplitConditions, n.cond)
		td.DefaultLeft = append(td.DefaultLeft, model.FlexBool(n.defaultLeft))
		td.LossChanges = append(td.LossChanges, n.gain)
	}
	return td, nil
}

// printScenarios loads the written pair and reports the reference scenarios.
func printScenarios(configPath, modelPath string) error {
	assets, err := model.Load(configPath, modelPath)
	if err != nil {
		return fmt.Errorf("loading written artifacts: %w", err)
	}

	scenarios := []struct {
		name string
		obs  domain.Observation
	}{
		{"default inputs", domain.NewObservation(0, 80, 24)},
		{"clear day", domain.NewObservation(2.5, 70, 27)},
		{"rainy day", domain.NewObservation(70, 95.5, 21.5)},
	}

	fmt.Println()
	for _, s := range scenarios {
		features := domain.BuildFeatures(s.obs, assets.Schema)
		result, err := pipeline.PredictDanger(assets.Classifier, features, assets.Threshold)
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		fmt.Printf("  %-16s p=%.4f  %s\n", s.name, result.Probability, result.Status())
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func writeZstdJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return err
	}
	defer enc.Close()
	return os.WriteFile(path, enc.EncodeAll(data, nil), 0o600)
}
