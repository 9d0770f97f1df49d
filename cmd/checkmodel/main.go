// Command checkmodel performs integrity checks on a model artifact pair before
// it is deployed: the config and the XGBoost model must load and agree, every
// configured feature must be one the feature builder produces, and sampled
// clear-day and rainy-day scenarios must land on the expected side of the
// decision threshold.
//
// Usage:
//
//	go run ./cmd/checkmodel \
//	  -config deployment_files/model_config.json \
//	  -model deployment_files/best_model_xgboost.json
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/couchcryptid/rainfall-ews/internal/dashboard"
	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/model"
	"github.com/couchcryptid/rainfall-ews/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// checkOptions bounds the scenario phase.
type checkOptions struct {
	samples        int
	seed           uint64
	maxClearDanger float64
	minRainyDanger float64
}

func main() {
	configPath := flag.String("config", "deployment_files/model_config.json", "path to model_config.json")
	modelPath := flag.String("model", "deployment_files/best_model_xgboost.json", "path to the XGBoost JSON model (.json or .json.zst)")
	samples := flag.Int("samples", 500, "draws per scenario")
	seed := flag.Uint64("seed", 1, "scenario sampling seed")
	maxClear := flag.Float64("max-clear-danger", 0.2, "highest acceptable danger rate on clear days")
	minRainy := flag.Float64("min-rainy-danger", 0.8, "lowest acceptable danger rate on rainy days")
	flag.Parse()

	if *samples <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	opts := checkOptions{
		samples:        *samples,
		seed:           *seed,
		maxClearDanger: *maxClear,
		minRainyDanger: *minRainy,
	}
	if code := run(*configPath, *modelPath, opts); code != 0 {
		os.Exit(code)
	}
}

func run(configPath, modelPath string, opts checkOptions) int {
	fmt.Println("=== Model Artifact Validation ===")
	fmt.Println()

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load model config: %v\n", err)
		return 1
	}

	booster, err := model.LoadBooster(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load model: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateArtifactAgreement(cfg, booster),
		validateFeatureCoverage(cfg),
	}

	// Scenarios need a usable pair; skip them when the artifacts disagree.
	if assets, err := model.NewAssets(cfg, booster); err == nil {
		phases = append(phases,
			validateReference(assets),
			validateScenarios(assets, opts),
			validateImportances(assets),
		)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Model: %d features, %d trees, objective %s, threshold %.2f\n",
		booster.NumFeature(), booster.NumTrees(), booster.Objective(), cfg.Threshold)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

// ── Phase 1: Artifact Agreement ──

func validateArtifactAgreement(cfg model.Config, booster *model.Booster) *phase {
	p := &phase{name: "Phase 1: Artifact Agreement"}

	if booster.NumFeature() != len(cfg.FeatureNames) {
		p.errorf("model expects %d features, config lists %d", booster.NumFeature(), len(cfg.FeatureNames))
	}

	names := booster.FeatureNames()
	if len(names) == 0 {
		return p
	}
	if len(names) != len(cfg.FeatureNames) {
		p.errorf("model names %d features, config lists %d", len(names), len(cfg.FeatureNames))
		return p
	}
	for i, name := range names {
		if name != cfg.FeatureNames[i] {
			p.errorf("feature %d: model has %q, config has %q", i, name, cfg.FeatureNames[i])
		}
	}
	return p
}

// ── Phase 2: Feature Coverage ──

func validateFeatureCoverage(cfg model.Config) *phase {
	p := &phase{name: "Phase 2: Feature Coverage"}

	computed := domain.ComputeFeatures(domain.NewObservation(0, 0, 0))
	for _, name := range cfg.FeatureNames {
		if _, ok := computed[name]; !ok {
			p.errorf("feature %q is not produced by the builder and will always be 0", name)
		}
	}
	return p
}

// ── Phase 3: Reference Vector ──

func validateReference(assets *model.Assets) *phase {
	p := &phase{name: "Phase 3: Reference Vector (RR=0, RH=80, T=24)"}

	in := dashboard.DefaultInputs
	result, err := predict(assets, in)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	fmt.Printf("reference: p=%.4f %s\n", result.Probability, result.Status())
	return p
}

// ── Phase 4: Scenario Separation ──

func validateScenarios(assets *model.Assets, opts checkOptions) *phase {
	p := &phase{name: "Phase 4: Scenario Separation"}

	clearRate, err := dangerRate(assets, dashboard.ScenarioClear, opts)
	if err != nil {
		p.errorf("clear: %v", err)
		return p
	}
	rainyRate, err := dangerRate(assets, dashboard.ScenarioRainy, opts)
	if err != nil {
		p.errorf("rainy: %v", err)
		return p
	}
	fmt.Printf("danger rate: clear %.1f%%, rainy %.1f%% (%d draws each)\n", clearRate*100, rainyRate*100, opts.samples)

	if clearRate > opts.maxClearDanger {
		p.errorf("clear-day danger rate %.3f exceeds %.3f", clearRate, opts.maxClearDanger)
	}
	if rainyRate < opts.minRainyDanger {
		p.errorf("rainy-day danger rate %.3f below %.3f", rainyRate, opts.minRainyDanger)
	}
	return p
}

func dangerRate(assets *model.Assets, s dashboard.Scenario, opts checkOptions) (float64, error) {
	r := rand.New(rand.NewPCG(opts.seed, opts.seed))
	danger := 0
	for range opts.samples {
		in, err := dashboard.Generate(s, r)
		if err != nil {
			return 0, err
		}
		result, err := predict(assets, in)
		if err != nil {
			return 0, fmt.Errorf("%+v: %w", in, err)
		}
		if result.IsDanger {
			danger++
		}
	}
	return float64(danger) / float64(opts.samples), nil
}

func predict(assets *model.Assets, in dashboard.Inputs) (domain.PredictionResult, error) {
	features := domain.BuildFeatures(in.Observation(), assets.Schema)
	return pipeline.PredictDanger(assets.Classifier, features, assets.Threshold)
}

// ── Phase 5: Importances ──

func validateImportances(assets *model.Assets) *phase {
	p := &phase{name: "Phase 5: Feature Importances"}

	if len(assets.Importances) != len(assets.Schema) {
		p.errorf("%d importances for %d features", len(assets.Importances), len(assets.Schema))
	}
	var sum float64
	for _, imp := range assets.Importances {
		if imp.Weight < 0 || math.IsNaN(imp.Weight) {
			p.errorf("%s: invalid weight %v", imp.Feature, imp.Weight)
		}
		sum += imp.Weight
	}
	if sum != 0 && math.Abs(sum-1) > 1e-9 {
		p.errorf("importances sum to %.6f, want 1", sum)
	}
	return p
}
