package domain

import (
	"fmt"
	"slices"
)

// Rolling aggregates over the three RR lags.
const (
	FeatureRRRollMean = "RR_Roll3_Mean"
	FeatureRRRollMax  = "RR_Roll3_Max"
)

// lagCount is the number of lag copies generated per variable.
const lagCount = 3

// lagVariables lists the variables that receive lag features, in generation order.
var lagVariables = []string{VarRR, VarTAVG, VarRHAvg, VarSS, VarFFAvg}

// baseVariables are included verbatim. RR is the target variable in training
// and only appears lagged or rolled.
var baseVariables = []string{VarTAVG, VarRHAvg, VarSS, VarFFAvg}

// FeatureSchema is the ordered list of feature names the classifier was trained on.
type FeatureSchema []string

// DefaultSchema returns every feature the builder produces in training order:
// base variables, then lags grouped by variable, then the RR rolling aggregates.
func DefaultSchema() FeatureSchema {
	schema := make(FeatureSchema, 0, len(baseVariables)+len(lagVariables)*lagCount+2)
	schema = append(schema, baseVariables...)
	for _, name := range lagVariables {
		for i := 1; i <= lagCount; i++ {
			schema = append(schema, LagFeatureName(name, i))
		}
	}
	return append(schema, FeatureRRRollMean, FeatureRRRollMax)
}

// Feature is a single named classifier input.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureVector is an ordered list of features aligned to a FeatureSchema.
type FeatureVector []Feature

// Names returns the feature names in order.
func (v FeatureVector) Names() []string {
	names := make([]string, len(v))
	for i, f := range v {
		names[i] = f.Name
	}
	return names
}

// Values returns the feature values in order, ready to be used as a model row.
func (v FeatureVector) Values() []float64 {
	values := make([]float64, len(v))
	for i, f := range v {
		values[i] = f.Value
	}
	return values
}

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	for _, f := range v {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// LagFeatureName returns the name of the lag-th lag feature of a variable,
// e.g. LagFeatureName("RR", 1) == "RR_Lag1".
func LagFeatureName(variable string, lag int) string {
	return fmt.Sprintf("%s_Lag%d", variable, lag)
}

// ComputeFeatures derives every feature the builder knows about, keyed by name.
func ComputeFeatures(obs Observation) map[string]float64 {
	values := obs.Values()
	features := make(map[string]float64, len(baseVariables)+len(lagVariables)*lagCount+2)

	for _, name := range baseVariables {
		features[name] = values[name]
	}

	for _, name := range lagVariables {
		for i := 1; i <= lagCount; i++ {
			features[LagFeatureName(name, i)] = values[name]
		}
	}

	rrLags := make([]float64, 0, lagCount)
	for i := 1; i <= lagCount; i++ {
		rrLags = append(rrLags, features[LagFeatureName(VarRR, i)])
	}
	features[FeatureRRRollMean] = mean(rrLags)
	features[FeatureRRRollMax] = slices.Max(rrLags)

	return features
}

// BuildFeatures turns an observation into the feature vector described by schema.
// Schema order is preserved, schema names the builder does not produce are set
// to 0.0 and computed features missing from the schema are dropped.
func BuildFeatures(obs Observation, schema FeatureSchema) FeatureVector {
	computed := ComputeFeatures(obs)

	vector := make(FeatureVector, len(schema))
	for i, name := range schema {
		vector[i] = Feature{Name: name, Value: computed[name]}
	}
	return vector
}

// mean is incremental so identical values average to exactly that value.
func mean(values []float64) float64 {
	var m float64
	for i, v := range values {
		m += (v - m) / float64(i+1)
	}
	return m
}
