// Package domain models the daily climate observations of a single station and
// the feature engineering that turns them into classifier input.
//
// # Observations
//
// The operator supplies three measured values for today:
//
//	RR      rainfall amount in mm (>= 0)
//	RH_AVG  average relative humidity in % (0-100)
//	TAVG    average temperature in degrees Celsius
//
// Two further variables the classifier was trained on are not collected and
// are estimated from RR with fixed breakpoints (see [EstimateSunshine] and
// [EstimateWind]):
//
//	SS      sunshine duration: 6.0 if RR < 5, 0.0 if RR > 20, else 2.0
//	FF_AVG  average wind speed: 2.0 if RR < 20, 5.0 if RR > 50, else 3.0
//
// # Feature engineering
//
// The classifier was trained on lagged daily series, but only one day of input
// is available, so every lag is set to today's value (persistence assumption):
//
//	TAVG, RH_AVG, SS, FF_AVG          today's values (RR is not a base feature)
//	<VAR>_Lag1, _Lag2, _Lag3          today's value, for all five variables
//	RR_Roll3_Mean, RR_Roll3_Max       mean and max of the three RR lags
//
// The result is then reindexed to the [FeatureSchema] the model was trained
// with: schema order is kept, names the builder does not compute become 0.0,
// and computed names absent from the schema are dropped. See [BuildFeatures].
//
// # Decision
//
// A [PredictionResult] marks danger when the positive-class probability is at
// or above the configured threshold (default [DefaultThreshold]).
package domain
