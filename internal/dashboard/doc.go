// Package dashboard turns analyses into what the operator sees: page state,
// quick-fill scenarios, the historical comparison, the illustrative 24-hour
// trend, mitigation advice, chart geometry and the downloadable report.
//
// Nothing here feeds back into the prediction. The trend curve in particular
// is multiplicative noise around the H+1 probability and is not a forecast.
package dashboard
