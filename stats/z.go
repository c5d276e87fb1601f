package stats

import "gonum.org/v1/gonum/stat/distuv"

var stdNormal = distuv.UnitNormal

// ZVal returns the two-tailed critical value of the standard normal for a
// confidence level given in percent, e.g. 1.96 for 95.
func ZVal(confidence float64) float64 {
	return stdNormal.Quantile((1 + confidence/100) / 2)
}
