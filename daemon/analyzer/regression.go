package analyzer

import "github.com/ecmoce/sysops-agent/daemon/types"

// linearFit is the result of fitting y = slope*x + intercept to a set
// of (x, y) points, plus the fit's coefficient of determination.
type linearFit struct {
	slope     float64
	intercept float64
	rSquared  float64
}

// fitLinear computes the least-squares line through samples, using
// each sample's Unix-seconds timestamp as x and its value as y.
// Returns false if fewer than two points are given or the x values
// are degenerate (zero variance), in which case no slope is
// well-defined.
func fitLinear(samples []types.MetricSample) (linearFit, bool) {
	n := float64(len(samples))
	if n < 2 {
		return linearFit{}, false
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	base := samples[0].Timestamp.Unix()
	for _, s := range samples {
		x := float64(s.Timestamp.Unix() - base)
		y := s.Value
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
		sumY2 += y * y
	}

	denom := n*sumX2 - sumX*sumX
	if denom < 1e-10 && denom > -1e-10 {
		return linearFit{}, false
	}

	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	var ssRes, ssTot float64
	meanY := sumY / n
	for _, s := range samples {
		x := float64(s.Timestamp.Unix() - base)
		yHat := slope*x + intercept
		ssRes += (s.Value - yHat) * (s.Value - yHat)
		ssTot += (s.Value - meanY) * (s.Value - meanY)
	}

	var rSquared float64
	if ssTot > 1e-10 {
		rSquared = 1 - ssRes/ssTot
	}

	return linearFit{slope: slope, intercept: intercept, rSquared: rSquared}, true
}
