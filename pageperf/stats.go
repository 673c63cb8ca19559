package pageperf

import (
	"math"
	"sort"
)

func getMean(series []float64) float64 {
	ret := float64(0)
	nSamplesF64 := float64(len(series))

	for _, element := range series {
		ret += element / nSamplesF64
	}

	return ret
}

func getSquareMean(series []float64) float64 {
	ret := float64(0)
	nSamplesF64 := float64(len(series))

	for _, element := range series {
		ret += element * element / nSamplesF64
	}

	return ret
}

// getStdDevUsingMean is the population standard deviation, i.e. the
// divide-by-N form, not the Bessel-corrected sample estimator.
func getStdDevUsingMean(series []float64, mean float64) float64 {
	return math.Sqrt(getSquareMean(series) - (mean * mean))
}

// getMetricStats reduces a series into summary statistics. An empty series
// yields the zero value rather than an error.
//
// Median is the element at floor(n/2) of the ascending sort, which for
// even-length series is the upper of the two middle elements, not their
// average. P95 is the element at floor(0.95*n).
func getMetricStats(series []float64) *MetricStats {
	ret := &MetricStats{}

	if len(series) == 0 {
		return ret
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	ret.NSamples = len(sorted)
	ret.Min = sorted[0]
	ret.Max = sorted[len(sorted)-1]
	ret.Mean = getMean(sorted)
	ret.Median = sorted[len(sorted)/2]
	ret.P95 = sorted[int(math.Floor(0.95*float64(len(sorted))))]
	ret.StdDev = getStdDevUsingMean(sorted, ret.Mean)

	return ret
}

// filterNonZero drops values recorded as unavailable. Genuine zeroes and
// failed collections are indistinguishable at this point; both are excluded.
func filterNonZero(series []float64) []float64 {
	ret := []float64{}

	for _, element := range series {
		if element > 0 {
			ret = append(ret, element)
		}
	}

	return ret
}

func getRunStats(samples []*Sample) *RunStats {
	loadTimes := []float64{}
	lcpValues := []float64{}
	fcpValues := []float64{}

	for _, sample := range samples {
		loadTimes = append(loadTimes, sample.LoadTimeMS)
		lcpValues = append(lcpValues, sample.LCPMS)
		fcpValues = append(fcpValues, sample.FCPMS)
	}

	return &RunStats{
		LoadTime: getMetricStats(loadTimes),
		LCP:      getMetricStats(filterNonZero(lcpValues)),
		FCP:      getMetricStats(filterNonZero(fcpValues)),
	}
}
