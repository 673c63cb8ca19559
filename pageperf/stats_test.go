package pageperf

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestGetMetricStats_Empty(t *testing.T) {
	stats := getMetricStats([]float64{})

	assert.Equal(t, stats.NSamples, 0)
	assert.Equal(t, stats.Min, 0.0)
	assert.Equal(t, stats.Max, 0.0)
	assert.Equal(t, stats.Mean, 0.0)
	assert.Equal(t, stats.Median, 0.0)
	assert.Equal(t, stats.P95, 0.0)
	assert.Equal(t, stats.StdDev, 0.0)
}

func TestGetMetricStats_SingleSample(t *testing.T) {
	stats := getMetricStats([]float64{42})

	assert.Equal(t, stats.NSamples, 1)
	assert.Equal(t, stats.Min, 42.0)
	assert.Equal(t, stats.Max, 42.0)
	assert.Equal(t, stats.Mean, 42.0)
	assert.Equal(t, stats.Median, 42.0)
	assert.Equal(t, stats.P95, 42.0)
	assert.Equal(t, stats.StdDev, 0.0)
}

func TestGetMetricStats_4Samples(t *testing.T) {
	samples := []float64{10, 20, 30, 40}

	stats := getMetricStats(samples)

	assert.Equal(t, stats.NSamples, 4)
	assert.Equal(t, stats.Min, 10.0)
	assert.Equal(t, stats.Max, 40.0)
	assert.Equal(t, stats.Mean, 25.0)
	// Upper of the two middle elements, not their average.
	assert.Equal(t, stats.Median, 30.0)
	// floor(0.95 * 4) = 3
	assert.Equal(t, stats.P95, 40.0)
	assert.Equal(t, stats.StdDev, 11.180339887498949)
}

func TestGetMetricStats_PopulationStdDev(t *testing.T) {
	samples := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	stats := getMetricStats(samples)

	assert.Equal(t, stats.NSamples, 8)
	assert.Equal(t, stats.Mean, 5.0)
	// Divide-by-N form; the Bessel-corrected value would be ~2.14.
	assert.Equal(t, stats.StdDev, 2.0)
	assert.Equal(t, stats.Median, 5.0)
	assert.Equal(t, stats.P95, 9.0)
}

func TestGetMetricStats_UnsortedInput(t *testing.T) {
	samples := []float64{139, 19, 236, 34, 127}

	stats := getMetricStats(samples)

	assert.Equal(t, stats.NSamples, 5)
	assert.Equal(t, stats.Min, 19.0)
	assert.Equal(t, stats.Max, 236.0)
	assert.Equal(t, stats.Median, 127.0)
	assert.Equal(t, stats.P95, 236.0)
	// Input must not be reordered in place.
	assert.DeepEqual(t, samples, []float64{139, 19, 236, 34, 127})
}

func TestGetMetricStats_OrderingInvariants(t *testing.T) {
	samples := []float64{127, 19, 139, 34, 134, 236, 221, 61, 146, 151, 157, 45, 137, 231, 46, 61, 215, 29, 189, 42, 108, 174, 235, 79, 167}

	stats := getMetricStats(samples)

	assert.Assert(t, stats.Min <= stats.Median)
	assert.Assert(t, stats.Median <= stats.Max)
	assert.Assert(t, stats.Min <= stats.P95)
	assert.Assert(t, stats.P95 <= stats.Max)
	assert.Assert(t, stats.Min <= stats.Mean)
	assert.Assert(t, stats.Mean <= stats.Max)
}

func TestFilterNonZero(t *testing.T) {
	filtered := filterNonZero([]float64{0, 12.5, 0, 3, 7})

	assert.DeepEqual(t, filtered, []float64{12.5, 3, 7})
}

func TestGetRunStats_ExcludesUnavailableVitals(t *testing.T) {
	now := time.Now()
	samples := []*Sample{
		{Session: 1, Iteration: 1, LoadTimeMS: 100, LCPMS: 250, FCPMS: 90, Timestamp: now},
		{Session: 1, Iteration: 2, LoadTimeMS: 110, LCPMS: 0, FCPMS: 0, Timestamp: now},
		{Session: 2, Iteration: 1, LoadTimeMS: 120, LCPMS: 260, FCPMS: 0, Timestamp: now},
		{Session: 2, Iteration: 2, LoadTimeMS: 130, LCPMS: 0, FCPMS: 95, Timestamp: now},
	}

	stats := getRunStats(samples)

	// Load time covers every sample; LCP and FCP only the non-zero ones.
	assert.Equal(t, stats.LoadTime.NSamples, 4)
	assert.Equal(t, stats.LCP.NSamples, 2)
	assert.Equal(t, stats.FCP.NSamples, 2)

	assert.Equal(t, stats.LoadTime.Min, 100.0)
	assert.Equal(t, stats.LoadTime.Max, 130.0)
	assert.Equal(t, stats.LCP.Mean, 255.0)
	assert.Equal(t, stats.FCP.Mean, 92.5)
}
