// Package calibrate learns a single global synthesis-rate offset from the
// job's first K segments' observed-versus-target durations, then freezes
// it for the rest of the job.
package calibrate

import (
	"math"

	"dubsync/internal/job"
)

// Window determines the calibration sample count K for a job with the
// given total segment count: K = min(maxSamples, ceil(sampleFraction*N)).
func Window(totalSegments int, maxSamples int, sampleFraction float64) int {
	if totalSegments <= 0 {
		return 0
	}
	k := int(math.Ceil(sampleFraction * float64(totalSegments)))
	if k > maxSamples {
		k = maxSamples
	}
	if k < 0 {
		k = 0
	}
	return k
}

// Collector accumulates CalibrationSamples during the collection window
// and derives the frozen AdaptiveRate once it closes.
type Collector struct {
	sigmaGate     float64
	ratioClampMin float64
	ratioClampMax float64
	samples       []job.CalibrationSample
}

// New constructs a Collector with the given variance gate and the
// actual/target ratio clamp bounds (config.Calibration.RateClampMin/Max) —
// a tighter, configurable safety margin inside the spec's hard ±100% rate
// bound, which AdaptiveRate.Clamp always enforces regardless.
func New(sigmaGate float64, ratioClampMin, ratioClampMax float64) *Collector {
	return &Collector{
		sigmaGate:     sigmaGate,
		ratioClampMin: ratioClampMin,
		ratioClampMax: ratioClampMax,
	}
}

// Record appends one observed (target, actual) duration pair to the
// collection window.
func (c *Collector) Record(sample job.CalibrationSample) {
	c.samples = append(c.samples, sample)
}

// Samples returns the recorded samples in collection order.
func (c *Collector) Samples() []job.CalibrationSample {
	out := make([]job.CalibrationSample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Freeze computes the adaptive rate from the recorded samples: the mean
// ratio of actual-to-target duration, gated by the per-sample ratio
// standard deviation. If sigma >= the configured gate, the population is
// too noisy to steer and the rate freezes at +0%. Otherwise the rate is
// round((ratio-1)*100) clamped to the configured bounds.
func (c *Collector) Freeze() job.AdaptiveRate {
	if len(c.samples) == 0 {
		return 0
	}

	ratios := make([]float64, len(c.samples))
	var sumTarget, sumActual float64
	for i, s := range c.samples {
		sumTarget += s.TargetSeconds
		sumActual += s.ActualSeconds
		if s.TargetSeconds != 0 {
			ratios[i] = s.ActualSeconds / s.TargetSeconds
		} else {
			ratios[i] = 1
		}
	}

	meanTarget := sumTarget / float64(len(c.samples))
	meanActual := sumActual / float64(len(c.samples))
	var ratio float64
	if meanTarget != 0 {
		ratio = meanActual / meanTarget
	} else {
		ratio = 1
	}

	sigma := stddev(ratios)
	if sigma >= c.sigmaGate {
		return 0
	}

	if c.ratioClampMin > 0 && ratio < c.ratioClampMin {
		ratio = c.ratioClampMin
	}
	if c.ratioClampMax > 0 && ratio > c.ratioClampMax {
		ratio = c.ratioClampMax
	}

	pct := roundHalfAwayFromZero((ratio - 1) * 100)
	return job.AdaptiveRate(int(pct)).Clamp()
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func roundHalfAwayFromZero(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v + 0.5)
	}
	return math.Floor(v + 0.5)
}
