package calibrate

import (
	"testing"

	"dubsync/internal/job"
)

func TestWindowMatchesSpecFormula(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{5, 1},
		{10, 2},
		{20, 4},
		{75, 15},
		{1000, 15},
	}
	for _, tt := range tests {
		got := Window(tt.total, 15, 0.20)
		if got != tt.want {
			t.Errorf("Window(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestFreezeStableRatiosProducesExpectedRate(t *testing.T) {
	c := New(0.3, 0, 0)
	for _, ratio := range []float64{0.80, 0.82, 0.79, 0.81, 0.80} {
		c.Record(job.CalibrationSample{TargetSeconds: 1.0, ActualSeconds: ratio})
	}
	got := c.Freeze()
	if got != -20 {
		t.Errorf("Freeze() = %v, want -20", got)
	}
}

func TestFreezeNoisyRatiosTripsVarianceGate(t *testing.T) {
	c := New(0.3, 0, 0)
	for _, ratio := range []float64{0.3, 1.8, 0.4, 2.1, 0.5} {
		c.Record(job.CalibrationSample{TargetSeconds: 1.0, ActualSeconds: ratio})
	}
	got := c.Freeze()
	if got != 0 {
		t.Errorf("Freeze() = %v, want 0 (variance gate)", got)
	}
}

func TestFreezeNoSamplesIsZero(t *testing.T) {
	c := New(0.3, 0, 0)
	if got := c.Freeze(); got != 0 {
		t.Errorf("Freeze() with no samples = %v, want 0", got)
	}
}

func TestFreezeAppliesRatioClamp(t *testing.T) {
	// Ratio of 2.0 (actual double target) would normally yield +100%, but a
	// configured ratio clamp of [0.7, 1.3] caps it to +30%.
	c := New(0.3, 0.7, 1.3)
	for i := 0; i < 5; i++ {
		c.Record(job.CalibrationSample{TargetSeconds: 1.0, ActualSeconds: 2.0})
	}
	got := c.Freeze()
	if got != 30 {
		t.Errorf("Freeze() = %v, want 30 (ratio-clamped)", got)
	}
}

func TestFreezeRateNeverExceedsHardBound(t *testing.T) {
	c := New(0.3, 0, 0)
	for i := 0; i < 5; i++ {
		c.Record(job.CalibrationSample{TargetSeconds: 1.0, ActualSeconds: 10.0})
	}
	got := c.Freeze()
	if got != 100 {
		t.Errorf("Freeze() = %v, want hard-clamped to 100", got)
	}
}
