// Package bitrate watches the bitrate estimates a peer reports in
// SessionInfo messages.
package bitrate

// ShiftDetector reports when a bitrate sample departs from the recent trend.
type ShiftDetector interface {
	Detect(bps float64) bool
}

var _ ShiftDetector = (*EWMAShiftDetector)(nil)

// NewEWMAShiftDetector returns a detector that smooths samples with weight
// alpha and reports samples further than threshold (a fraction) from the
// average. The first warmup samples only seed the average.
func NewEWMAShiftDetector(alpha, threshold float64, warmup int) *EWMAShiftDetector {
	return &EWMAShiftDetector{
		alpha:     alpha,
		threshold: threshold,
		warmup:    warmup,
	}
}

type EWMAShiftDetector struct {
	alpha     float64
	threshold float64

	warmup  int
	samples int
	average float64
}

func (d *EWMAShiftDetector) Detect(bps float64) bool {
	d.samples++

	// Seed with the running mean of the warm-up samples.
	if d.samples <= d.warmup || d.samples == 1 {
		d.average += (bps - d.average) / float64(d.samples)
		return false
	}

	shifted := bps > d.average*(1+d.threshold) || bps < d.average*(1-d.threshold)

	d.average = d.alpha*bps + (1-d.alpha)*d.average

	return shifted
}

// Average returns the smoothed bitrate.
func (d *EWMAShiftDetector) Average() float64 {
	return d.average
}
