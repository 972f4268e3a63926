package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LatencyStats summarises the delay, in ticks, between a comparator match and
// the end of the timer handler that serviced it.
type LatencyStats struct {
	Samples int
	Mean    float64
	StdDev  float64
	Max     float64
}

// Latencies returns the raw samples.
func (m *Machine) Latencies() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.latency...)
}

func (m *Machine) LatencyStats() LatencyStats {
	samples := m.Latencies()
	if len(samples) == 0 {
		return LatencyStats{}
	}
	mean, std := stat.MeanStdDev(samples, nil)
	if len(samples) == 1 {
		std = 0
	}
	return LatencyStats{
		Samples: len(samples),
		Mean:    mean,
		StdDev:  std,
		Max:     floats.Max(samples),
	}
}
