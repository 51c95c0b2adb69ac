package deployer

import (
	"math/big"
	"sync"
	"time"
)

// Metrics aggregates gas and latency over the deployments of one run.
type Metrics struct {
	mu        sync.Mutex
	gasUsed   uint64
	costWei   *big.Int
	durations []time.Duration
	startTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		costWei:   new(big.Int),
		startTime: time.Now(),
	}
}

// Track records one confirmed deployment.
func (m *Metrics) Track(gasUsed uint64, gasPrice *big.Int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gasUsed += gasUsed
	if gasPrice != nil {
		cost := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), gasPrice)
		m.costWei.Add(m.costWei, cost)
	}
	m.durations = append(m.durations, d)
}

func (m *Metrics) GasUsed() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gasUsed
}

func (m *Metrics) CostWei() *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.costWei)
}

// Compute summarizes the run.
func (m *Metrics) Compute() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := map[string]any{
		"deployments":    float64(len(m.durations)),
		"total_gas_used": float64(m.gasUsed),
		"elapsed_ms":     float64(time.Since(m.startTime).Milliseconds()),
	}
	if len(m.durations) > 0 {
		var total, longest time.Duration
		for _, d := range m.durations {
			total += d
			if d > longest {
				longest = d
			}
		}
		metrics["mean_duration_ms"] = float64(total.Milliseconds()) / float64(len(m.durations))
		metrics["max_duration_ms"] = float64(longest.Milliseconds())
	}
	return metrics
}
