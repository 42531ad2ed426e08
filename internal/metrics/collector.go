package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

// Collector collects counters and iteration-indexed series during a search.
// It is safe for concurrent use so a service can read progress while the
// annealer records.
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	counters map[string]int64

	// Series data: metric name -> points in recording order
	series map[string][]models.MetricPoint

	// Cached aggregations: metric name -> Aggregation
	aggregations map[string]*models.Aggregation
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		startTime:    time.Now(),
		counters:     make(map[string]int64),
		series:       make(map[string][]models.MetricPoint),
		aggregations: make(map[string]*models.Aggregation),
	}
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Inc adds delta to a counter
func (c *Collector) Inc(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[name] += delta
}

// Counters returns a copy of all counters
func (c *Collector) Counters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int64, len(c.counters))
	for k, v := range c.counters {
		out[k] = v
	}
	return out
}

// Record records a metric value at a search iteration
func (c *Collector) Record(name string, iteration int, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series[name] = append(c.series[name], models.MetricPoint{
		Iteration: iteration,
		Name:      name,
		Value:     value,
	})
	delete(c.aggregations, name)
}

// GetOrComputeAggregation returns the aggregation of a series, computing it
// once per recorded point. Unknown series yield nil.
func (c *Collector) GetOrComputeAggregation(name string) *models.Aggregation {
	c.mu.Lock()
	defer c.mu.Unlock()

	if agg, ok := c.aggregations[name]; ok {
		return agg
	}
	agg := calculateAggregation(c.series[name])
	if agg != nil {
		c.aggregations[name] = agg
	}
	return agg
}

// GetMetricNames returns all series names in sorted order
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.series))
	for name := range c.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Duration returns the time between Start and Stop, or since Start while running
func (c *Collector) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

// calculateAggregation calculates aggregated statistics from metric points
func calculateAggregation(points []models.MetricPoint) *models.Aggregation {
	if len(points) == 0 {
		return nil
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	sort.Float64s(values)

	count := int64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return &models.Aggregation{
		Count: count,
		Sum:   sum,
		Min:   values[0],
		Max:   values[len(values)-1],
		Mean:  sum / float64(count),
		P50:   calculatePercentile(values, 0.50),
		P95:   calculatePercentile(values, 0.95),
		P99:   calculatePercentile(values, 0.99),
	}
}

// calculatePercentile calculates the percentile value from a sorted slice
func calculatePercentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return 0.0
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	index := p * float64(len(sortedValues)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedValues) {
		return sortedValues[len(sortedValues)-1]
	}

	weight := index - float64(lower)
	return sortedValues[lower]*(1-weight) + sortedValues[upper]*weight
}
