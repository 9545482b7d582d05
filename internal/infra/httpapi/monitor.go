package httpapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Status represents the health state of the upstream API as seen by this client.
type Status int

const (
	StatusHealthy   Status = iota // API is working normally
	StatusDegraded                // API is slow or failing often
	StatusThrottled               // API is rate limiting
	StatusBlocked                 // API rejects our credentials or IP
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for the upstream API.
type MonitorStats struct {
	Status           Status        `json:"-"`
	StatusName       string        `json:"status"`
	AverageLatency   time.Duration `json:"averageLatency"`
	Requests         int           `json:"requests"`
	Failures         int           `json:"failures"`
	ErrorRate        float64       `json:"errorRate"`
	ThrottleCount429 int           `json:"throttled429"`
	ThrottleCount403 int           `json:"blocked403"`
	RetryAfter       time.Duration `json:"retryAfter"`
	LastSuccessAt    time.Time     `json:"lastSuccessAt"`
	LastFailureAt    time.Time     `json:"lastFailureAt"`
}

// Monitor tracks latency, failures and rate limiting of upstream calls.
type Monitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	requests      int
	failures      int
	lastSuccessAt time.Time
	lastFailureAt time.Time

	status429Count     int
	status403Count     int
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	degradedThreshold     float64
	now                   func() time.Time
}

// NewMonitor creates a monitor with default thresholds.
func NewMonitor() *Monitor {
	return &Monitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		slowResponseThreshold: 3 * time.Second,
		degradedThreshold:     0.3, // 30% error rate
		now:                   time.Now,
	}
}

// RecordSuccess records a successful request with its latency.
func (m *Monitor) RecordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.lastSuccessAt = m.now()
	m.recentLatencies = append(m.recentLatencies, latency)
	if len(m.recentLatencies) > m.maxLatencyWindow {
		m.recentLatencies = m.recentLatencies[1:]
	}
}

// RecordFailure records a failed request.
func (m *Monitor) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.failures++
	m.lastFailureAt = m.now()
}

// RecordThrottle records a 429 or 403 response. retryAfter is the raw Retry-After header.
func (m *Monitor) RecordThrottle(statusCode int, retryAfter string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastThrottleTime = m.now()

	switch statusCode {
	case 429:
		m.status429Count++
		m.retryAfterDuration = parseRetryAfter(retryAfter, time.Minute)
	case 403:
		m.status403Count++
		m.retryAfterDuration = 10 * time.Minute // Longer for IP block
	}
}

// CheckStatus returns the current status of the upstream API.
func (m *Monitor) CheckStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	inThrottleWindow := m.now().Sub(m.lastThrottleTime) < m.retryAfterDuration

	if m.status403Count > 0 && inThrottleWindow {
		return StatusBlocked
	}
	if m.status429Count > 0 && inThrottleWindow {
		return StatusThrottled
	}

	if len(m.recentLatencies) > 10 && m.averageLatencyLocked() > m.slowResponseThreshold {
		return StatusDegraded
	}
	if m.requests >= 10 && float64(m.failures)/float64(m.requests) > m.degradedThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

// RetryAfter returns remaining time before the API accepts requests again.
func (m *Monitor) RetryAfter() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.retryAfterLocked()
}

func (m *Monitor) retryAfterLocked() time.Duration {
	if m.retryAfterDuration > 0 {
		remaining := m.retryAfterDuration - m.now().Sub(m.lastThrottleTime)
		if remaining > 0 {
			return remaining
		}
	}
	return 0
}

func (m *Monitor) averageLatencyLocked() time.Duration {
	if len(m.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range m.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(m.recentLatencies))
}

// Stats returns current monitoring statistics.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := m.statusLocked()
	stats := MonitorStats{
		Status:           status,
		StatusName:       status.String(),
		AverageLatency:   m.averageLatencyLocked(),
		Requests:         m.requests,
		Failures:         m.failures,
		ThrottleCount429: m.status429Count,
		ThrottleCount403: m.status403Count,
		RetryAfter:       m.retryAfterLocked(),
		LastSuccessAt:    m.lastSuccessAt,
		LastFailureAt:    m.lastFailureAt,
	}
	if m.requests > 0 {
		stats.ErrorRate = float64(m.failures) / float64(m.requests)
	}
	return stats
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, fallback time.Duration) time.Duration {
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}
