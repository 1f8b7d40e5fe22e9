package token

import (
	"sync"
	"time"
)

// TokenUsage represents token usage for a single summary request.
type TokenUsage struct {
	TurnNumber       int           `json:"turnNumber"`
	PromptTokens     int           `json:"promptTokens"`
	CompletionTokens int           `json:"completionTokens"`
	TotalTokens      int           `json:"totalTokens"`
	Model            string        `json:"model"`
	Estimated        bool          `json:"estimated"` // true when the service reported no usage
	Timestamp        time.Time     `json:"timestamp"`
	Duration         time.Duration `json:"duration,omitempty"`
}

const maxUsageHistory = 1000

// Monitor tracks token usage across summary requests. maxTokens is the
// per-request completion budget; a request that spends most of it was
// probably cut short by the service.
type Monitor struct {
	mu                    sync.RWMutex
	maxTokens             int
	totalPromptTokens     int
	totalCompletionTokens int
	totalTokens           int
	turnCount             int
	usageHistory          []TokenUsage
	warningThreshold      float64
}

// NewMonitor creates a monitor for the given completion budget.
func NewMonitor(maxTokens int) *Monitor {
	return &Monitor{
		maxTokens:        maxTokens,
		usageHistory:     make([]TokenUsage, 0),
		warningThreshold: 0.8,
	}
}

// RecordUsage adds a single-request usage record and returns it numbered.
func (tm *Monitor) RecordUsage(usage TokenUsage) TokenUsage {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	if usage.Timestamp.IsZero() {
		usage.Timestamp = time.Now()
	}

	tm.totalPromptTokens += usage.PromptTokens
	tm.totalCompletionTokens += usage.CompletionTokens
	tm.totalTokens += usage.TotalTokens
	tm.turnCount++
	usage.TurnNumber = tm.turnCount
	tm.usageHistory = append(tm.usageHistory, usage)

	if len(tm.usageHistory) > maxUsageHistory {
		tm.usageHistory = tm.usageHistory[len(tm.usageHistory)-maxUsageHistory:]
	}
	return usage
}

// Last returns the most recent record, if any.
func (tm *Monitor) Last() (TokenUsage, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if len(tm.usageHistory) == 0 {
		return TokenUsage{}, false
	}
	return tm.usageHistory[len(tm.usageHistory)-1], true
}

// GetStats returns a snapshot of cumulative statistics.
func (tm *Monitor) GetStats() map[string]any {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	stats := map[string]any{
		"maxTokens":             tm.maxTokens,
		"totalPromptTokens":     tm.totalPromptTokens,
		"totalCompletionTokens": tm.totalCompletionTokens,
		"totalTokens":           tm.totalTokens,
		"turnCount":             tm.turnCount,
	}

	if tm.turnCount > 0 {
		stats["avgPromptTokens"] = tm.totalPromptTokens / tm.turnCount
		stats["avgCompletionTokens"] = tm.totalCompletionTokens / tm.turnCount
		stats["avgTotalTokens"] = tm.totalTokens / tm.turnCount
	}

	return stats
}

// IsWarning reports whether the last request used at least 80% of the
// completion budget.
func (tm *Monitor) IsWarning() bool {
	return tm.lastRatio() >= tm.warningThreshold
}

// IsCritical reports whether the last request used at least 95% of the
// completion budget.
func (tm *Monitor) IsCritical() bool {
	return tm.lastRatio() >= 0.95
}

func (tm *Monitor) lastRatio() float64 {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.maxTokens <= 0 || len(tm.usageHistory) == 0 {
		return 0
	}
	last := tm.usageHistory[len(tm.usageHistory)-1]
	return float64(last.CompletionTokens) / float64(tm.maxTokens)
}
