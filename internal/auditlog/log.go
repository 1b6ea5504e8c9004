// Package auditlog keeps the bounded history of audit results, the running
// statistics derived from them, and the stores that persist them.
package auditlog

import (
	"sort"
	"sync"

	"github.com/cleared-dev/ledgeraudit/internal/audit"
	"github.com/cleared-dev/ledgeraudit/internal/money"
)

// DefaultCapacity is the number of results kept in memory.
const DefaultCapacity = 500

// Log is an append-only window over the most recent audit results. Totals
// cover every audit ever appended, not just the retained window. It is safe
// for concurrent use.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []audit.Result
	start    int // index of the oldest entry once the window is full

	total      int
	failed     int
	codeCounts map[audit.Code]int
	codeOrder  []audit.Code
}

// New creates a Log holding at most capacity results. A non-positive
// capacity selects DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity:   capacity,
		entries:    make([]audit.Result, 0, capacity),
		codeCounts: make(map[audit.Code]int),
	}
}

// Append records res, evicting the oldest result when the window is full.
func (l *Log) Append(res audit.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, res)
	} else {
		l.entries[l.start] = res
		l.start = (l.start + 1) % l.capacity
	}

	l.total++
	if res.Failed() {
		l.failed++
	}
	for _, e := range res.Errors {
		if _, seen := l.codeCounts[e.Code]; !seen {
			l.codeOrder = append(l.codeOrder, e.Code)
		}
		l.codeCounts[e.Code]++
	}
}

// Len returns the number of retained results.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Capacity returns the window size.
func (l *Log) Capacity() int { return l.capacity }

// Recent returns up to n of the newest results, oldest first. n <= 0 returns
// the whole window.
func (l *Log) Recent(n int) []audit.Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	ordered := make([]audit.Result, 0, len(l.entries))
	ordered = append(ordered, l.entries[l.start:]...)
	ordered = append(ordered, l.entries[:l.start]...)
	if n > 0 && n < len(ordered) {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// CodeCount is how often an error code has been seen.
type CodeCount struct {
	Code  audit.Code `json:"code"`
	Count int        `json:"count"`
}

// Summary is a consistent snapshot of the log's statistics.
type Summary struct {
	TotalAudits  int           `json:"total_audits"`
	FailedAudits int           `json:"failed_audits"`
	PassedAudits int           `json:"passed_audits"`
	PassRate     money.Percent `json:"pass_rate"`
	HistorySize  int           `json:"history_size"`
	Capacity     int           `json:"capacity"`
	CommonErrors []CodeCount   `json:"common_errors"`
}

// Summary returns the statistics with at most limit common error codes,
// ranked by count and then by first appearance. limit <= 0 returns all codes.
func (l *Log) Summary(limit int) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	common := make([]CodeCount, 0, len(l.codeOrder))
	for _, c := range l.codeOrder {
		common = append(common, CodeCount{Code: c, Count: l.codeCounts[c]})
	}
	sort.SliceStable(common, func(i, j int) bool {
		return common[i].Count > common[j].Count
	})
	if limit > 0 && len(common) > limit {
		common = common[:limit]
	}

	passed := l.total - l.failed
	return Summary{
		TotalAudits:  l.total,
		FailedAudits: l.failed,
		PassedAudits: passed,
		PassRate:     money.Percentage(int64(passed), int64(l.total)),
		HistorySize:  len(l.entries),
		Capacity:     l.capacity,
		CommonErrors: common,
	}
}

// Replay rebuilds a Log from previously stored results, oldest first.
func Replay(results []audit.Result, capacity int) *Log {
	l := New(capacity)
	for _, res := range results {
		l.Append(res)
	}
	return l
}
