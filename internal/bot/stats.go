package bot

import "sync"

// Stats counts successful translations per target language. Counters are
// process-wide and mutated by the event handlers, so access is serialized.
type Stats struct {
	mu      sync.Mutex
	perLang map[string]int64
}

func NewStats() *Stats {
	return &Stats{perLang: make(map[string]int64)}
}

// Inc records one successful translation into code.
func (s *Stats) Inc(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perLang[code]++
}

// Snapshot returns a copy of the per-language counters.
func (s *Stats) Snapshot() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.perLang))
	for code, count := range s.perLang {
		out[code] = count
	}
	return out
}

// Total returns the sum over all languages.
func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, count := range s.perLang {
		total += count
	}
	return total
}
