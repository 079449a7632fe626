package logger

import (
	"strconv"
	"strings"
	"sync"
)

// keyedSampler passes numerator out of every denominator events, counted per key so
// a chatty event cannot starve a rare one of its debug lines.
type keyedSampler struct {
	mu          sync.Mutex
	numerator   int
	denominator int
	counters    map[string]int
}

// maxSampleKeys bounds the counter map; it is reset when exceeded.
const maxSampleKeys = 256

func newKeyedSampler(numerator, denominator int) *keyedSampler {
	s := &keyedSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set configures the sampling ratio and resets all counters.
// A non-positive side disables sampling, letting every event through.
func (s *keyedSampler) Set(numerator, denominator int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if numerator <= 0 || denominator <= 0 {
		numerator, denominator = 0, 0
	}
	if numerator > denominator {
		numerator = denominator
	}
	s.numerator = numerator
	s.denominator = denominator
	s.counters = make(map[string]int)
}

// Allow reports whether the next event for key should pass sampling.
func (s *keyedSampler) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denominator <= 0 {
		return true
	}
	if _, ok := s.counters[key]; !ok && len(s.counters) >= maxSampleKeys {
		s.counters = make(map[string]int)
	}
	n := s.counters[key] + 1
	if n > s.denominator {
		n = 1
	}
	s.counters[key] = n
	return n <= s.numerator
}

// parseRatio accepts "n/d" or a bare "d" meaning 1/d. Invalid input yields 0,0.
func parseRatio(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, 0
	}
	if num, den, ok := strings.Cut(raw, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return n, d
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
