package translate

import "sync"

// Selector rotates through the configured translators round-robin, one per
// call. The backend list is copied at construction and never mutated.
type Selector struct {
	mu       sync.Mutex
	backends []Translator
	metrics  map[string]*MetricsCollector
	next     int
}

// NewSelector creates a selector over backends, in priority order.
func NewSelector(backends ...Translator) *Selector {
	s := &Selector{
		backends: append([]Translator(nil), backends...),
		metrics:  make(map[string]*MetricsCollector, len(backends)),
	}
	for _, b := range s.backends {
		if _, ok := s.metrics[b.Name()]; !ok {
			s.metrics[b.Name()] = NewMetricsCollector(b.Name())
		}
	}
	return s
}

// Select returns the next translator, or nil when none is configured.
func (s *Selector) Select() Translator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.backends) == 0 {
		return nil
	}
	t := s.backends[s.next]
	s.next = (s.next + 1) % len(s.backends)
	s.metrics[t.Name()].RecordSelection()
	return t
}

// Len returns the number of configured translators.
func (s *Selector) Len() int {
	return len(s.backends)
}

// Names lists the configured engines in rotation order.
func (s *Selector) Names() []string {
	names := make([]string, 0, len(s.backends))
	for _, b := range s.backends {
		names = append(names, b.Name())
	}
	return names
}
