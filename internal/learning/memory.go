package learning

import (
	"context"
	"sort"
	"sync"
)

// TopWordsLimit caps Stats.TopWords.
const TopWordsLimit = 10

// MemoryStore is an in-process Store, used when persistence is disabled and
// in tests.
type MemoryStore struct {
	mu           sync.Mutex
	interactions []Interaction
	patterns     []Pattern
	feedback     []Feedback
	vocab        map[string]*WordCount
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vocab: make(map[string]*WordCount)}
}

// Record implements Recorder.
func (m *MemoryStore) Record(_ context.Context, in Interaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, in)
	return nil
}

// SavePattern implements Store.
func (m *MemoryStore) SavePattern(_ context.Context, p Pattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Confidence == 0 {
		p.Confidence = InitialConfidence
	}
	p.Keywords = append([]string(nil), p.Keywords...)
	m.patterns = append(m.patterns, p)

	for _, k := range p.Keywords {
		w, ok := m.vocab[k]
		if !ok {
			w = &WordCount{Word: k}
			m.vocab[k] = w
		}
		w.Frequency++
		if p.Topic != "" && !contains(w.Topics, p.Topic) {
			w.Topics = append(w.Topics, p.Topic)
		}
	}
	return nil
}

// Patterns implements Store.
func (m *MemoryStore) Patterns(_ context.Context, limit int) ([]Pattern, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]Pattern(nil), m.patterns...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MarkUsed implements Store.
func (m *MemoryStore) MarkUsed(_ context.Context, input string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.find(input); p != nil {
		p.SuccessCount++
	}
	return nil
}

// AddFeedback implements Store.
func (m *MemoryStore) AddFeedback(_ context.Context, f Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.feedback = append(m.feedback, f)
	p := m.find(f.Input)
	if p == nil {
		return nil
	}
	p.Confidence = Adjust(p.Confidence, f.Rating)
	switch f.Rating {
	case Positive:
		p.SuccessCount++
	case Negative:
		p.FailCount++
	}
	return nil
}

// find returns the most recent pattern learned for input.
func (m *MemoryStore) find(input string) *Pattern {
	for i := len(m.patterns) - 1; i >= 0; i-- {
		if m.patterns[i].Input == input {
			return &m.patterns[i]
		}
	}
	return nil
}

// Stats implements Store.
func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Stats{
		Interactions:   len(m.interactions),
		Patterns:       len(m.patterns),
		VocabularySize: len(m.vocab),
		Feedback:       len(m.feedback),
	}
	ok := 0
	for _, in := range m.interactions {
		if in.Success {
			ok++
		}
	}
	if st.Interactions > 0 {
		st.SuccessRate = float64(ok) / float64(st.Interactions)
	}

	words := make([]WordCount, 0, len(m.vocab))
	for _, w := range m.vocab {
		words = append(words, *w)
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Frequency != words[j].Frequency {
			return words[i].Frequency > words[j].Frequency
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > TopWordsLimit {
		words = words[:TopWordsLimit]
	}
	st.TopWords = words
	return st, nil
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
