package composer

import (
	"math/rand/v2"
	"sync"
)

// GenericApology is returned when a phrase bank is missing or empty.
const GenericApology = "Sorry, I don't have a good answer for that right now."

// Picker selects phrases uniformly at random from a bank. The random source
// is injectable so tests can make selection deterministic. Safe for
// concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker creates a Picker. A nil src uses the runtime's global generator.
func NewPicker(src rand.Source) *Picker {
	if src == nil {
		return &Picker{}
	}
	return &Picker{rng: rand.New(src)}
}

// Pick returns one element of bank, or GenericApology when bank is empty.
func (p *Picker) Pick(bank []string) string {
	if len(bank) == 0 {
		return GenericApology
	}
	return bank[p.intN(len(bank))]
}

func (p *Picker) intN(n int) int {
	if p == nil || p.rng == nil {
		return rand.IntN(n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}
