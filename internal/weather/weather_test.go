package weather

import (
	"math/rand"
	"testing"
)

func TestPick_NeverRepeats(t *testing.T) {
	p := NewPicker(rand.New(rand.NewSource(7)))

	last := p.Pick()
	for i := 0; i < 200; i++ {
		next := p.Pick()
		if next == last {
			t.Fatalf("pick %d repeated preset %s", i, next)
		}
		last = next
	}
}

func TestPick_OnlyKnownPresets(t *testing.T) {
	known := make(map[string]bool)
	for _, preset := range Presets() {
		known[string(preset)] = true
	}

	p := NewPicker(rand.New(rand.NewSource(3)))
	for i := 0; i < 50; i++ {
		if preset := p.Pick(); !known[string(preset)] {
			t.Fatalf("picked unknown preset %s", preset)
		}
	}
}
