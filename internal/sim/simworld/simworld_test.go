package simworld

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/frqc/data-generation/internal/sim"
	"github.com/frqc/data-generation/pkg/core"
)

func TestTick_FramesMonotonic(t *testing.T) {
	w := New(Config{ImageHeight: 2, ImageWidth: 2})

	var last uint64
	for i := 0; i < 5; i++ {
		frame, err := w.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if frame <= last {
			t.Errorf("frame %d not greater than %d", frame, last)
		}
		last = frame
	}
}

func TestSensor_ProducesOncePerTick(t *testing.T) {
	w := New(Config{ImageHeight: 2, ImageWidth: 2})
	s, err := w.SpawnSensor("cam_0")
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var frames []uint64
	s.Listen(func(payload []byte, frame uint64) {
		mu.Lock()
		defer mu.Unlock()
		if len(payload) != 2*2*4 {
			t.Errorf("payload size %d", len(payload))
		}
		frames = append(frames, frame)
	})

	for i := 0; i < 3; i++ {
		if _, err := w.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(frames)
		mu.Unlock()
		if n == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected 3 productions, got %d", n)
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, f := range frames {
		if f != uint64(i+1) {
			t.Errorf("production %d carries frame %d", i, f)
		}
	}
}

func TestSensor_DropEverySkipsFrames(t *testing.T) {
	w := New(Config{
		ImageHeight: 1, ImageWidth: 1,
		DropEvery: map[core.SensorName]uint64{"cam_0": 2},
	})
	s, err := w.SpawnSensor("cam_0")
	if err != nil {
		t.Fatal(err)
	}

	produced := make(chan uint64, 8)
	s.Listen(func(_ []byte, frame uint64) { produced <- frame })

	for i := 0; i < 4; i++ {
		if _, err := w.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	var got []uint64
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case f := <-produced:
			got = append(got, f)
		case <-timeout:
			t.Fatalf("expected frames 1 and 3, got %v", got)
		}
	}
	if got[0] != 1 || got[1] != 3 {
		t.Errorf("expected odd frames only, got %v", got)
	}
}

func TestSensor_DestroyTwiceErrors(t *testing.T) {
	w := New(Config{})
	s, err := w.SpawnSensor("cam_0")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Destroy(); err != nil {
		t.Fatalf("first destroy: %v", err)
	}
	if err := s.Destroy(); err == nil {
		t.Error("expected error on double destroy")
	}
	if w.DestroyedCount() != 1 {
		t.Errorf("destroyed count %d", w.DestroyedCount())
	}
}

func TestSpawnSensor_DuplicateName(t *testing.T) {
	w := New(Config{})
	if _, err := w.SpawnSensor("cam_0"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.SpawnSensor("cam_0"); err == nil {
		t.Error("expected error for duplicate sensor name")
	}
}

func TestApplySettings_RoundTrip(t *testing.T) {
	w := New(Config{})
	want := sim.Settings{Synchronous: true, FixedDelta: 200 * time.Millisecond}

	if err := w.ApplySettings(want); err != nil {
		t.Fatal(err)
	}
	if got := w.Settings(); got != want {
		t.Errorf("settings %+v, want %+v", got, want)
	}
}

func TestSetWeather(t *testing.T) {
	w := New(Config{})
	if err := w.SetWeather("HardRainNoon"); err != nil {
		t.Fatal(err)
	}
	if w.Weather() != "HardRainNoon" {
		t.Errorf("weather %s", w.Weather())
	}
}
