package run

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frqc/data-generation/internal/model"
)

// Context holds the current run and frame state
type Context struct {
	mu    sync.RWMutex
	Run   *model.Run
	frame uint64
}

// NewContext creates a new Context with a fresh run ID
func NewContext(tag, world string) *Context {
	return &Context{
		Run: &model.Run{
			RunID:     uuid.NewString(),
			Tag:       tag,
			World:     world,
			StartTime: time.Now().UTC(),
		},
	}
}

// GetRun returns the current run
func (rc *Context) GetRun() *model.Run {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.Run
}

// SetRun sets the current run
func (rc *Context) SetRun(run *model.Run) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Run = run
}

// Frame returns the last observed frame number
func (rc *Context) Frame() uint64 {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.frame
}

// SetFrame records the last observed frame number
func (rc *Context) SetFrame(frame uint64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.frame = frame
}
