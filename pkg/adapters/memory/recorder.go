package memory

import (
	"context"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/uuid"
)

// Instance is a placement recorded by a Recorder.
type Instance struct {
	ID      string                  `json:"id"`
	Command domain.PlacementCommand `json:"command"`
}

// Recorder implements ports.Instantiator by keeping every placement in memory.
// Safe for concurrent use.
type Recorder struct {
	mu        sync.RWMutex
	instances []Instance
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Instantiate records cmd under a fresh instance ID.
func (r *Recorder) Instantiate(ctx context.Context, cmd domain.PlacementCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = append(r.instances, Instance{ID: uuid.NewString(), Command: cmd})
	return nil
}

// Instances returns a copy of the recorded placements in arrival order.
func (r *Recorder) Instances() []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Instance(nil), r.instances...)
}

// Commands returns the recorded commands in arrival order.
func (r *Recorder) Commands() []domain.PlacementCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmds := make([]domain.PlacementCommand, len(r.instances))
	for i, inst := range r.instances {
		cmds[i] = inst.Command
	}
	return cmds
}

// Reset discards every recorded placement.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = nil
}
