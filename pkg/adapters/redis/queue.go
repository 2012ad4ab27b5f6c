package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/uuid"
)

// Message is one placement as pushed onto a queue.
type Message struct {
	RunID   string                  `json:"run_id"`
	Seq     int                     `json:"seq"`
	Command domain.PlacementCommand `json:"command"`
}

// Queue implements ports.Instantiator and ports.Flusher. Commands are
// buffered and pushed as one contiguous batch on Flush, under a lock on the
// scene so concurrent runs never interleave.
type Queue struct {
	registry *Registry
	locker   *Locker
	scene    string
	runID    string
	lockTTL  time.Duration
	pending  []any
}

// Queue creates a placement queue for scene.
func (r *Registry) Queue(scene string) *Queue {
	return &Queue{
		registry: r,
		locker:   NewLocker(r.client, r.prefix),
		scene:    scene,
		runID:    uuid.NewString(),
		lockTTL:  30 * time.Second,
	}
}

// RunID identifies this run's messages.
func (q *Queue) RunID() string {
	return q.runID
}

// Instantiate buffers one command.
func (q *Queue) Instantiate(ctx context.Context, cmd domain.PlacementCommand) error {
	data, err := json.Marshal(Message{RunID: q.runID, Seq: len(q.pending), Command: cmd})
	if err != nil {
		return fmt.Errorf("failed to encode placement: %w", err)
	}
	q.pending = append(q.pending, data)
	return nil
}

// Flush pushes the buffered commands.
func (q *Queue) Flush(ctx context.Context) (err error) {
	if len(q.pending) == 0 {
		return nil
	}

	unlock, err := q.locker.Lock(ctx, q.scene, q.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil && err == nil {
			err = fmt.Errorf("failed to release queue lock: %w", uerr)
		}
	}()

	if err := q.registry.client.RPush(ctx, q.registry.queueKey(q.scene), q.pending...).Err(); err != nil {
		return fmt.Errorf("failed to push placements: %w", err)
	}
	q.pending = q.pending[:0]
	return nil
}

// Messages reads every queued placement for scene.
func (r *Registry) Messages(ctx context.Context, scene string) ([]Message, error) {
	raw, err := r.client.LRange(ctx, r.queueKey(scene), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read placements: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, s := range raw {
		var m Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("corrupt placement message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}
