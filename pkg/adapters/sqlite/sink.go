package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement is a stored placement row.
type Placement struct {
	ID      string
	RunID   string
	Seq     int
	Command domain.PlacementCommand
}

// Sink implements ports.Instantiator and ports.Flusher by writing placements
// of one run inside a single transaction, committed on Flush.
type Sink struct {
	store *Store
	runID string
	tx    *sql.Tx
	stmt  *sql.Stmt
	seq   int
}

// NewSink starts a new run. Each run gets its own ID.
func (s *Store) NewSink() *Sink {
	return &Sink{store: s, runID: uuid.NewString()}
}

// RunID identifies the placements written by this sink.
func (k *Sink) RunID() string {
	return k.runID
}

// Instantiate stores one placement.
func (k *Sink) Instantiate(ctx context.Context, cmd domain.PlacementCommand) error {
	if k.tx == nil {
		tx, err := k.store.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO placements
			(id, run_id, seq, object_name, object_ref, group_index, cell_x, cell_y, cell_z, x, y, z)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		k.tx, k.stmt = tx, stmt
	}

	_, err := k.stmt.ExecContext(ctx, uuid.NewString(), k.runID, k.seq,
		cmd.Object.Name, cmd.Object.Ref, cmd.GroupIndex,
		cmd.Cell[0], cmd.Cell[1], cmd.Cell[2],
		cmd.Position.X, cmd.Position.Y, cmd.Position.Z)
	if err != nil {
		return fmt.Errorf("failed to insert placement: %w", err)
	}
	k.seq++
	return nil
}

// Flush commits the run. Flushing an empty run is a no-op.
func (k *Sink) Flush(ctx context.Context) error {
	if k.tx == nil {
		return nil
	}
	k.stmt.Close()
	err := k.tx.Commit()
	k.tx, k.stmt = nil, nil
	if err != nil {
		return fmt.Errorf("failed to commit placements: %w", err)
	}
	return nil
}

// Abort discards uncommitted placements.
func (k *Sink) Abort() error {
	if k.tx == nil {
		return nil
	}
	k.stmt.Close()
	err := k.tx.Rollback()
	k.tx, k.stmt = nil, nil
	return err
}

// Placements returns the placements of a run in emission order.
func (s *Store) Placements(ctx context.Context, runID string) ([]Placement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, run_id, seq, object_name, object_ref, group_index,
		cell_x, cell_y, cell_z, x, y, z FROM placements WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	defer rows.Close()

	var out []Placement
	for rows.Next() {
		var p Placement
		var pos r3.Vec
		c := &p.Command
		if err := rows.Scan(&p.ID, &p.RunID, &p.Seq, &c.Object.Name, &c.Object.Ref, &c.GroupIndex,
			&c.Cell[0], &c.Cell[1], &c.Cell[2], &pos.X, &pos.Y, &pos.Z); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		c.Position = pos
		out = append(out, p)
	}
	return out, rows.Err()
}
