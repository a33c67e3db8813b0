package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/core/value"
	"github.com/mewah/core/internal/header"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var fieldColumns = []string{
	"snapshot_id", "position", "slot", "field", "kind",
	"int_value", "float_value", "text_value",
}

// SnapshotRepo writes point-in-time copies of every live component slot.
type SnapshotRepo struct {
	db     *DB
	engine string
}

func NewSnapshotRepo(db *DB, engine string) *SnapshotRepo {
	return &SnapshotRepo{db: db, engine: engine}
}

// storeRows is the collected content of one component store.
type storeRows struct {
	position    int
	name        string
	fingerprint [32]byte
	stride      int
	slots       int
	fields      []fieldRow
}

type fieldRow struct {
	slot  int
	field int
	kind  ecs.FieldKind
	v     value.Value
}

// columns renders r as a snapshot_fields row. Exactly one value column is
// non-NULL, chosen by the kind of the stored value.
func (r fieldRow) columns(id uuid.UUID, position int) []any {
	var (
		i *int64
		f *float32
		s *string
	)
	switch r.v.Kind() {
	case value.KindInt:
		n, _ := r.v.AsInt()
		n64 := int64(n)
		i = &n64
	case value.KindFloat:
		x, _ := r.v.AsFloat()
		f = &x
	case value.KindText:
		t, _ := r.v.AsText()
		s = &t
	}
	return []any{id, int32(position), int32(r.slot), int32(r.field), int16(r.kind), i, f, s}
}

// collectStore reads every live slot of s. Slots are read one handle at a
// time so writers are never blocked for the whole pass.
func collectStore(position int, s *ecs.ComponentStore) (storeRows, error) {
	schema := s.Schema()
	rows := storeRows{
		position:    position,
		name:        schema.Name,
		fingerprint: header.Fingerprint(schema),
		stride:      s.Stride(),
	}
	var err error
	s.Each(func(h ecs.SlotHandle) bool {
		var fields []fieldRow
		fields, err = readSlot(s, h)
		if err != nil {
			return false
		}
		rows.fields = append(rows.fields, fields...)
		rows.slots++
		return true
	})
	return rows, err
}

// readSlot reads every field of the slot behind h. A concurrent
// MakeComponent may grow the store mid-read; the slot is then looked up
// again and read from the start.
func readSlot(s *ecs.ComponentStore, h ecs.SlotHandle) ([]fieldRow, error) {
	schema := s.Schema()
	index := h.Index()
	for {
		fields := make([]fieldRow, 0, len(schema.Fields))
		var err error
		for fi, f := range schema.Fields {
			var v value.Value
			v, err = h.Value(fi)
			if err != nil {
				if !errors.Is(err, ecs.ErrStaleHandle) {
					return nil, fmt.Errorf("%s slot %d field %q: %w", schema.Name, index, f.Name, err)
				}
				break
			}
			fields = append(fields, fieldRow{slot: index, field: fi, kind: f.Kind, v: v})
		}
		if err == nil {
			return fields, nil
		}
		var ok bool
		if h, ok = s.GetComponent(index); !ok {
			return nil, fmt.Errorf("%s slot %d: %w", schema.Name, index, ecs.ErrStaleHandle)
		}
	}
}

// collect gathers all stores of w concurrently.
func collect(ctx context.Context, w *ecs.World) ([]storeRows, error) {
	out := make([]storeRows, w.Len())
	g, _ := errgroup.WithContext(ctx)
	w.Each(func(i int, s *ecs.ComponentStore) {
		g.Go(func() error {
			rows, err := collectStore(i, s)
			if err != nil {
				return err
			}
			out[i] = rows
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save stores a snapshot of w in a single transaction and returns its id.
func (r *SnapshotRepo) Save(ctx context.Context, w *ecs.World) (uuid.UUID, error) {
	start := time.Now()
	stores, err := collect(ctx, w)
	if err != nil {
		return uuid.Nil, fmt.Errorf("collect snapshot: %w", err)
	}

	id := uuid.New()
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO snapshots (id, engine, taken_at) VALUES ($1, $2, $3)`,
		id, r.engine, start,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert snapshot: %w", err)
	}

	var fields [][]any
	for _, s := range stores {
		_, err = tx.Exec(ctx,
			`INSERT INTO snapshot_components (snapshot_id, position, name, fingerprint, stride, slot_count)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, int32(s.position), s.name, s.fingerprint[:], int32(s.stride), int32(s.slots),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert component %s: %w", s.name, err)
		}
		for _, f := range s.fields {
			fields = append(fields, f.columns(id, s.position))
		}
	}

	if len(fields) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"snapshot_fields"}, fieldColumns, pgx.CopyFromRows(fields))
		if err != nil {
			return uuid.Nil, fmt.Errorf("copy fields: %w", err)
		}
		if int(n) != len(fields) {
			return uuid.Nil, fmt.Errorf("copy fields: wrote %d of %d rows", n, len(fields))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	r.db.log.Info("snapshot saved",
		zap.Stringer("id", id),
		zap.Int("components", len(stores)),
		zap.Int("fields", len(fields)),
		zap.Duration("took", time.Since(start)),
	)
	return id, nil
}

// Count returns how many component rows and field rows snapshot id holds.
func (r *SnapshotRepo) Count(ctx context.Context, id uuid.UUID) (components, fields int, err error) {
	err = r.db.Pool.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM snapshot_components WHERE snapshot_id = $1),
			(SELECT count(*) FROM snapshot_fields WHERE snapshot_id = $1)`,
		id,
	).Scan(&components, &fields)
	return components, fields, err
}

// Latest returns the id of the most recent snapshot for this engine.
func (r *SnapshotRepo) Latest(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id FROM snapshots WHERE engine = $1 ORDER BY taken_at DESC LIMIT 1`,
		r.engine,
	).Scan(&id)
	return latestResult(id, err)
}

// latestResult maps an empty result to uuid.Nil without an error.
func latestResult(id uuid.UUID, err error) (uuid.UUID, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
