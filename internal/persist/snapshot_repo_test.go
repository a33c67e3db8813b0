package persist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/core/value"
	"github.com/mewah/core/internal/header"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorld(t *testing.T) *ecs.World {
	t.Helper()
	w, err := ecs.NewWorld([]ecs.ComponentSchema{
		ecs.NewComponentSchema("Unit",
			ecs.IntField("hp", 10),
			ecs.TextField("label", "grunt"),
			ecs.AnyField("extra", value.Float(1.5)),
		),
		ecs.NewComponentSchema("Tag"),
	}, nil)
	require.NoError(t, err)
	return w
}

func TestCollect(t *testing.T) {
	w := testWorld(t)
	unit, _ := w.StoreByName("Unit")
	for i := 0; i < 3; i++ {
		_, err := unit.MakeComponent()
		require.NoError(t, err)
	}
	h, ok := unit.GetComponent(1)
	require.True(t, ok)
	require.NoError(t, h.SetAny(2, value.Text("boss")))
	tag, _ := w.StoreByName("Tag")
	_, err := tag.MakeComponent()
	require.NoError(t, err)

	stores, err := collect(context.Background(), w)
	require.NoError(t, err)
	require.Len(t, stores, 2)

	u := stores[0]
	assert.Equal(t, 0, u.position)
	assert.Equal(t, "Unit", u.name)
	assert.Equal(t, 3, u.slots)
	assert.Equal(t, unit.Stride(), u.stride)
	assert.Equal(t, header.Fingerprint(unit.Schema()), u.fingerprint)
	require.Len(t, u.fields, 9)
	assert.Equal(t, fieldRow{slot: 1, field: 2, kind: ecs.FieldAny, v: value.Text("boss")}, u.fields[5])
	assert.True(t, value.Float(1.5).Equal(u.fields[2].v))

	assert.Equal(t, 1, stores[1].slots)
	assert.Empty(t, stores[1].fields)
}

func TestCollectEmptyWorld(t *testing.T) {
	w, err := ecs.NewWorld(nil, nil)
	require.NoError(t, err)
	stores, err := collect(context.Background(), w)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestFieldRowColumns(t *testing.T) {
	id := uuid.New()

	cols := fieldRow{slot: 4, field: 1, kind: ecs.FieldInt, v: value.Int(-7)}.columns(id, 2)
	require.Len(t, cols, len(fieldColumns))
	assert.Equal(t, id, cols[0])
	assert.Equal(t, int32(2), cols[1])
	assert.Equal(t, int32(4), cols[2])
	assert.Equal(t, int32(1), cols[3])
	assert.Equal(t, int16(ecs.FieldInt), cols[4])
	require.NotNil(t, cols[5])
	assert.Equal(t, int64(-7), *cols[5].(*int64))
	assert.Nil(t, cols[6].(*float32))
	assert.Nil(t, cols[7].(*string))

	cols = fieldRow{kind: ecs.FieldAny, v: value.Text("x")}.columns(id, 0)
	assert.Equal(t, int16(ecs.FieldAny), cols[4])
	assert.Nil(t, cols[5].(*int64))
	assert.Nil(t, cols[6].(*float32))
	assert.Equal(t, "x", *cols[7].(*string))

	cols = fieldRow{kind: ecs.FieldFloat, v: value.Float(0.25)}.columns(id, 0)
	assert.Equal(t, float32(0.25), *cols[6].(*float32))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	body, err := migrations.ReadFile("migrations/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(body), "-- +goose Up")
	assert.Contains(t, string(body), "snapshot_fields")
}

func TestReadSlotAfterGrowth(t *testing.T) {
	w := testWorld(t)
	unit, _ := w.StoreByName("Unit")
	_, err := unit.MakeComponent()
	require.NoError(t, err)
	h, ok := unit.GetComponent(0)
	require.True(t, ok)
	require.NoError(t, h.SetInt(0, 77))

	// second slot doubles the arena and invalidates h
	_, err = unit.MakeComponent()
	require.NoError(t, err)
	_, err = h.Value(0)
	require.ErrorIs(t, err, ecs.ErrStaleHandle)

	fields, err := readSlot(unit, h)
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.True(t, value.Int(77).Equal(fields[0].v))
	assert.True(t, value.Text("grunt").Equal(fields[1].v))
	for _, f := range fields {
		assert.Equal(t, 0, f.slot)
	}
}

func TestLatestResult(t *testing.T) {
	id := uuid.New()

	got, err := latestResult(id, nil)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = latestResult(id, fmt.Errorf("query latest: %w", pgx.ErrNoRows))
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, got)

	boom := errors.New("connection reset")
	got, err = latestResult(id, boom)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, uuid.Nil, got)
}
