package location_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/internal/location"
)

type fetchLog struct {
	mu    sync.Mutex
	calls map[string][]int
}

func (f *fetchLog) fetcher(level string, data map[int][]location.Option) location.FetchFunc {
	return func(ctx context.Context, parentID int) ([]location.Option, error) {
		f.mu.Lock()
		if f.calls == nil {
			f.calls = make(map[string][]int)
		}
		f.calls[level] = append(f.calls[level], parentID)
		f.mu.Unlock()
		opts, ok := data[parentID]
		if !ok {
			return nil, errors.New("no data")
		}
		return opts, nil
	}
}

func newTestCascade(log *fetchLog) *location.Cascade {
	return location.NewCascade(
		location.LevelSpec{Name: "city", Fetch: log.fetcher("city", map[int][]location.Option{
			0: {{ID: 1, Name: "Dhaka"}, {ID: 2, Name: "Chattogram"}},
		})},
		location.LevelSpec{Name: "zone", Fetch: log.fetcher("zone", map[int][]location.Option{
			1: {{ID: 10, Name: "Dhanmondi"}, {ID: 11, Name: "Gulshan"}},
			2: {{ID: 20, Name: "Agrabad"}},
		})},
		location.LevelSpec{Name: "area", Fetch: log.fetcher("area", map[int][]location.Option{
			10: {{ID: 100, Name: "Road 27"}},
			11: {{ID: 110, Name: "Gulshan 1"}},
		})},
	)
}

func states(levels []location.Level) []location.State {
	out := make([]location.State, len(levels))
	for i, l := range levels {
		out[i] = l.State
	}
	return out
}

func TestCascade_InitiallyOnlyRootLoads(t *testing.T) {
	log := &fetchLog{}
	c := newTestCascade(log)

	assert.Equal(t, []location.State{location.StateUnselected, location.StateUnselected, location.StateUnselected}, states(c.Levels()))

	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, []location.State{location.StateLoaded, location.StateUnselected, location.StateUnselected}, states(c.Levels()))
	assert.Equal(t, []int{0}, log.calls["city"])
	assert.Empty(t, log.calls["zone"], "zone has no city selected")
	assert.Empty(t, log.calls["area"])
}

func TestCascade_SelectLoadsImmediateChild(t *testing.T) {
	log := &fetchLog{}
	c := newTestCascade(log)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	require.NoError(t, c.Select(ctx, 0, 1))

	levels := c.Levels()
	assert.Equal(t, location.StateLoaded, levels[1].State)
	assert.Len(t, levels[1].Options, 2)
	assert.Equal(t, location.StateUnselected, levels[2].State)
	assert.Empty(t, log.calls["area"])
	assert.Equal(t, []int{1, 0, 0}, c.Selection())
}

func TestCascade_ChangingParentResetsDescendants(t *testing.T) {
	log := &fetchLog{}
	c := newTestCascade(log)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, 0, 1))
	require.NoError(t, c.Select(ctx, 1, 10))
	require.NoError(t, c.Select(ctx, 2, 100))
	assert.Equal(t, []int{1, 10, 100}, c.Selection())

	require.NoError(t, c.Select(ctx, 0, 2))

	levels := c.Levels()
	assert.Equal(t, []int{2, 0, 0}, c.Selection())
	assert.Equal(t, location.StateLoaded, levels[1].State)
	assert.Equal(t, []location.Option{{ID: 20, Name: "Agrabad"}}, levels[1].Options)
	assert.Equal(t, location.StateUnselected, levels[2].State)
	assert.Empty(t, levels[2].Options)
}

func TestCascade_SelectUnknownOption(t *testing.T) {
	log := &fetchLog{}
	c := newTestCascade(log)
	ctx := context.Background()

	err := c.Select(ctx, 0, 1)
	assert.ErrorIs(t, err, location.ErrUnknownOption, "root not loaded yet")

	require.NoError(t, c.Load(ctx))
	assert.ErrorIs(t, c.Select(ctx, 0, 99), location.ErrUnknownOption)
	assert.ErrorIs(t, c.Select(ctx, 1, 10), location.ErrUnknownOption, "zone not loaded")
	assert.Error(t, c.Select(ctx, 5, 1))
}

func TestCascade_FetchErrorState(t *testing.T) {
	log := &fetchLog{}
	c := newTestCascade(log)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, 0, 2))

	err := c.Select(ctx, 1, 20)

	assert.Error(t, err)
	levels := c.Levels()
	assert.Equal(t, location.StateError, levels[2].State)
	assert.Error(t, levels[2].Err)
}

func TestCascade_Clear(t *testing.T) {
	log := &fetchLog{}
	c := newTestCascade(log)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, 0, 1))
	require.NoError(t, c.Select(ctx, 1, 11))

	c.Clear(0)

	assert.Equal(t, []int{0, 0, 0}, c.Selection())
	assert.Equal(t, []location.State{location.StateLoaded, location.StateUnselected, location.StateUnselected}, states(c.Levels()))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unselected", location.StateUnselected.String())
	assert.Equal(t, "loading", location.StateLoading.String())
	assert.Equal(t, "loaded", location.StateLoaded.String())
	assert.Equal(t, "error", location.StateError.String())
}
