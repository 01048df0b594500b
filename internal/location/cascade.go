// Package location serves courier location reference data: cascading
// city, zone and area pickers plus a Redis read-through cache.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownOption is returned when a selection is not among the loaded options.
var ErrUnknownOption = errors.New("unknown option")

// State is the load state of one cascade level.
type State int

const (
	StateUnselected State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unselected"
	}
}

// Option is one selectable location.
type Option struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FetchFunc loads the options of a level for the selected parent id.
// The root level is called with parentID 0.
type FetchFunc func(ctx context.Context, parentID int) ([]Option, error)

// LevelSpec names a level and how to fetch it.
type LevelSpec struct {
	Name  string
	Fetch FetchFunc
}

// Level is a snapshot of one level.
type Level struct {
	Name     string   `json:"name"`
	State    State    `json:"state"`
	Options  []Option `json:"options,omitempty"`
	Selected int      `json:"selected,omitempty"`
	Err      error    `json:"-"`
}

// Cascade is an ordered chain of dependent pickers. Selecting a level
// resets every level below it and loads the next one. A level whose
// parent has no selection is never fetched.
type Cascade struct {
	mu     sync.Mutex
	specs  []LevelSpec
	levels []Level
	// gen is bumped whenever a level is reset so late fetch results for
	// an earlier parent are dropped.
	gen []uint64
}

// NewCascade creates a cascade with every level unselected.
func NewCascade(specs ...LevelSpec) *Cascade {
	levels := make([]Level, len(specs))
	for i, s := range specs {
		levels[i] = Level{Name: s.Name}
	}
	return &Cascade{specs: specs, levels: levels, gen: make([]uint64, len(specs))}
}

// Load fetches the root level.
func (c *Cascade) Load(ctx context.Context) error {
	if len(c.specs) == 0 {
		return nil
	}
	return c.load(ctx, 0, 0)
}

// Select picks id on level i, resets the levels below it and loads level i+1.
func (c *Cascade) Select(ctx context.Context, i, id int) error {
	c.mu.Lock()
	if i < 0 || i >= len(c.levels) {
		c.mu.Unlock()
		return fmt.Errorf("level %d out of range", i)
	}
	lvl := &c.levels[i]
	if lvl.State != StateLoaded || !hasOption(lvl.Options, id) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s %d", ErrUnknownOption, lvl.Name, id)
	}
	lvl.Selected = id
	c.resetBelow(i)
	c.mu.Unlock()

	if i+1 < len(c.specs) {
		return c.load(ctx, i+1, id)
	}
	return nil
}

// Clear drops the selection on level i and resets the levels below it.
func (c *Cascade) Clear(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.levels) {
		return
	}
	c.levels[i].Selected = 0
	c.resetBelow(i)
}

// Levels returns a snapshot of every level.
func (c *Cascade) Levels() []Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Level, len(c.levels))
	for i, l := range c.levels {
		l.Options = append([]Option(nil), l.Options...)
		out[i] = l
	}
	return out
}

// Selection returns the selected id per level, 0 where nothing is selected.
func (c *Cascade) Selection() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, len(c.levels))
	for i, l := range c.levels {
		ids[i] = l.Selected
	}
	return ids
}

// resetBelow must be called with mu held.
func (c *Cascade) resetBelow(i int) {
	for j := i + 1; j < len(c.levels); j++ {
		c.levels[j] = Level{Name: c.specs[j].Name}
		c.gen[j]++
	}
}

func (c *Cascade) load(ctx context.Context, i, parentID int) error {
	c.mu.Lock()
	if i > 0 && c.levels[i-1].Selected != parentID {
		c.mu.Unlock()
		return nil
	}
	if i > 0 && parentID == 0 {
		c.mu.Unlock()
		return nil
	}
	c.gen[i]++
	gen := c.gen[i]
	c.levels[i].State = StateLoading
	c.levels[i].Err = nil
	c.mu.Unlock()

	opts, err := c.specs[i].Fetch(ctx, parentID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[i] != gen {
		return nil
	}
	if err != nil {
		c.levels[i].State = StateError
		c.levels[i].Err = err
		return err
	}
	c.levels[i].State = StateLoaded
	c.levels[i].Options = opts
	return nil
}

func hasOption(opts []Option, id int) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}
