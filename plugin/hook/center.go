// Package hook lets add-ons observe game events, such as announcing a
// level-up to a group chat, without the game services knowing about them.
package hook

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ErrInterrupt stops the remaining handlers of an event.
var ErrInterrupt = errors.New("hook interrupted")

// Game events.
const (
	BattleStarted  = "battle_started"
	BattleFinished = "battle_finished"
	PlayerLevelUp  = "player_level_up"
)

// Event is one occurrence delivered to handlers. Data holds the event's
// payload: the *model.Battle for battle events and the
// *progression.LevelUp for level-ups.
type Event struct {
	Name      string
	PlayerKey string
	Data      interface{}
}

// Fn handles an event. Handlers run synchronously on the caller's goroutine
// and must not block.
type Fn func(ctx context.Context, ev Event) error

type entry struct {
	priority int
	name     string
	fn       Fn
}

// Center holds hook registrations. A nil *Center ignores every Emit.
type Center struct {
	mu     sync.RWMutex
	hooks  map[string][]entry
	logger *zap.Logger
}

// NewCenter creates an empty Center.
func NewCenter(logger *zap.Logger) *Center {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Center{hooks: make(map[string][]entry), logger: logger}
}

// Register adds fn for event. Lower priorities run first; name identifies
// the add-on for Unregister.
func (c *Center) Register(event string, priority int, name string, fn Fn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	es := append(c.hooks[event], entry{priority: priority, name: name, fn: fn})
	sort.SliceStable(es, func(i, j int) bool { return es[i].priority < es[j].priority })
	c.hooks[event] = es
}

// Unregister removes every handler the add-on registered, across events,
// and returns how many were removed.
func (c *Center) Unregister(name string) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for event, es := range c.hooks {
		kept := make([]entry, 0, len(es))
		for _, e := range es {
			if e.name != name {
				kept = append(kept, e)
			}
		}
		removed += len(es) - len(kept)
		c.hooks[event] = kept
	}
	if removed > 0 {
		c.logger.Info("hook unregistered", zap.String("name", name), zap.Int("handlers", removed))
	}
	return removed
}

// Emit delivers ev to its handlers in priority order. Handler failures and
// panics are logged and never reach the emitter; ErrInterrupt skips the
// remaining handlers. It returns how many handlers ran.
func (c *Center) Emit(ctx context.Context, ev Event) int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	es := make([]entry, len(c.hooks[ev.Name]))
	copy(es, c.hooks[ev.Name])
	c.mu.RUnlock()

	ran := 0
	for _, e := range es {
		ran++
		err := c.call(ctx, e, ev)
		if errors.Is(err, ErrInterrupt) {
			break
		}
		if err != nil {
			c.logger.Warn("hook failed",
				zap.String("event", ev.Name),
				zap.String("hook", e.name),
				zap.Error(err))
		}
	}
	return ran
}

func (c *Center) call(ctx context.Context, e entry, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("hook panicked",
				zap.String("event", ev.Name),
				zap.String("hook", e.name),
				zap.Any("recover", r))
			err = nil
		}
	}()
	return e.fn(ctx, ev)
}
