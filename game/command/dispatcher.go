// Package command turns text commands ("battle goblin", "buy potion") into
// calls on the game services and renders the outcome as a chat message.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kasuganosora/textrpg/audit"
	"github.com/kasuganosora/textrpg/config"
	"github.com/kasuganosora/textrpg/game/battle"
	"github.com/kasuganosora/textrpg/game/boost"
	"github.com/kasuganosora/textrpg/game/gameerr"
	"github.com/kasuganosora/textrpg/game/progression"
	"github.com/kasuganosora/textrpg/game/ranking"
	"github.com/kasuganosora/textrpg/game/shop"
	"github.com/kasuganosora/textrpg/metrics"
	"go.uber.org/zap"
)

// DefaultPrefix is how commands are introduced in chat.
const DefaultPrefix = ".rpg"

var (
	ErrUnknownCommand = gameerr.New(gameerr.InvalidInput, "UNKNOWN_COMMAND", "unknown command")
	ErrMissingMonster = gameerr.New(gameerr.InvalidInput, "MISSING_MONSTER", "choose a monster")
	ErrMissingItem    = gameerr.New(gameerr.InvalidInput, "MISSING_ITEM", "choose an item")
)

// Request is one command issued by a player.
type Request struct {
	PlayerKey string   `json:"player_key"`
	Name      string   `json:"name,omitempty"`
	Args      []string `json:"args"` // command name first
	TraceID   string   `json:"-"`
}

// Response is the rendered outcome of a command.
type Response struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Auditor records handled commands. *audit.Service satisfies it.
type Auditor interface {
	Log(e audit.Entry)
}

// Deps are the services a Dispatcher drives.
type Deps struct {
	Progression *progression.Service
	Battles     *battle.Engine
	Shop        *shop.Service
	Boosts      *boost.Ledger
	Ranking     *ranking.Service
	Audit       Auditor // optional
	Game        config.GameConfig
	Prefix      string
	Logger      *zap.Logger
}

type handlerFunc func(ctx context.Context, req Request, args []string) (string, error)

// Dispatcher routes commands to handlers. Every outcome, including
// unexpected faults, comes back as a Response.
type Dispatcher struct {
	Deps
	handlers map[string]handlerFunc
}

// NewDispatcher creates a Dispatcher with the full command set.
func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Prefix == "" {
		deps.Prefix = DefaultPrefix
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	d := &Dispatcher{Deps: deps}
	d.handlers = map[string]handlerFunc{
		"register":    d.register,
		"stats":       d.stats,
		"profile":     d.stats,
		"battle":      d.startBattle,
		"fight":       d.startBattle,
		"attack":      d.attack,
		"flee":        d.flee,
		"run":         d.flee,
		"monsters":    d.monsters,
		"heal":        d.heal,
		"shop":        d.shopList,
		"buy":         d.buy,
		"inventory":   d.inventory,
		"boosts":      d.inventory,
		"leaderboard": d.leaderboard,
		"lb":          d.leaderboard,
		"history":     d.history,
		"status":      d.status,
		"help":        d.help,
	}
	return d
}

// Commands lists the accepted command names, aliases included.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Parse splits a chat line such as ".rpg buy potion" into command arguments.
// ok is false when the line is not addressed to the game.
func (d *Dispatcher) Parse(line string) (args []string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], d.Prefix) {
		return nil, false
	}
	return fields[1:], true
}

// Handle runs one command. An empty command shows the help text.
func (d *Dispatcher) Handle(ctx context.Context, req Request) (resp Response) {
	start := time.Now()
	name := "help"
	var args []string
	if len(req.Args) > 0 {
		name = strings.ToLower(strings.TrimSpace(req.Args[0]))
		args = req.Args[1:]
	}
	resp.Command = name

	var herr error
	defer func() {
		if r := recover(); r != nil {
			d.Logger.Error("command panicked",
				zap.String("command", name),
				zap.String("player", req.PlayerKey),
				zap.Any("panic", r),
				zap.Stack("stack"))
			herr = fmt.Errorf("panic: %v", r)
			resp = Response{Command: name, Message: internalMessage, Code: gameerr.CodeOf(herr)}
		}
		metrics.Command(name, resp.Success)
		d.record(req, name, resp, herr, time.Since(start))
	}()

	h, ok := d.handlers[name]
	if !ok {
		herr = ErrUnknownCommand
		resp.Code = gameerr.CodeOf(herr)
		resp.Message = fmt.Sprintf("❌ Unknown command! Use %s help to see the command list.", d.Prefix)
		return resp
	}

	msg, err := h(ctx, req, args)
	if err != nil {
		herr = err
		resp.Code = gameerr.CodeOf(err)
		resp.Message = d.failureMessage(err)
		if gameerr.KindOf(err) == gameerr.Internal {
			d.Logger.Error("command failed",
				zap.String("command", name),
				zap.String("player", req.PlayerKey),
				zap.String("trace_id", req.TraceID),
				zap.Error(err))
		}
		return resp
	}
	resp.Success = true
	resp.Message = msg
	return resp
}

func (d *Dispatcher) record(req Request, name string, resp Response, err error, elapsed time.Duration) {
	if d.Audit == nil {
		return
	}
	e := audit.Entry{
		TraceID:    req.TraceID,
		PlayerKey:  req.PlayerKey,
		Action:     name,
		Request:    req.Args,
		Response:   resp,
		DurationMs: int(elapsed.Milliseconds()),
	}
	if err != nil {
		e.Error = err.Error()
	}
	d.Audit.Log(e)
}

// ensure registers the player on first contact.
func (d *Dispatcher) ensure(ctx context.Context, req Request) error {
	_, _, err := d.Progression.Register(ctx, req.PlayerKey, req.Name)
	return err
}

// userError overrides the rendered message while keeping the classified
// error underneath for codes and audit.
type userError struct {
	err error
	msg string
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

func withMessage(err error, format string, a ...interface{}) error {
	return &userError{err: err, msg: fmt.Sprintf(format, a...)}
}

func (d *Dispatcher) failureMessage(err error) string {
	var ue *userError
	if errors.As(err, &ue) {
		return ue.msg
	}
	p := d.Prefix
	switch {
	case errors.Is(err, progression.ErrPlayerNotFound):
		return fmt.Sprintf("❌ Player not found! Use %s register first.", p)
	case errors.Is(err, battle.ErrMonsterNotFound):
		return fmt.Sprintf("❌ Monster not found! Use %s monsters to see the list.", p)
	case errors.Is(err, battle.ErrPlayerIncapacitated):
		return fmt.Sprintf("💀 Your HP is 0! Use %s heal or buy a potion before fighting.", p)
	case errors.Is(err, battle.ErrDailyLimitExceeded):
		return fmt.Sprintf("⏰ You have used all %d battles for today. Come back tomorrow!", d.Game.DailyBattleCap)
	case errors.Is(err, battle.ErrBattleInProgress):
		return fmt.Sprintf("⚔️ You are already in a battle! Use %s attack or %s flee.", p, p)
	case errors.Is(err, battle.ErrNoActiveBattle):
		return fmt.Sprintf("❌ You are not in a battle. Use %s battle [monster] to start one.", p)
	case errors.Is(err, battle.ErrBattleOver):
		return fmt.Sprintf("❌ That battle is already over. Use %s battle [monster] to start a new one.", p)
	case errors.Is(err, battle.ErrWrongTurn):
		return "⏳ It's not your turn!"
	case errors.Is(err, progression.ErrHPFull):
		return "❤️ Your HP is already full!"
	case errors.Is(err, progression.ErrInsufficientGold):
		return "💰 Not enough gold!"
	case errors.Is(err, shop.ErrItemNotFound):
		return fmt.Sprintf("❌ Item not found! Use %s shop to see the item list.", p)
	case errors.Is(err, ErrMissingMonster):
		return fmt.Sprintf("❌ Choose a monster! Use %s monsters to see the list.\nExample: %s battle goblin", p, p)
	case errors.Is(err, ErrMissingItem):
		return fmt.Sprintf("❌ Choose an item! Use %s shop to see the item list.\nExample: %s buy potion", p, p)
	}
	if gameerr.KindOf(err) != gameerr.Internal {
		return "❌ " + err.Error()
	}
	return internalMessage
}

const internalMessage = "❌ Something went wrong in the RPG game! Please try again later."
