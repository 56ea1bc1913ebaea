package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/textrpg/game/command"
	mw "github.com/kasuganosora/textrpg/middleware"
)

// CommandHandler runs text commands for chat bridges.
type CommandHandler struct {
	d *command.Dispatcher
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(d *command.Dispatcher) *CommandHandler {
	return &CommandHandler{d: d}
}

// commandRequest carries either a raw chat line or pre-split arguments.
type commandRequest struct {
	Text string   `json:"text" binding:"max=512"`
	Args []string `json:"args" binding:"max=16"`
}

// Handle handles POST /api/command. Game failures are still HTTP 200; the
// rendered reply carries success and code.
func (h *CommandHandler) Handle(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	args := req.Args
	if req.Text != "" {
		var ok bool
		if args, ok = h.d.Parse(req.Text); !ok {
			args = strings.Fields(req.Text)
		}
	}
	resp := h.d.Handle(c.Request.Context(), command.Request{
		PlayerKey: mw.GetPlayerKey(c),
		Name:      mw.GetPlayerName(c),
		Args:      args,
		TraceID:   mw.GetTraceID(c),
	})
	c.JSON(http.StatusOK, resp)
}
