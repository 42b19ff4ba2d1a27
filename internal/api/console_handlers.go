package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ezhost/panel/internal/orchestrator"
)

// ConsoleHandler serves the RCON console endpoints.
type ConsoleHandler struct {
	orch *orchestrator.Orchestrator
}

func NewConsoleHandler(orch *orchestrator.Orchestrator) *ConsoleHandler {
	return &ConsoleHandler{orch: orch}
}

type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ExecuteCommand forwards a console command to the server. The stop
// and restart keywords go through the lifecycle paths instead of
// straight to the process.
func (h *ConsoleHandler) ExecuteCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, "command is required")
		return
	}
	response, err := h.orch.ExecuteCommand(c.Param("id"), req.Command)
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Command executed", gin.H{"response": response})
}

// GetPlayers returns the names currently connected to the server.
func (h *ConsoleHandler) GetPlayers(c *gin.Context) {
	players, err := h.orch.Players(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "", gin.H{"players": players, "count": len(players)})
}

type operatorRequest struct {
	Op *bool `json:"op" binding:"required"`
}

// SetOperator grants or revokes operator rights for a named player.
func (h *ConsoleHandler) SetOperator(c *gin.Context) {
	var req operatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, "op is required")
		return
	}
	player := strings.TrimSpace(c.Param("name"))
	if player == "" {
		failBadRequest(c, "player name is required")
		return
	}
	response, err := h.orch.SetOperator(c.Param("id"), player, *req.Op)
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Operator updated", gin.H{"response": response})
}
