package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ezhost/panel/internal/orchestrator"
	"github.com/ezhost/panel/internal/properties"
	"github.com/ezhost/panel/internal/registry"
	"github.com/ezhost/panel/pkg/config"
)

// Handler serves the server CRUD and lifecycle endpoints.
type Handler struct {
	orch *orchestrator.Orchestrator
	reg  *registry.Registry
	cfg  *config.Config
}

func NewHandler(orch *orchestrator.Orchestrator, reg *registry.Registry, cfg *config.Config) *Handler {
	return &Handler{orch: orch, reg: reg, cfg: cfg}
}

type createServerRequest struct {
	Name         string `json:"name" binding:"required"`
	Directory    string `json:"directory" binding:"required"`
	Icon         string `json:"icon"`
	Type         string `json:"type"`
	RCONPassword string `json:"rconPassword"`
	RAM          int    `json:"ram"`
}

// CreateServer registers a server, writes its management scripts, and
// forces RCON on in server.properties.
func (h *Handler) CreateServer(c *gin.Context) {
	var req createServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, "name and directory are required")
		return
	}
	ram := req.RAM
	if ram == 0 {
		ram = properties.DefaultRAMGB
	}
	if ram < 4 || ram > 16 {
		fail(c, orchestrator.ErrRAMOutOfRange)
		return
	}
	password := req.RCONPassword
	if password == "" {
		password = uuid.New().String()
	}

	record, err := h.orch.CreateServer(registry.CreateFields{
		Name:         strings.TrimSpace(req.Name),
		Directory:    req.Directory,
		Icon:         req.Icon,
		Type:         req.Type,
		RCONPassword: password,
	}, ram, h.cfg.RCONPort)
	if err != nil {
		fail(c, err)
		return
	}
	respondCreated(c, "Server created", record)
}

// ListServers returns every registered server with its stored status.
func (h *Handler) ListServers(c *gin.Context) {
	respondOK(c, "", h.reg.List())
}

func (h *Handler) GetServer(c *gin.Context) {
	record, err := h.reg.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "", record)
}

type updateServerRequest struct {
	Name *string `json:"name"`
	Icon *string `json:"icon"`
}

func (h *Handler) UpdateServer(c *gin.Context) {
	var req updateServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, "invalid update payload")
		return
	}
	record, err := h.reg.Update(c.Param("id"), registry.UpdateFields{
		Name: req.Name,
		Icon: req.Icon,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Server updated", record)
}

// DeleteServer unregisters an offline server and removes its
// management scripts. World data is left alone.
func (h *Handler) DeleteServer(c *gin.Context) {
	if err := h.orch.Delete(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Server deleted", nil)
}

// CheckStatus probes every server over RCON and returns the
// reconciled list.
func (h *Handler) CheckStatus(c *gin.Context) {
	servers, err := h.orch.CheckStatusAll()
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Statuses refreshed", servers)
}

// InitServer runs the one-time installer. Blocks until it finishes.
func (h *Handler) InitServer(c *gin.Context) {
	output, err := h.orch.Init(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Server initialized", gin.H{"output": output})
}

// StartServer kicks off the start script. The launch continues in the
// background; the response confirms the Starting transition only.
func (h *Handler) StartServer(c *gin.Context) {
	if err := h.orch.Start(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Server starting", nil)
}

func (h *Handler) SaveServer(c *gin.Context) {
	if err := h.orch.Save(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "World saved", nil)
}

func (h *Handler) StopServer(c *gin.Context) {
	if err := h.orch.Stop(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Server stopping", nil)
}

func (h *Handler) RestartServer(c *gin.Context) {
	if err := h.orch.Restart(c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Server restarting", nil)
}

// GetProperties returns server.properties as a key/value object.
func (h *Handler) GetProperties(c *gin.Context) {
	props, err := h.orch.Properties(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "", props.AsJSON())
}

// UpdateProperties merges the posted keys into server.properties.
func (h *Handler) UpdateProperties(c *gin.Context) {
	var values map[string]string
	if err := c.ShouldBindJSON(&values); err != nil {
		failBadRequest(c, "invalid properties payload")
		return
	}
	if err := h.orch.UpdateProperties(c.Param("id"), values); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "Properties updated", nil)
}

func (h *Handler) GetRAM(c *gin.Context) {
	gb, err := h.orch.RAM(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "", gin.H{"ram": gb})
}

type ramRequest struct {
	RAM int `json:"ram" binding:"required"`
}

// SetRAM rewrites the heap flag in variables.txt. Takes effect on the
// next start.
func (h *Handler) SetRAM(c *gin.Context) {
	var req ramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBadRequest(c, "ram is required")
		return
	}
	if err := h.orch.SetRAM(c.Param("id"), req.RAM); err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "RAM updated", gin.H{"ram": req.RAM})
}
