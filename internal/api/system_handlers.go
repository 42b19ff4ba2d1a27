package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/ezhost/panel/internal/events"
	"github.com/ezhost/panel/internal/registry"
	"github.com/ezhost/panel/internal/websocket"
	"github.com/ezhost/panel/pkg/logger"
)

// SystemHandler serves health, diagnostics, event history, and the
// websocket upgrade endpoint.
type SystemHandler struct {
	reg      *registry.Registry
	bus      *events.Bus
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
	started  time.Time
}

func NewSystemHandler(reg *registry.Registry, bus *events.Bus, hub *websocket.Hub) *SystemHandler {
	return &SystemHandler{
		reg: reg,
		bus: bus,
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// local desktop companion process, not an internet-facing API
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

func (h *SystemHandler) Health(c *gin.Context) {
	respondOK(c, "", gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"servers":        len(h.reg.List()),
		"ws_clients":     h.hub.ClientCount(),
	})
}

func (h *SystemHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *SystemHandler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// IPAddress reports the first non-loopback IPv4 address, the address
// players on the LAN use to join.
func (h *SystemHandler) IPAddress(c *gin.Context) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		fail(c, err)
		return
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			respondOK(c, "", gin.H{"ip": ip4.String()})
			return
		}
	}
	respondOK(c, "", gin.H{"ip": "127.0.0.1"})
}

// Events returns stored lifecycle events, newest first. Supports
// ?type=, ?serverId=, and ?limit= filters.
func (h *SystemHandler) Events(c *gin.Context) {
	filters := events.Filters{
		ServerID: c.Query("serverId"),
	}
	if t := c.Query("type"); t != "" {
		filters.Types = []events.EventType{events.EventType(t)}
	}
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 {
			failBadRequest(c, "limit must be a positive integer")
			return
		}
		filters.Limit = n
	}
	history, err := h.bus.Query(filters)
	if err != nil {
		fail(c, err)
		return
	}
	respondOK(c, "", gin.H{"events": history, "count": len(history)})
}

// HandleWebSocket upgrades the connection and hands it to the hub,
// which pushes registry changes and status transitions.
func (h *SystemHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", map[string]interface{}{
			"ip":    c.ClientIP(),
			"error": err.Error(),
		})
		return
	}
	h.hub.Register(conn)
}
