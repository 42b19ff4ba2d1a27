// Package rcon is the command channel to running Minecraft servers. Every
// command gets a fresh short-lived connection; all servers share one
// host:port and are told apart by password alone.
package rcon

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gorcon/rcon"

	"github.com/ezhost/panel/pkg/logger"
)

// ErrProtocol wraps any RCON connect, send, or read failure.
var ErrProtocol = errors.New("rcon protocol failure")

var (
	colorCodeRe  = regexp.MustCompile(`§.`)
	playerListRe = regexp.MustCompile(`There are \d+/\d+ players online:\s*(.*)`)
)

// Channel sends single commands over per-command RCON connections.
// It holds no connection state, so there is nothing to pool or guard.
type Channel struct {
	host        string
	port        int
	dialTimeout time.Duration
}

// NewChannel creates a channel targeting host:port.
func NewChannel(host string, port int) *Channel {
	return &Channel{host: host, port: port, dialTimeout: 5 * time.Second}
}

// Execute dials, authenticates with password, sends exactly one command,
// reads the single response, and closes the connection.
func (c *Channel) Execute(password, command string) (string, error) {
	addr := fmt.Sprintf("%s:%d", c.host, c.port)

	conn, err := rcon.Dial(addr, password, rcon.SetDialTimeout(c.dialTimeout))
	if err != nil {
		return "", fmt.Errorf("%w: connection to %s failed: %v", ErrProtocol, addr, err)
	}
	defer conn.Close()

	response, err := conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("%w: command %q failed: %v", ErrProtocol, command, err)
	}

	logger.Debug("RCON response", map[string]interface{}{
		"command":  command,
		"response": response,
	})
	return response, nil
}

// ParsePlayers extracts the online player names from a `list` response:
//
//	There are 2/20 players online: Alice, Bob
//
// Responses that do not match the pattern yield an empty list, never an
// error; an empty roster after the colon does too.
func ParsePlayers(response string) []string {
	clean := colorCodeRe.ReplaceAllString(response, "")

	match := playerListRe.FindStringSubmatch(clean)
	if match == nil {
		return []string{}
	}

	players := []string{}
	for _, name := range strings.Split(match[1], ",") {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			players = append(players, trimmed)
		}
	}
	return players
}

// IsListResponse reports whether a response looks like a `list` reply,
// which is how the global status probe decides a server is alive.
func IsListResponse(response string) bool {
	return strings.Contains(colorCodeRe.ReplaceAllString(response, ""), "players online")
}
