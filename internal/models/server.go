package models

// ServerStatus represents the lifecycle state of a managed server
type ServerStatus string

const (
	StatusOffline    ServerStatus = "Offline"
	StatusStarting   ServerStatus = "Starting"
	StatusOnline     ServerStatus = "Online"
	StatusStopping   ServerStatus = "Stopping"
	StatusRestarting ServerStatus = "Restarting"
)

// Valid reports whether s is one of the known lifecycle states.
func (s ServerStatus) Valid() bool {
	switch s {
	case StatusOffline, StatusStarting, StatusOnline, StatusStopping, StatusRestarting:
		return true
	}
	return false
}

// IsActive reports whether the server currently occupies the single
// running slot (anything except Offline).
func (s ServerStatus) IsActive() bool {
	return s.Valid() && s != StatusOffline
}

// ServerRecord is one managed Minecraft server installation.
//
// Directory and RCONPassword are unique across all records: every RCON
// connection targets the same host:port, so the password doubles as the
// routing key for the underlying server process.
type ServerRecord struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Directory    string       `json:"directory"`
	Icon         string       `json:"icon,omitempty"`
	Type         string       `json:"type,omitempty"`
	RCONPassword string       `json:"rconPassword"`
	Status       ServerStatus `json:"status"`
}

// DefaultIcon is used when a record is created without an icon.
const DefaultIcon = "assets/default-server-icon.png"
