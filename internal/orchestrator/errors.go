package orchestrator

import "errors"

var (
	// ErrNotReady rejects RCON-backed actions on a server that is not
	// Online. No network action is taken.
	ErrNotReady = errors.New("server is not online")

	// ErrNotOffline rejects start/delete on a server that is not at rest.
	ErrNotOffline = errors.New("server is not offline")

	// ErrActiveConflict rejects a start while another server occupies
	// the running slot. Distinct from ordinary errors so the UI can
	// raise a blocking dialog instead of a toast.
	ErrActiveConflict = errors.New("another server is already running or transitioning")

	// ErrVariablesMissing rejects a start when the server's
	// variables.txt does not exist.
	ErrVariablesMissing = errors.New("variables.txt is missing")

	// ErrRAMOutOfRange rejects RAM allocations outside 4-16 GB.
	ErrRAMOutOfRange = errors.New("ram allocation must be between 4 and 16 GB")
)
