package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ezhost/panel/internal/models"
	"github.com/ezhost/panel/pkg/logger"
)

var (
	// ErrNotFound is returned when a server id does not exist.
	ErrNotFound = errors.New("server not found")
	// ErrConflict is returned when a create would violate directory or
	// RCON password uniqueness.
	ErrConflict = errors.New("conflicting server record")
	// ErrInvalidName is returned when a server name is empty or too long.
	ErrInvalidName = errors.New("server name must be 1-20 characters")
)

const maxNameLength = 20

// CreateFields holds the caller-supplied fields for a new record.
type CreateFields struct {
	Name         string
	Directory    string
	Icon         string
	Type         string
	RCONPassword string
}

// UpdateFields holds the mutable metadata of a record. Nil pointers leave
/// the corresponding field untouched. Status is deliberately absent: status
// transitions go through SetStatus and are owned by the orchestrator.
type UpdateFields struct {
	Name *string
	Icon *string
}

// Registry is the single source of truth for managed server records.
//
// Every mutation synchronously rewrites the backing JSON document via a
// temp-file rename. Writes are serialized by one mutex; this is a
// single-user desktop process and the registry is its only writer, so a
// process-local lock is the whole concurrency story.
type Registry struct {
	mu       sync.Mutex
	path     string
	servers  []models.ServerRecord
	onChange func()
}

// Open loads the registry document at path, creating an empty registry if
// the file does not exist yet.
func Open(path string) (*Registry, error) {
	r := &Registry{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No registry file found, starting empty", map[string]interface{}{
				"file": path,
			})
			return r, nil
		}
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	if err := json.Unmarshal(data, &r.servers); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}

	logger.Info("Registry loaded", map[string]interface{}{
		"file":    path,
		"servers": len(r.servers),
	})
	return r, nil
}

// SetChangeListener registers a callback fired after every successful
// persist. The UI consumes this as a push notification to re-poll.
func (r *Registry) SetChangeListener(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// List returns a snapshot of all records.
func (r *Registry) List() []models.ServerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ServerRecord, len(r.servers))
	copy(out, r.servers)
	return out
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (models.ServerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.servers {
		if s.ID == id {
			return s, nil
		}
	}
	return models.ServerRecord{}, ErrNotFound
}

// Create appends a new record with a fresh id and Offline status. The
// directory and RCON password must be unique across all records; a
// violation returns ErrConflict without mutating anything.
func (r *Registry) Create(fields CreateFields) (models.ServerRecord, error) {
	if n := utf8.RuneCountInString(fields.Name); n < 1 || n > maxNameLength {
		return models.ServerRecord{}, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.servers {
		if s.Directory == fields.Directory {
			return models.ServerRecord{}, fmt.Errorf("%w: directory %s already managed", ErrConflict, fields.Directory)
		}
		if s.RCONPassword == fields.RCONPassword {
			return models.ServerRecord{}, fmt.Errorf("%w: rcon password already in use", ErrConflict)
		}
	}

	icon := fields.Icon
	if icon == "" {
		icon = models.DefaultIcon
	}

	server := models.ServerRecord{
		ID:           uuid.New().String()[:8],
		Name:         fields.Name,
		Directory:    fields.Directory,
		Icon:         icon,
		Type:         fields.Type,
		RCONPassword: fields.RCONPassword,
		Status:       models.StatusOffline,
	}

	r.servers = append(r.servers, server)
	if err := r.persist(); err != nil {
		r.servers = r.servers[:len(r.servers)-1]
		return models.ServerRecord{}, err
	}
	return server, nil
}

// Update mutates the metadata of a record.
func (r *Registry) Update(id string, fields UpdateFields) (models.ServerRecord, error) {
	if fields.Name != nil {
		if n := utf8.RuneCountInString(*fields.Name); n < 1 || n > maxNameLength {
			return models.ServerRecord{}, ErrInvalidName
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.servers {
		if r.servers[i].ID != id {
			continue
		}
		prev := r.servers[i]
		if fields.Name != nil {
			r.servers[i].Name = *fields.Name
		}
		if fields.Icon != nil {
			r.servers[i].Icon = *fields.Icon
		}
		if err := r.persist(); err != nil {
			r.servers[i] = prev
			return models.ServerRecord{}, err
		}
		return r.servers[i], nil
	}
	return models.ServerRecord{}, ErrNotFound
}

// Delete removes a record.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.servers {
		if r.servers[i].ID != id {
			continue
		}
		r.servers = append(r.servers[:i], r.servers[i+1:]...)
		return r.persist()
	}
	return ErrNotFound
}

// SetStatus writes a single server's status. Called only by the
// orchestrator.
func (r *Registry) SetStatus(id string, status models.ServerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.servers {
		if r.servers[i].ID == id {
			r.servers[i].Status = status
			return r.persist()
		}
	}
	return ErrNotFound
}

// ReplaceStatuses applies a batch of status updates and persists once.
// Unknown ids are skipped. Used by the global status check.
func (r *Registry) ReplaceStatuses(statuses map[string]models.ServerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.servers {
		if status, ok := statuses[r.servers[i].ID]; ok {
			r.servers[i].Status = status
		}
	}
	return r.persist()
}

// persist rewrites the full document atomically. Callers hold r.mu.
func (r *Registry) persist() error {
	data, err := json.MarshalIndent(r.servers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	tempFile := r.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := os.Rename(tempFile, r.path); err != nil {
		return fmt.Errorf("failed to rename registry file: %w", err)
	}

	if r.onChange != nil {
		go r.onChange()
	}
	return nil
}
