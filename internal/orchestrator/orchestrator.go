package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ezhost/panel/internal/events"
	"github.com/ezhost/panel/internal/launcher"
	"github.com/ezhost/panel/internal/models"
	"github.com/ezhost/panel/internal/monitoring"
	"github.com/ezhost/panel/internal/properties"
	"github.com/ezhost/panel/internal/rcon"
	"github.com/ezhost/panel/internal/registry"
	"github.com/ezhost/panel/pkg/logger"
)

// LaunchRunner runs a server-management script and reports whether the
// process reached readiness before exiting or timing out.
type LaunchRunner interface {
	Launch(ctx context.Context, dir string, kind launcher.ScriptKind) (launcher.Result, error)
}

// CommandChannel sends a single RCON command and returns the raw response.
type CommandChannel interface {
	Execute(password, command string) (string, error)
}

// Broadcaster pushes a typed message to connected websocket clients.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// Orchestrator owns every status transition in the system. Handlers and
// background probes never write a status directly; they go through here
// so the single-active rule and the transition log stay consistent.
type Orchestrator struct {
	registry *registry.Registry
	launcher LaunchRunner
	channel  CommandChannel
	bus      *events.Bus
	hub      Broadcaster

	stopGrace time.Duration
	// after is swapped for a fake clock in tests
	after func(time.Duration) <-chan time.Time

	// mu serializes the offline/active gate so two concurrent starts
	// cannot both pass it
	mu sync.Mutex
}

func New(reg *registry.Registry, run LaunchRunner, ch CommandChannel, bus *events.Bus, hub Broadcaster, stopGrace time.Duration) *Orchestrator {
	return &Orchestrator{
		registry:  reg,
		launcher:  run,
		channel:   ch,
		bus:       bus,
		hub:       hub,
		stopGrace: stopGrace,
		after:     time.After,
	}
}

// SetAfter overrides the grace-period clock. Tests only.
func (o *Orchestrator) SetAfter(after func(time.Duration) <-chan time.Time) {
	o.after = after
}

// CreateServer registers a new server and lays down its management
// scripts and RCON settings. The record is rolled back if the on-disk
// setup fails, so a listed server always has its scripts in place.
func (o *Orchestrator) CreateServer(fields registry.CreateFields, ramGB, rconPort int) (models.ServerRecord, error) {
	record, err := o.registry.Create(fields)
	if err != nil {
		return models.ServerRecord{}, err
	}

	if err := launcher.WriteScripts(record.Directory, ramGB); err != nil {
		o.registry.Delete(record.ID)
		return models.ServerRecord{}, fmt.Errorf("writing management scripts: %w", err)
	}
	propsPath := filepath.Join(record.Directory, "server.properties")
	if err := properties.EnsureRCONSettings(propsPath, rconPort, fields.RCONPassword); err != nil {
		launcher.RemoveScripts(record.Directory)
		o.registry.Delete(record.ID)
		return models.ServerRecord{}, fmt.Errorf("enabling rcon: %w", err)
	}

	o.bus.PublishServerCreated(record.ID, record.Name, record.Directory)
	monitoring.RecordStatus(record.ID, record.Name, string(record.Status))
	monitoring.ManagedServers.Set(float64(len(o.registry.List())))
	logger.Info("Server created", map[string]interface{}{
		"server_id": record.ID,
		"name":      record.Name,
	})
	return record, nil
}

// rollbackCreate removes a record whose setup never completed, along
// with its generated scripts.
func (o *Orchestrator) rollbackCreate(record models.ServerRecord) error {
	if err := launcher.RemoveScripts(record.Directory); err != nil {
		return err
	}
	if err := o.registry.Delete(record.ID); err != nil {
		return err
	}
	o.bus.PublishServerDeleted(record.ID, record.Name)
	monitoring.DropServer(record.ID, record.Name)
	monitoring.ManagedServers.Set(float64(len(o.registry.List())))
	return nil
}

// Init runs the one-time installer script. It blocks until the script
// exits; installers terminate on their own, so readiness markers are
// not expected. Init completes the creation flow, so a failed install
/// rolls the record back the same way a failed create does: a listed
// server is always one that finished setup.
func (o *Orchestrator) Init(ctx context.Context, id string) (string, error) {
	record, err := o.registry.Get(id)
	if err != nil {
		return "", err
	}
	if record.Status != models.StatusOffline {
		return "", ErrNotOffline
	}

	res, err := o.launcher.Launch(ctx, record.Directory, launcher.KindInit)
	if err != nil {
		monitoring.LaunchFailures.WithLabelValues("init").Inc()
		o.bus.PublishStartFailed(record.ID, "init", err.Error())
		if rbErr := o.rollbackCreate(record); rbErr != nil {
			logger.Error("Rollback after failed init did not complete", rbErr, map[string]interface{}{
				"server_id": record.ID,
			})
		}
		return "", err
	}

	o.bus.PublishServerInitialized(record.ID)
	logger.Info("Server initialized", map[string]interface{}{"server_id": record.ID})
	return res.Output, nil
}

// Start transitions an offline server to Starting and launches its
// start script in the background. Exactly one server may be active at
// a time; a start while another server holds the slot fails with
// ErrActiveConflict and changes nothing.
func (o *Orchestrator) Start(id string) error {
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(record.Directory, "variables.txt")); err != nil {
		return ErrVariablesMissing
	}

	// The Offline check must happen under the same lock that claims the
	// running slot, or two concurrent starts on one server both pass.
	o.mu.Lock()
	record, err = o.registry.Get(id)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	if record.Status != models.StatusOffline {
		o.mu.Unlock()
		return ErrNotOffline
	}
	for _, other := range o.registry.List() {
		if other.ID != record.ID && other.Status.IsActive() {
			o.mu.Unlock()
			return ErrActiveConflict
		}
	}
	if err := o.setStatus(record.ID, models.StatusStarting, "start requested"); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	go o.runStart(record.ID, record.Directory)
	return nil
}

func (o *Orchestrator) runStart(id, dir string) {
	res, err := o.launcher.Launch(context.Background(), dir, launcher.KindStart)
	if err != nil {
		cause := "process"
		if errors.Is(err, launcher.ErrTimeout) {
			cause = "timeout"
		}
		monitoring.LaunchFailures.WithLabelValues(cause).Inc()
		o.bus.PublishStartFailed(id, cause, err.Error())
		logger.Error("Server start failed", err, map[string]interface{}{"server_id": id})
		o.setStatus(id, models.StatusOffline, "start failed")
		return
	}
	if !res.Ready {
		// script exited cleanly before printing the readiness markers
		monitoring.LaunchFailures.WithLabelValues("exited").Inc()
		o.bus.PublishStartFailed(id, "exited", "process exited before readiness")
		o.setStatus(id, models.StatusOffline, "exited before readiness")
		return
	}
	o.setStatus(id, models.StatusOnline, "readiness markers observed")
	logger.Info("Server online", map[string]interface{}{"server_id": id})
}

// Save issues save-all to an online server.
func (o *Orchestrator) Save(id string) error {
	_, err := o.execOnline(id, "save-all")
	return err
}

// Stop sends the stop command and schedules the Stopping -> Offline
// transition after the grace period. The status flips to Stopping
// before the command goes out so observers never see an Online server
// that has already been told to shut down.
func (o *Orchestrator) Stop(id string) error {
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	if record.Status != models.StatusOnline {
		return ErrNotReady
	}
	if err := o.setStatus(id, models.StatusStopping, "stop requested"); err != nil {
		return err
	}
	if _, err := o.execute(record, "stop"); err != nil {
		o.setStatus(id, models.StatusOffline, "stop command failed")
		return err
	}
	go func() {
		<-o.after(o.stopGrace)
		o.setStatus(id, models.StatusOffline, "grace period elapsed")
	}()
	return nil
}

// Restart saves, stops, and starts the server again. Any failed step
// leaves the server Offline; the restart is not resumed.
func (o *Orchestrator) Restart(id string) error {
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	if record.Status != models.StatusOnline {
		return ErrNotReady
	}
	if err := o.setStatus(id, models.StatusRestarting, "restart requested"); err != nil {
		return err
	}
	go o.runRestart(record)
	return nil
}

func (o *Orchestrator) runRestart(record models.ServerRecord) {
	if _, err := o.execute(record, "save-all"); err != nil {
		logger.Error("Restart aborted during save", err, map[string]interface{}{"server_id": record.ID})
		o.setStatus(record.ID, models.StatusOffline, "restart save failed")
		return
	}
	if _, err := o.execute(record, "stop"); err != nil {
		logger.Error("Restart aborted during stop", err, map[string]interface{}{"server_id": record.ID})
		o.setStatus(record.ID, models.StatusOffline, "restart stop failed")
		return
	}
	<-o.after(o.stopGrace)
	o.setStatus(record.ID, models.StatusOffline, "restart stop complete")

	if err := o.Start(record.ID); err != nil {
		logger.Error("Restart aborted during start", err, map[string]interface{}{"server_id": record.ID})
	}
}

// Delete removes an offline server's registry entry and its management
// scripts. The world data stays on disk.
func (o *Orchestrator) Delete(id string) error {
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	if record.Status != models.StatusOffline {
		return ErrNotOffline
	}
	if err := launcher.RemoveScripts(record.Directory); err != nil {
		return fmt.Errorf("removing management scripts: %w", err)
	}
	if err := o.registry.Delete(id); err != nil {
		return err
	}
	o.bus.PublishServerDeleted(record.ID, record.Name)
	monitoring.DropServer(record.ID, record.Name)
	monitoring.ManagedServers.Set(float64(len(o.registry.List())))
	return nil
}

// ExecuteCommand is the raw console passthrough. The stop and restart
// keywords are routed through the lifecycle paths so the status
// machine stays authoritative even for hand-typed commands.
func (o *Orchestrator) ExecuteCommand(id, command string) (string, error) {
	switch strings.TrimSpace(command) {
	case "stop":
		return "stopping server", o.Stop(id)
	case "restart":
		return "restarting server", o.Restart(id)
	}
	return o.execOnline(id, command)
}

// Players returns the current roster of an online server.
func (o *Orchestrator) Players(id string) ([]string, error) {
	resp, err := o.execOnline(id, "list")
	if err != nil {
		return nil, err
	}
	return rcon.ParsePlayers(resp), nil
}

// SetOperator grants or revokes operator rights for a player.
func (o *Orchestrator) SetOperator(id, player string, grant bool) (string, error) {
	command := "op " + player
	if !grant {
		command = "deop " + player
	}
	return o.execOnline(id, command)
}

// CheckStatusAll probes every registered server with an RCON list
// command and reconciles stored statuses with reality. Servers that
// answer are Online, everything else is Offline. The whole sweep is
// persisted in one write.
func (o *Orchestrator) CheckStatusAll() ([]models.ServerRecord, error) {
	servers := o.registry.List()
	statuses := make(map[string]models.ServerStatus, len(servers))
	for _, s := range servers {
		status := models.StatusOffline
		resp, err := o.channel.Execute(s.RCONPassword, "list")
		if err == nil && rcon.IsListResponse(resp) {
			status = models.StatusOnline
		}
		statuses[s.ID] = status
		if s.Status != status {
			o.bus.PublishStateChanged(s.ID, string(s.Status), string(status), "status probe")
		}
		monitoring.RecordStatus(s.ID, s.Name, string(status))
	}
	if err := o.registry.ReplaceStatuses(statuses); err != nil {
		return nil, err
	}
	return o.registry.List(), nil
}

// Properties reads a server's server.properties as an ordered map.
func (o *Orchestrator) Properties(id string) (*properties.Map, error) {
	record, err := o.registry.Get(id)
	if err != nil {
		return nil, err
	}
	return properties.Read(filepath.Join(record.Directory, "server.properties"))
}

// UpdateProperties merges the given keys into server.properties,
// preserving unrelated lines.
func (o *Orchestrator) UpdateProperties(id string, values map[string]string) error {
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	return properties.Write(filepath.Join(record.Directory, "server.properties"), properties.FromJSON(values))
}

// RAM reports the JVM heap allocation in GB from variables.txt.
func (o *Orchestrator) RAM(id string) (int, error) {
	record, err := o.registry.Get(id)
	if err != nil {
		return 0, err
	}
	return properties.ReadRAM(filepath.Join(record.Directory, "variables.txt")), nil
}

// SetRAM rewrites the heap allocation. Takes effect on the next start.
func (o *Orchestrator) SetRAM(id string, gb int) error {
	if gb < 4 || gb > 16 {
		return ErrRAMOutOfRange
	}
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	return properties.WriteRAM(filepath.Join(record.Directory, "variables.txt"), gb)
}

// execOnline validates the Online precondition before touching the network.
func (o *Orchestrator) execOnline(id, command string) (string, error) {
	record, err := o.registry.Get(id)
	if err != nil {
		return "", err
	}
	if record.Status != models.StatusOnline {
		return "", ErrNotReady
	}
	return o.execute(record, command)
}

// execute sends one command. A transport failure means the process is
// unreachable, so the server is failed safe to Offline.
func (o *Orchestrator) execute(record models.ServerRecord, command string) (string, error) {
	start := time.Now()
	resp, err := o.channel.Execute(record.RCONPassword, command)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	monitoring.RCONCommands.WithLabelValues(commandLabel(command), outcome).Inc()
	monitoring.RCONCommandDuration.Observe(time.Since(start).Seconds())
	o.bus.PublishRCONCommand(record.ID, commandLabel(command), outcome)

	if err != nil {
		logger.Warn("RCON command failed, marking server offline", map[string]interface{}{
			"server_id": record.ID,
			"command":   commandLabel(command),
			"error":     err.Error(),
		})
		o.setStatus(record.ID, models.StatusOffline, "rcon unreachable")
		return "", err
	}
	return resp, nil
}

// commandLabel keeps player names and arguments out of metric labels.
func commandLabel(command string) string {
	if i := strings.IndexByte(command, ' '); i > 0 {
		return command[:i]
	}
	return command
}

func (o *Orchestrator) setStatus(id string, to models.ServerStatus, reason string) error {
	record, err := o.registry.Get(id)
	if err != nil {
		return err
	}
	from := record.Status
	if err := o.registry.SetStatus(id, to); err != nil {
		return err
	}
	if from != to {
		o.bus.PublishStateChanged(id, string(from), string(to), reason)
		monitoring.LifecycleTransitions.WithLabelValues(string(to)).Inc()
	}
	monitoring.RecordStatus(id, record.Name, string(to))
	if o.hub != nil {
		o.hub.Broadcast("server_status", map[string]interface{}{
			"serverId": id,
			"from":     from,
			"to":       to,
			"reason":   reason,
		})
	}
	return nil
}
