// Package launcher runs the generated init/start scripts of a managed
// server and infers readiness from their log output.
package launcher

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/ezhost/panel/pkg/logger"
)

// ScriptKind selects which generated script to run.
type ScriptKind string

const (
	// KindInit performs first-time setup and is expected to terminate.
	KindInit ScriptKind = "initServer"
	// KindStart boots the server; the script stays attached to the
	// server process, so a launch normally ends on the readiness marker
	// rather than on exit.
	KindStart ScriptKind = "start"
)

// ScriptsDir is the per-server subfolder holding generated scripts.
const ScriptsDir = "EZHost"

// ErrTimeout is returned when a script exceeds the execution budget.
var ErrTimeout = errors.New("script execution timed out")

// ProcessError reports a script that failed to spawn or exited non-zero,
// with whatever it wrote to stderr attached.
type ProcessError struct {
	Script string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("script %s failed: %v: %s", e.Script, e.Err, e.Stderr)
	}
	return fmt.Sprintf("script %s failed: %v", e.Script, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Result is the outcome of a launch.
type Result struct {
	// Ready is true when the readiness marker was observed. The script
	// is still attached to the running server in that case.
	Ready bool
	// Output is the stdout captured up to the point the launch resolved.
	Output string
}

// Launcher spawns launch scripts with a per-launch execution budget.
// It holds no cross-launch state; the orchestrator gates concurrency by
// server status.
type Launcher struct {
	timeout time.Duration
	matcher Matcher
}

// New creates a Launcher. A zero timeout means no budget.
func New(timeout time.Duration, matcher Matcher) *Launcher {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	return &Launcher{timeout: timeout, matcher: matcher}
}

// Launch runs the script of the given kind from dir's scripts folder and
// blocks until one of: the readiness marker appears in stdout (Ready
// result, process left running), the script exits (success or
// ProcessError), the budget elapses (ErrTimeout, process killed), or ctx
// is cancelled.
func (l *Launcher) Launch(ctx context.Context, dir string, kind ScriptKind) (Result, error) {
	scriptPath := ScriptPath(dir, kind)
	cmd := platformCommand(scriptPath)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &ProcessError{Script: scriptPath, Err: err}
	}

	logger.Info("Executing script", map[string]interface{}{
		"script": scriptPath,
		"kind":   string(kind),
	})

	if err := cmd.Start(); err != nil {
		return Result{}, &ProcessError{Script: scriptPath, Err: err}
	}

	var (
		mu     sync.Mutex
		stdout bytes.Buffer
	)
	snapshot := func() string {
		mu.Lock()
		defer mu.Unlock()
		return stdout.String()
	}

	readyCh := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(stdoutPipe)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		notified := false
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			stdout.WriteString(line)
			stdout.WriteByte('\n')
			mu.Unlock()
			if !notified && l.matcher.Ready(line) {
				notified = true
				close(readyCh)
			}
		}
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var timeoutCh <-chan time.Time
	if l.timeout > 0 {
		// The timer must die the moment readiness or exit arrives, or a
		// stale expiry would flip an Online server back to Offline.
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case <-readyCh:
		logger.Info("Readiness marker observed", map[string]interface{}{
			"script": scriptPath,
		})
		return Result{Ready: true, Output: snapshot()}, nil

	case err := <-waitCh:
		if err != nil {
			return Result{}, &ProcessError{Script: scriptPath, Stderr: stderr.String(), Err: err}
		}
		return Result{Output: snapshot()}, nil

	case <-timeoutCh:
		logger.Error("Timeout executing script", ErrTimeout, map[string]interface{}{
			"script":  scriptPath,
			"timeout": l.timeout.String(),
		})
		_ = cmd.Process.Kill()
		return Result{}, fmt.Errorf("%w after %s: %s", ErrTimeout, l.timeout, scriptPath)

	case <-ctx.Done():
		_ = cmd.Process.Kill()
		return Result{}, ctx.Err()
	}
}

// ScriptPath resolves the on-disk path of a generated script.
func ScriptPath(dir string, kind ScriptKind) string {
	return filepath.Join(dir, ScriptsDir, string(kind)+scriptExt())
}

func scriptExt() string {
	if runtime.GOOS == "windows" {
		return ".ps1"
	}
	return ".sh"
}

func platformCommand(scriptPath string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.Command("powershell.exe", "-ExecutionPolicy", "Bypass", "-File", scriptPath)
	}
	return exec.Command("/bin/sh", scriptPath)
}
