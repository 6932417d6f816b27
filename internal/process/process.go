// Package process discovers and launches renderer helper processes. A
// launched helper speaks the ipc protocol on its standard input and output.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/creachadair/jrpc2/channel"
)

// RoleWebContent is the helper that renders page content.
const RoleWebContent = "WebContent"

// ErrNoCandidates is returned when Launch is given no paths to try.
var ErrNoCandidates = errors.New("no candidate helper paths")

// NetworkingMode selects the network stack a helper uses.
type NetworkingMode int

const (
	// NetworkingLagom routes requests through the bundled request server.
	NetworkingLagom NetworkingMode = iota
	// NetworkingSystem uses the platform network stack.
	NetworkingSystem
)

// String returns the mode name.
func (m NetworkingMode) String() string {
	switch m {
	case NetworkingLagom:
		return "lagom"
	case NetworkingSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Helper command line flags.
const (
	FlagProfile             = "--profile"
	FlagLayoutTestMode      = "--layout-test-mode"
	FlagUseLagomNetworking  = "--use-lagom-networking"
	FlagUseSystemNetworking = "--use-system-networking"
)

// LaunchRequest describes a helper to start.
type LaunchRequest struct {
	Role           string
	CandidatePaths []string

	EnableProfiling bool
	TestMode        bool
	Networking      NetworkingMode

	// Args are passed ahead of the generated flags.
	Args []string
	// Env is appended to the current environment.
	Env []string
	// Stderr receives the helper's diagnostics; nil means os.Stderr.
	Stderr io.Writer
}

func (r LaunchRequest) flags() []string {
	args := append([]string(nil), r.Args...)
	if r.EnableProfiling {
		args = append(args, FlagProfile)
	}
	if r.TestMode {
		args = append(args, FlagLayoutTestMode)
	}
	switch r.Networking {
	case NetworkingSystem:
		args = append(args, FlagUseSystemNetworking)
	default:
		args = append(args, FlagUseLagomNetworking)
	}
	return args
}

// drainTimeout bounds how long Exited waits for the helper's output to be
// read after the process itself has gone.
const drainTimeout = 500 * time.Millisecond

// Handle is a running helper process.
type Handle struct {
	cmd  *exec.Cmd
	ch   channel.Channel
	path string

	done    chan struct{}
	waitErr error
	once    sync.Once
}

// Launch starts the first candidate path that can be executed. Candidates
// that do not exist are skipped; any other start failure is returned.
func Launch(ctx context.Context, req LaunchRequest) (*Handle, error) {
	if len(req.CandidatePaths) == 0 {
		return nil, fmt.Errorf("launch %s: %w", req.Role, ErrNoCandidates)
	}

	var lastErr error
	for _, path := range req.CandidatePaths {
		h, err := start(ctx, path, req)
		if err == nil {
			return h, nil
		}
		lastErr = err
		if !errors.Is(err, os.ErrNotExist) {
			break
		}
	}
	return nil, fmt.Errorf("launch %s: %w", req.Role, lastErr)
}

func start(ctx context.Context, path string, req LaunchRequest) (*Handle, error) {
	cmd := exec.CommandContext(ctx, path, req.flags()...)
	killAfterParent(cmd)

	// The pipes belong to the Handle rather than to cmd, so Wait does not
	// close stdout under a reader that has not drained it.
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		closeAll(stdinR, stdinW)
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = req.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}

	// Start must precede Wait, otherwise the two race.
	err = cmd.Start()
	closeAll(stdinR, stdoutW)
	if err != nil {
		closeAll(stdinW, stdoutR)
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	if ctx.Err() != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		closeAll(stdinW, stdoutR)
		return nil, ctx.Err()
	}

	out := &eofReader{r: stdoutR, eof: make(chan struct{})}
	h := &Handle{
		cmd:  cmd,
		ch:   channel.Line(out, pipeEnds{in: stdinW, out: stdoutR}),
		path: path,
		done: make(chan struct{}),
	}
	go func() {
		h.waitErr = cmd.Wait()
		select {
		case <-out.eof:
		case <-time.After(drainTimeout):
		}
		close(h.done)
	}()
	return h, nil
}

// eofReader closes eof once the underlying reader stops producing data.
type eofReader struct {
	r    io.Reader
	once sync.Once
	eof  chan struct{}
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil {
		e.once.Do(func() { close(e.eof) })
	}
	return n, err
}

// pipeEnds writes to the helper's stdin. Closing it releases both of the
// parent's pipe ends.
type pipeEnds struct {
	in, out *os.File
}

func (p pipeEnds) Write(b []byte) (int, error) { return p.in.Write(b) }

func (p pipeEnds) Close() error {
	return errors.Join(p.in.Close(), p.out.Close())
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

// Channel returns the protocol channel to the helper.
func (h *Handle) Channel() channel.Channel { return h.ch }

// Exited is closed when the helper has exited for any reason and its
// output has been read to the end.
func (h *Handle) Exited() <-chan struct{} { return h.done }

// ExitErr returns the result of waiting for the helper. It is only
// meaningful after Exited is closed.
func (h *Handle) ExitErr() error {
	select {
	case <-h.done:
		return h.waitErr
	default:
		return nil
	}
}

// Pid returns the helper's process id.
func (h *Handle) Pid() int { return h.cmd.Process.Pid }

// Path returns the executable that was started.
func (h *Handle) Path() string { return h.path }

// Kill terminates the helper. Killing an exited helper is not an error.
func (h *Handle) Kill() error {
	var err error
	h.once.Do(func() {
		err = h.cmd.Process.Kill()
		if errors.Is(err, os.ErrProcessDone) {
			err = nil
		}
	})
	return err
}

// PathsForHelperProcess lists where the helper for role may live, most
// preferred first: next to the running executable, in a sibling libexec
// directory, then on PATH.
func PathsForHelperProcess(role string) ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return candidatePaths(filepath.Dir(exe), role), nil
}

func candidatePaths(appDir, role string) []string {
	name := strings.ToLower(role)
	paths := []string{
		filepath.Join(appDir, name),
		filepath.Join(appDir, "..", "libexec", name),
	}
	if p, err := exec.LookPath(name); err == nil {
		paths = append(paths, p)
	}
	return paths
}
