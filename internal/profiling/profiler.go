// Package profiling writes CPU and heap profiles for the shell and the
// renderer helper using runtime/pprof.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"sync"
)

var (
	// ErrRunning is returned by Start on a running profiler.
	ErrRunning = errors.New("profiler is already running")
	// ErrNotRunning is returned by Stop on a stopped profiler.
	ErrNotRunning = errors.New("profiler is not running")
)

// Config selects the profiles to write. Empty paths disable that profile.
type Config struct {
	CPUProfilePath string
	MemProfilePath string
}

// Enabled reports whether any profile is configured.
func (c Config) Enabled() bool {
	return c.CPUProfilePath != "" || c.MemProfilePath != ""
}

// ForProcess returns a Config writing both profiles into dir, named after
// role and pid, for example "webcontent-4242.cpu.pprof". An empty dir
// uses os.TempDir.
func ForProcess(dir, role string, pid int) Config {
	if dir == "" {
		dir = os.TempDir()
	}
	base := fmt.Sprintf("%s-%d", strings.ToLower(role), pid)
	return Config{
		CPUProfilePath: filepath.Join(dir, base+".cpu.pprof"),
		MemProfilePath: filepath.Join(dir, base+".heap.pprof"),
	}
}

// Profiler runs one profiling session at a time.
type Profiler struct {
	config  Config
	cpuFile *os.File
	running bool
	mu      sync.Mutex
}

// New creates a Profiler. Call Start to begin.
func New(config Config) *Profiler {
	return &Profiler{config: config}
}

// Config returns the profiler's configuration.
func (p *Profiler) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// Start begins CPU profiling when a CPU profile path is configured.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrRunning
	}
	if p.config.CPUProfilePath != "" {
		f, err := os.Create(p.config.CPUProfilePath)
		if err != nil {
			return fmt.Errorf("create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("start CPU profile: %w", err)
		}
		p.cpuFile = f
	}
	p.running = true
	return nil
}

// Stop ends CPU profiling and writes the heap profile, if configured.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return ErrNotRunning
	}
	p.running = false

	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close CPU profile: %w", err))
		}
		p.cpuFile = nil
	}
	if p.config.MemProfilePath != "" {
		if err := WriteHeapProfile(p.config.MemProfilePath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsRunning returns true if the profiler is currently running.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile collects garbage and writes a heap profile to path.
func WriteHeapProfile(path string) error {
	runtime.GC()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer f.Close()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	return nil
}
