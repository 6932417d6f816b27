package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/internal/ipc/ipctest"
)

const helperEnv = "GO_LADYBIRD_TEST_HELPER"

// burstLines is how many messages the burst helper writes before exiting.
const burstLines = 200

// TestMain turns the test binary into a helper when helperEnv is set.
func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		runHelper(mode)
		return
	}
	os.Exit(m.Run())
}

// echoRenderer answers load-url with the command line it was started with.
type echoRenderer struct {
	*ipctest.Renderer
	notifier *ipc.Notifier
	ready    chan struct{}
}

func (r *echoRenderer) LoadURL(ctx context.Context, p ipc.LoadURLParams) error {
	<-r.ready
	if err := r.notifier.DidChangeTitle(ctx, strings.Join(os.Args[1:], " ")); err != nil {
		return err
	}
	return r.notifier.DidFinishLoad(ctx, p.URL)
}

func runHelper(mode string) {
	switch mode {
	case "exit":
		os.Exit(3)
	case "burst":
		for i := 0; i < burstLines; i++ {
			fmt.Fprintf(os.Stdout, "{\"seq\":%d}\n", i)
		}
		os.Exit(0)
	}
	r := &echoRenderer{Renderer: ipctest.NewRenderer(), ready: make(chan struct{})}
	srv := ipc.NewServer(r, nil).Start(channel.Line(os.Stdin, os.Stdout))
	r.notifier = ipc.NewNotifier(srv)
	close(r.ready)
	_ = srv.Wait()
	os.Exit(0)
}

func TestNetworkingMode_String(t *testing.T) {
	tests := []struct {
		mode NetworkingMode
		want string
	}{
		{NetworkingLagom, "lagom"},
		{NetworkingSystem, "system"},
		{NetworkingMode(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("NetworkingMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestLaunchRequest_Flags(t *testing.T) {
	tests := []struct {
		name string
		req  LaunchRequest
		want []string
	}{
		{
			name: "defaults",
			req:  LaunchRequest{},
			want: []string{FlagUseLagomNetworking},
		},
		{
			name: "everything",
			req: LaunchRequest{
				Args:            []string{"-v"},
				EnableProfiling: true,
				TestMode:        true,
				Networking:      NetworkingSystem,
			},
			want: []string{"-v", FlagProfile, FlagLayoutTestMode, FlagUseSystemNetworking},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.req.flags()
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("flags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidatePaths(t *testing.T) {
	paths := candidatePaths("/opt/ladybird/bin", RoleWebContent)
	if len(paths) < 2 {
		t.Fatalf("got %d paths, want at least 2", len(paths))
	}
	if paths[0] != "/opt/ladybird/bin/webcontent" {
		t.Errorf("paths[0] = %q", paths[0])
	}
	if paths[1] != filepath.Clean("/opt/ladybird/libexec/webcontent") {
		t.Errorf("paths[1] = %q", paths[1])
	}
}

func TestPathsForHelperProcess(t *testing.T) {
	paths, err := PathsForHelperProcess(RoleWebContent)
	if err != nil {
		t.Fatalf("PathsForHelperProcess: %v", err)
	}
	exe, _ := os.Executable()
	if want := filepath.Join(filepath.Dir(exe), "webcontent"); paths[0] != want {
		t.Errorf("paths[0] = %q, want %q", paths[0], want)
	}
}

func TestLaunch_NoCandidates(t *testing.T) {
	_, err := Launch(context.Background(), LaunchRequest{Role: RoleWebContent})
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("err = %v, want ErrNoCandidates", err)
	}
}

func TestLaunch_AllMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Launch(context.Background(), LaunchRequest{
		Role:           RoleWebContent,
		CandidatePaths: []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")},
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestLaunch_SpeaksProtocol(t *testing.T) {
	h, err := Launch(context.Background(), LaunchRequest{
		Role:           RoleWebContent,
		CandidatePaths: []string{filepath.Join(t.TempDir(), "missing"), os.Args[0]},
		TestMode:       true,
		Networking:     NetworkingSystem,
		Env:            []string{helperEnv + "=echo"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer h.Kill()

	if h.Path() != os.Args[0] {
		t.Errorf("Path() = %q, want %q", h.Path(), os.Args[0])
	}
	if h.Pid() <= 0 {
		t.Errorf("Pid() = %d", h.Pid())
	}

	notes := make(chan ipc.Notification, 4)
	conn := ipc.NewConn(h.Channel(), ipc.ConnOptions{
		OnNotify: func(n ipc.Notification) { notes <- n },
	})
	defer conn.Close()

	if err := conn.LoadURL(context.Background(), "about:blank"); err != nil {
		t.Fatalf("LoadURL: %v", err)
	}

	var title ipc.TitleParams
	select {
	case n := <-notes:
		if n.Method != ipc.NotifyDidChangeTitle {
			t.Fatalf("first notification = %s", n.Method)
		}
		if err := n.Decode(&title); err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply from helper")
	}
	if !strings.Contains(title.Title, FlagLayoutTestMode+" "+FlagUseSystemNetworking) {
		t.Errorf("helper args = %q", title.Title)
	}

	if err := h.Kill(); err != nil {
		t.Errorf("Kill: %v", err)
	}
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("helper did not exit after Kill")
	}
	if err := h.Kill(); err != nil {
		t.Errorf("second Kill: %v", err)
	}
}

func TestLaunch_ExitIsObserved(t *testing.T) {
	h, err := Launch(context.Background(), LaunchRequest{
		Role:           RoleWebContent,
		CandidatePaths: []string{os.Args[0]},
		Env:            []string{helperEnv + "=exit"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("helper exit not observed")
	}
	var exitErr *exec.ExitError
	if !errors.As(h.ExitErr(), &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("ExitErr() = %v, want exit status 3", h.ExitErr())
	}
}

func TestLaunch_OutputIsReadBeforeExit(t *testing.T) {
	h, err := Launch(context.Background(), LaunchRequest{
		Role:           RoleWebContent,
		CandidatePaths: []string{os.Args[0]},
		Env:            []string{helperEnv + "=burst"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	defer h.Channel().Close()

	var (
		mu   sync.Mutex
		seen int
	)
	go func() {
		for {
			if _, err := h.Channel().Recv(); err != nil {
				return
			}
			mu.Lock()
			seen++
			mu.Unlock()
		}
	}()

	select {
	case <-h.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("helper exit not observed")
	}
	mu.Lock()
	got := seen
	mu.Unlock()
	if got != burstLines {
		t.Errorf("read %d messages before Exited, want %d", got, burstLines)
	}
	if err := h.ExitErr(); err != nil {
		t.Errorf("ExitErr() = %v", err)
	}
}
