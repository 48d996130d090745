package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/zonerisk/internal/config"
	"github.com/theirongolddev/zonerisk/internal/daemon"
	"github.com/theirongolddev/zonerisk/internal/notify"
	"github.com/theirongolddev/zonerisk/internal/pipeline"
)

type serveRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Schedule  string    `json:"schedule"`
	Storage   string    `json:"storage"`
}

var (
	flagServeAddr         string
	flagServeSchedule     string
	flagServeDetach       bool
	flagServePIDFile      string
	flagServeLogFile      string
	flagServeEventsBuffer int
	flagServeRunOnStart   bool
	flagServeChild        bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the metrics daemon with scheduled recomputes and an HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runServeStop,
}

func init() {
	defaultPID := filepath.Join(config.DataDir(), "zoneriskd.pid")
	defaultLog := filepath.Join(config.DataDir(), "zoneriskd.log")

	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default serve.addr)")
	serveCmd.PersistentFlags().StringVar(&flagServePIDFile, "pid-file", defaultPID, "PID file path")
	serveCmd.PersistentFlags().StringVar(&flagServeLogFile, "log-file", defaultLog, "Log file path for detached mode")

	serveCmd.Flags().StringVar(&flagServeSchedule, "schedule", "", "Cron schedule for recomputes (default serve.schedule)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default serve.events_buffer)")
	serveCmd.Flags().BoolVar(&flagServeRunOnStart, "run-on-start", false, "Recompute once at startup")
	serveCmd.Flags().BoolVar(&flagServeDetach, "detach", false, "Run daemon as a background process")
	serveCmd.Flags().BoolVar(&flagServeChild, "child", false, "Internal: mark detached child process")
	_ = serveCmd.Flags().MarkHidden("child")

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

// serveConfig merges the [serve] section with flags.
func serveConfig() daemon.Config {
	dc := daemon.Config{
		Addr:         cfg.Serve.Addr,
		Schedule:     cfg.Serve.Schedule,
		EventsBuffer: cfg.Serve.EventsBuffer,
		ReportLimit:  cfg.Serve.ReportLimit,
		RunOnStart:   flagServeRunOnStart,
	}
	if flagServeAddr != "" {
		dc.Addr = flagServeAddr
	}
	if flagServeSchedule != "" {
		dc.Schedule = flagServeSchedule
	}
	if flagServeEventsBuffer > 0 {
		dc.EventsBuffer = flagServeEventsBuffer
	}
	return dc
}

func runServe(_ *cobra.Command, _ []string) error {
	if flagServeDetach && flagServeChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagServeDetach {
		return startServeDetached()
	}

	return runServeForeground()
}

func startServeDetached() error {
	if err := pidFile(flagServePIDFile).ensureFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagServePIDFile), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagServeLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagServeLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	addr := serveConfig().Addr
	fmt.Printf("  Started daemon (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", flagServePIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", addr)
	fmt.Printf("  Log: %s\n", flagServeLogFile)
	return nil
}

func runServeForeground() error {
	pf := pidFile(flagServePIDFile)
	if err := pf.ensureFree(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s, err := openStore(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	engine, err := pipeline.NewEngine(s, cfg.Weights, logger)
	if err != nil {
		return err
	}

	pub, err := notify.Open(ctx, cfg.Redis.URL, cfg.Redis.Channel)
	if err != nil {
		return err
	}
	defer func() { _ = pub.Close() }()

	dc := serveConfig()
	svc, err := daemon.New(dc, daemon.Deps{
		Runner:    engine,
		Querier:   s,
		Publisher: pub,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	err = pf.record(serveRuntimeState{
		PID:       os.Getpid(),
		Addr:      dc.Addr,
		StartedAt: time.Now(),
		Schedule:  dc.Schedule,
		Storage:   storeLabel(),
	})
	if err != nil {
		return err
	}
	defer pf.remove()

	fmt.Printf("  zonerisk daemon listening on http://%s\n", dc.Addr)
	fmt.Printf("  Recomputing on %q from %s\n", dc.Schedule, storeLabel())
	if cfg.Redis.URL != "" {
		fmt.Printf("  Publishing runs to %s\n", cfg.Redis.Channel)
	}
	fmt.Printf("  Stop with: zonerisk serve stop --pid-file %s\n", flagServePIDFile)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagServePIDFile)
	pid, err := pf.pid()
	if err != nil {
		fmt.Printf("  Daemon: not running (pid file not found)\n")
		return nil
	}

	alive := processAlive(pid)
	if !alive {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := serveConfig().Addr
	if st, err := pf.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status check
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Schedule: %s\n", st.Schedule)
	switch {
	case st.Running:
		fmt.Printf("  Last run: in progress\n")
	case st.LastRunAt.IsZero():
		fmt.Printf("  Last run: pending\n")
	default:
		fmt.Printf("  Last run: %s\n", st.LastRunAt.Local().Format(time.RFC3339))
	}
	if !st.NextRunAt.IsZero() {
		fmt.Printf("  Next run: %s\n", st.NextRunAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Runs: %d (%d failed)\n", st.RunCount, st.FailureCount)
	fmt.Printf("  Trips: %s\n", formatNumber(st.Summary.Trips))
	fmt.Printf("  Zone-hours: %s\n", formatNumber(st.Summary.ZoneHours))
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagServePIDFile)
	pid, err := pf.pid()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			pf.remove()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// pidFile tracks a running daemon through a pid file and a JSON state
// file next to it.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

// pid returns the recorded process id. A missing file reports
// os.ErrNotExist.
func (p pidFile) pid() (int, error) {
	data, err := os.ReadFile(string(p)) //nolint:gosec // pid path is chosen by the local user
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

func (p pidFile) record(st serveRuntimeState) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	// State is informational; a failed write only loses the address hint.
	_ = os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
	return nil
}

func (p pidFile) state() (serveRuntimeState, error) {
	var st serveRuntimeState
	data, err := os.ReadFile(p.statePath()) //nolint:gosec // state path is derived from the pid path
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

func (p pidFile) remove() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

// ensureFree fails if a live daemon owns the pid file and clears a stale one.
func (p pidFile) ensureFree() error {
	pid, err := p.pid()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	p.remove()
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
