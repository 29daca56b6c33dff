package cmd

import (
	"context"
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

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/estateplan/internal/cli"
	"github.com/theirongolddev/estateplan/internal/config"
	"github.com/theirongolddev/estateplan/internal/daemon"
	"github.com/theirongolddev/estateplan/internal/pipeline"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonWatch        bool
	flagDaemonLogJSON      bool
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch the cases directory and serve portfolio status over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and portfolio status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	pf.DurationVar(&flagDaemonInterval, "interval", 0, "Rescan interval (default from config)")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(pipeline.CacheDir(), "estateplan.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(pipeline.CacheDir(), "estateplan.log"), "Log file for detached mode")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	f := daemonCmd.Flags()
	f.BoolVar(&flagDaemonDetach, "detach", false, "Run the daemon in the background")
	f.BoolVar(&flagDaemonWatch, "watch", true, "Rescan on file changes as well as on the interval")
	f.BoolVar(&flagDaemonLogJSON, "log-json", false, "Write logs as JSON")
	f.BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = f.MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// resolveDaemonDefaults fills address and interval from config when the
// flags were left unset.
func resolveDaemonDefaults() {
	if flagDaemonAddr == "" {
		flagDaemonAddr = appConfig.Daemon.Addr
	}
	if flagDaemonAddr == "" {
		flagDaemonAddr = config.DefaultConfig().Daemon.Addr
	}
	if flagDaemonInterval <= 0 {
		if d, err := time.ParseDuration(appConfig.Daemon.Interval); err == nil && d > 0 {
			flagDaemonInterval = d
		} else {
			flagDaemonInterval = 15 * time.Second
		}
	}
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("--detach and --child are mutually exclusive")
	}
	resolveDaemonDefaults()

	pf := pidFile(flagDaemonPIDFile)
	if err := pf.claim(); err != nil {
		return err
	}
	if flagDaemonDetach {
		return spawnDetached(pf)
	}
	return serveForeground(pf)
}

// spawnDetached re-executes this binary as a child with output sent to the
// daemon log file.
func spawnDetached(pf pidFile) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	args := append(withoutDetach(os.Args[1:]), "--child")
	child := exec.Command(exe, args...) //nolint:gosec // re-executes the current binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Status: http://%s/v1/status\n", flagDaemonAddr)
	fmt.Printf("  PID file: %s\n", pf)
	fmt.Printf("  Log: %s\n", flagDaemonLogFile)
	return nil
}

func serveForeground(pf pidFile) error {
	info := daemonInfo{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		StartedAt: time.Now().UTC(),
		CasesDir:  flagCasesDir,
	}
	if err := pf.write(info); err != nil {
		return err
	}
	defer pf.remove()

	svc := daemon.New(daemon.Config{
		CasesDir:             flagCasesDir,
		FallbackJurisdiction: config.GetDefaultJurisdiction(appConfig),
		IncludeFederal:       includeFederal(),
		JurisdictionFilter:   flagJurisdiction,
		PlanFilter:           flagPlan,
		UseCache:             !flagNoCache,
		CachePath:            pipeline.CachePath(),
		Interval:             flagDaemonInterval,
		Watch:                flagDaemonWatch,
		Addr:                 flagDaemonAddr,
		EventsBuffer:         flagDaemonEventsBuffer,
		Logger:               newLogger(flagDaemonLogJSON),
	})

	fmt.Printf("  estateplan daemon listening on http://%s\n", flagDaemonAddr)
	fmt.Printf("  Rescanning %s every %s (watch: %v)\n", flagCasesDir, flagDaemonInterval, flagDaemonWatch)
	fmt.Printf("  Stop with: estateplan daemon stop --pid-file %s\n", pf)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	resolveDaemonDefaults()
	pf := pidFile(flagDaemonPIDFile)

	pid, err := pf.pid()
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	if info, err := pf.info(); err == nil && info.Addr != "" {
		addr = info.Addr
	}
	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchDaemonStatus(addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Println("  Last scan: pending")
	} else {
		fmt.Printf("  Last scan: %s (%d total)\n", st.LastPollAt.Local().Format(time.RFC3339), st.PollCount)
	}
	fmt.Printf("  Watching: %s\n", cli.FormatYesNo(st.Watching))
	fmt.Printf("  Cases: %s in %s\n", cli.FormatNumber(int64(st.Summary.Cases)), st.CasesDir)
	fmt.Printf("  Gross estate: %s\n", cli.FormatCurrency(st.Summary.TotalEstate))
	fmt.Printf("  Tax without plan: %s\n", cli.FormatCurrency(st.Summary.TaxNoPlan))
	fmt.Printf("  Plan savings: %s\n", cli.FormatCurrency(st.Summary.Savings))
	if st.Summary.CombinedTax > 0 {
		fmt.Printf("  State + federal: %s\n", cli.FormatCurrency(st.Summary.CombinedTax))
	}
	if st.Summary.FileErrors > 0 {
		fmt.Printf("  Unreadable files: %d\n", st.Summary.FileErrors)
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	pf := pidFile(flagDaemonPIDFile)
	pid, err := pf.pid()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon: %w", err)
	}

	for deadline := time.Now().Add(8 * time.Second); time.Now().Before(deadline); {
		if !processAlive(pid) {
			pf.remove()
			fmt.Printf("  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func withoutDetach(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// daemonInfo is written next to the pid file so status can find the
// listen address of a daemon started with different flags.
type daemonInfo struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	CasesDir  string    `json:"cases_dir"`
}

// pidFile is the path of the daemon pid file. A sibling ".json" file holds
// the daemonInfo.
type pidFile string

func (p pidFile) String() string   { return string(p) }
func (p pidFile) infoPath() string { return string(p) + ".json" }

// claim fails when a live daemon owns the pid file and clears a stale one.
func (p pidFile) claim() error {
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

func (p pidFile) pid() (int, error) {
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

func (p pidFile) write(info daemonInfo) error {
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.WriteFile(string(p), []byte(strconv.Itoa(info.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.infoPath(), append(data, '\n'), 0o600)
}

func (p pidFile) info() (daemonInfo, error) {
	var info daemonInfo
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(p.infoPath())
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

func (p pidFile) remove() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.infoPath())
}
