// Package main implements ledsync, a daemon that captures the system's
// loopback audio and turns it into band intensities and onset events for
// LED renderers.
//
// Usage:
//
//	ledsync [run] [--config path/to/config.json]
//	ledsync monitor
//	ledsync devices
//	ledsync version
//
// If --config is not specified, ledsync looks for config.json in the same
// directory as the binary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/oszuidwest/zwfm-ledsync/internal/audio"
	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/engine"
	"github.com/oszuidwest/zwfm-ledsync/internal/ui"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `short:"c" type:"path" help:"Path to config file, JSON or YAML (default: config.json next to the binary)."`
	LogLevel string `default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})."`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Run     RunCmd     `cmd:"" default:"withargs" help:"Run the analyzer with the web monitor (default)."`
	Monitor MonitorCmd `cmd:"" help:"Run the analyzer with a terminal monitor."`
	Devices DevicesCmd `cmd:"" help:"List audio capture sources."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ledsync"),
		kong.Description("Real-time audio analysis for LED lighting"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

// setupLogging installs the default slog handler writing to w.
func (g *Globals) setupLogging(w io.Writer) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig resolves the config path and loads it.
func (g *Globals) loadConfig() (*config.Config, error) {
	path := g.Config
	if path == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, util.WrapError("get executable path", err)
		}
		path = filepath.Join(filepath.Dir(execPath), "config.json")
	}

	slog.Info("using config file", "path", path)

	cfg := config.New(path)
	if err := cfg.Load(); err != nil {
		return nil, util.WrapError("load config", err)
	}
	return cfg, nil
}

// RunCmd runs the engine and the web server until interrupted.
type RunCmd struct{}

// Run executes the run command.
func (c *RunCmd) Run(g *Globals) error {
	g.setupLogging(os.Stderr)

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), util.ShutdownSignals()...)
	defer stop()

	eng := engine.New(cfg)
	srv := NewServer(ctx, cfg, eng)

	slog.Info("starting engine", "version", Version, "commit", Commit)
	if err := eng.Start(); err != nil {
		// The web monitor stays up so the source can be fixed and restarted.
		slog.Error("failed to start engine", "error", err)
	}

	httpServer := srv.Start()

	go func() {
		if err := cfg.Watch(ctx, func() { restartOnChange(eng) }); err != nil {
			slog.Warn("config file changes will not be picked up", "error", err)
		}
	}()
	go reloadOnSignal(ctx, cfg, eng)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := eng.Stop(); err != nil {
		slog.Error("error stopping engine", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// restartOnChange restarts a running engine so that it rebuilds its
// pipeline from the current configuration.
func restartOnChange(eng *engine.Engine) {
	if !eng.IsRunning() {
		return
	}
	if err := eng.Restart(); err != nil {
		slog.Error("failed to restart engine after config change", "error", err)
	}
}

// reloadOnSignal re-reads the config file whenever a reload signal
// arrives (SIGHUP on Unix).
func reloadOnSignal(ctx context.Context, cfg *config.Config, eng *engine.Engine) {
	sigs := util.ReloadSignals()
	if len(sigs) == 0 {
		return
	}
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, sigs...)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			changed, err := cfg.Reload()
			if err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			slog.Info("config reloaded on signal", "changed", changed)
			if changed {
				restartOnChange(eng)
			}
		}
	}
}

// MonitorCmd runs the engine with the terminal monitor.
type MonitorCmd struct {
	LogFile string `type:"path" help:"Write logs to this file while the monitor runs (default: discard)."`
}

// Run executes the monitor command.
func (c *MonitorCmd) Run(g *Globals) error {
	logOut := io.Discard
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return util.WrapError("open log file", err)
		}
		defer util.SafeCloseFunc(f, "log file")()
		logOut = f
	}
	g.setupLogging(logOut)

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	eng := engine.New(cfg)
	if err := eng.Start(); err != nil {
		return util.WrapError("start engine", err)
	}
	defer func() {
		if err := eng.Stop(); err != nil {
			slog.Error("error stopping engine", "error", err)
		}
	}()

	p := tea.NewProgram(ui.NewModel(eng), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return util.WrapError("run monitor", err)
	}
	return nil
}

// DevicesCmd lists capture sources and flags the loopback ones.
type DevicesCmd struct{}

// Run executes the devices command.
func (c *DevicesCmd) Run(g *Globals) error {
	g.setupLogging(os.Stderr)

	devices := audio.ListDevices()
	if len(devices) == 0 {
		fmt.Println("No audio sources found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOOPBACK")
	for _, d := range devices {
		loopback := ""
		if d.Loopback {
			loopback = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, loopback)
	}
	return w.Flush()
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run() error {
	fmt.Println(versionString())
	return nil
}
