package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oszuidwest/zwfm-ledsync/internal/audio"
	"github.com/oszuidwest/zwfm-ledsync/internal/config"
	"github.com/oszuidwest/zwfm-ledsync/internal/engine"
	"github.com/oszuidwest/zwfm-ledsync/internal/server"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// WebSocket push rates.
const (
	snapshotInterval = time.Second / 30
	statusInterval   = 3 * time.Second
	writeTimeout     = 5 * time.Second
)

// Server is an HTTP server that provides the web monitor for the analyzer.
type Server struct {
	config   *config.Config
	engine   *engine.Engine
	sessions *server.SessionManager
	commands *server.CommandHandler
	version  *VersionChecker
}

// NewServer returns a new Server configured with the provided config and
// engine. The version checker runs until ctx is done.
func NewServer(ctx context.Context, cfg *config.Config, eng *engine.Engine) *Server {
	return &Server{
		config:   cfg,
		engine:   eng,
		sessions: server.NewSessionManager(),
		commands: server.NewCommandHandler(cfg, eng),
		version:  NewVersionChecker(ctx),
	}
}

// handleWebSocket streams live snapshots and periodic status to the client
// and processes its commands.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := server.UpgradeConnection(w, r)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer util.SafeCloseFunc(conn, "WebSocket connection")()

	statusUpdate := make(chan struct{}, 1)
	replies := make(chan any, 8)
	done := make(chan struct{})

	// Command replies are funneled through this loop; the connection
	// supports only one concurrent writer.
	reply := func(v any) {
		select {
		case replies <- v:
		case <-done:
		}
	}

	go func() {
		defer close(done)
		for {
			var cmd server.WSCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			s.commands.Handle(cmd, reply, func() {
				select {
				case statusUpdate <- struct{}{}:
				default:
				}
			})
		}
	}()

	snapshotTicker := time.NewTicker(snapshotInterval)
	statusTicker := time.NewTicker(statusInterval)
	defer snapshotTicker.Stop()
	defer statusTicker.Stop()

	write := func(v any) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(v)
	}

	if err := write(s.statusMessage()); err != nil {
		return
	}

	for {
		var msg any
		select {
		case <-done:
			return
		case <-statusUpdate:
			msg = s.statusMessage()
		case <-statusTicker.C:
			msg = s.statusMessage()
		case v := <-replies:
			msg = v
		case <-snapshotTicker.C:
			msg = map[string]any{
				"type":     "snapshot",
				"snapshot": s.engine.Snapshot(),
			}
		}
		if err := write(msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket write failed", "error", err)
			}
			return
		}
	}
}

// statusMessage builds the periodic status payload.
func (s *Server) statusMessage() map[string]any {
	cfg := s.config.Snapshot()
	return map[string]any{
		"type":    "status",
		"engine":  s.engine.Status(),
		"devices": audio.ListDevices(),
		"settings": map[string]any{
			"audio_input":       cfg.AudioInput,
			"app":               cfg.App,
			"detection_mode":    cfg.Mode,
			"sensitivity":       cfg.Sensitivity,
			"peaks_sensitivity": cfg.PeaksSensitivity,
			"curve":             cfg.Curve,
			"standby_threshold": cfg.StandbyThreshold,
			"standby_duration":  cfg.StandbyDuration,
			"standby_recovery":  cfg.StandbyRecovery,
			"webhook_url":       cfg.WebhookURL,
			"log_path":          cfg.LogPath,
			"email_smtp_host":   cfg.EmailSMTPHost,
			"email_smtp_port":   cfg.EmailSMTPPort,
			"email_from_name":   cfg.EmailFromName,
			"email_username":    cfg.EmailUsername,
			"email_recipients":  cfg.EmailRecipients,
			"platform":          runtime.GOOS,
		},
		"version": s.version.Info(),
	}
}

// handleSnapshot serves the latest snapshot as JSON for LED renderers that
// poll instead of holding a WebSocket open.
func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.engine.Snapshot())
}

// handleStatus serves the engine status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.engine.Status())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// handleLogin serves the login form and processes submitted credentials.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderLogin(w, http.StatusOK, "")
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderLogin(w, http.StatusBadRequest, "Invalid request")
			return
		}
		if !s.sessions.ValidateCSRFToken(r.PostFormValue("csrf_token")) {
			s.renderLogin(w, http.StatusForbidden, "Session expired, please try again")
			return
		}

		cfg := s.config.Snapshot()
		if !s.sessions.Login(w, r, r.PostFormValue("username"), r.PostFormValue("password"), cfg.WebUser, cfg.WebPassword) {
			slog.Warn("failed login attempt", "remote", r.RemoteAddr)
			s.renderLogin(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, message string) {
	page := strings.Replace(loginHTML, "{{CSRF_TOKEN}}", s.sessions.CreateCSRFToken(), 1)
	page = strings.Replace(page, "{{ERROR}}", html.EscapeString(message), 1)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(page)); err != nil {
		slog.Error("failed to write login page", "error", err)
	}
}

// handleLogout ends the session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(w, r)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SetupRoutes returns an [http.Handler] configured with all application routes.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	auth := s.sessions.RequireSession

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("/ws", auth(s.handleWebSocket))
	mux.HandleFunc("GET /api/snapshot", auth(s.handleSnapshot))
	mux.HandleFunc("GET /api/status", auth(s.handleStatus))

	mux.HandleFunc("/", auth(s.handleStatic))

	return mux
}

// staticFile represents an embedded static file with its content type and content.
type staticFile struct {
	contentType string
	content     string
	name        string
}

// staticFiles maps URL paths to their corresponding static file definitions.
var staticFiles = map[string]staticFile{
	"/style.css": {
		contentType: "text/css; charset=utf-8",
		content:     styleCSS,
		name:        "style.css",
	},
	"/app.js": {
		contentType: "application/javascript; charset=utf-8",
		content:     appJS,
		name:        "app.js",
	},
}

// handleStatic serves the embedded static web interface files.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" || path == "/index.html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		page := strings.ReplaceAll(indexHTML, "{{VERSION}}", html.EscapeString(Version))
		page = strings.ReplaceAll(page, "{{YEAR}}", fmt.Sprintf("%d", time.Now().Year()))
		if _, err := w.Write([]byte(page)); err != nil {
			slog.Error("failed to write index.html", "error", err)
		}
		return
	}

	if file, ok := staticFiles[path]; ok {
		w.Header().Set("Content-Type", file.contentType)
		if _, err := w.Write([]byte(file.content)); err != nil {
			slog.Error("failed to write static file", "file", file.name, "error", err)
		}
		return
	}

	http.NotFound(w, r)
}

// Start begins listening and serving HTTP requests on the configured port.
// Returns an *http.Server that can be used for graceful shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.config.WebPort())
	slog.Info("starting web server", "addr", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	return srv
}
