package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"slices"
	"strconv"
	"time"

	"github.com/olehluchkiv/bugtree/internal/bug"
	"github.com/olehluchkiv/bugtree/internal/diagram"
	"github.com/olehluchkiv/bugtree/internal/report"
	"github.com/olehluchkiv/bugtree/internal/tree"
)

// Source is the tree being served.
type Source struct {
	Title string // shown in the page heading, usually the analyzed input
	RunID string
	Model *tree.Model
}

// Server renders one bug tree over HTTP. Requests never modify the source
// model; regrouping builds a fresh model per request.
type Server struct {
	src    Source
	tmpl   *template.Template
	logger *slog.Logger
}

// New prepares a server for src.
func New(src Source, logger *slog.Logger) (*Server, error) {
	if src.Model == nil {
		return nil, errors.New("server: nil model")
	}
	tmpl, err := template.New("tree").Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML template: %w", err)
	}
	return &Server{src: src, tmpl: tmpl, logger: logger.With("component", "server")}, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /tree.json", s.handleTree)
	mux.HandleFunc("GET /mermaid.md", s.handleMermaid)
	return mux
}

type presetLink struct {
	Name   bug.GroupBy
	Active bool
}

type pageData struct {
	Title   string
	RunID   string
	Summary string
	Query   string
	Presets []presetLink
	View    tree.View
	Slides  []diagram.Slide
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
	view, ok := s.view(w, r)
	if !ok {
		return
	}

	data := pageData{
		Title:   s.src.Title,
		RunID:   s.src.RunID,
		Summary: summary(view),
		View:    view,
		Slides:  diagram.BuildSlides(view, diagram.DefaultDiagramOptions(), diagram.DefaultSlideOptions()),
	}
	if r.URL.RawQuery != "" {
		data.Query = "?" + r.URL.RawQuery
	}
	for _, g := range bug.AllGroupBy {
		data.Presets = append(data.Presets, presetLink{
			Name:   g,
			Active: slices.Equal(bug.SortOrder(g), view.GroupBy),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("failed to render template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := report.JSON(w, view); err != nil {
		s.logger.Error("failed to encode tree", "error", err)
	}
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("request received", "method", r.Method, "path", r.URL.Path)
	view, ok := s.view(w, r)
	if !ok {
		return
	}

	if g := r.URL.Query().Get("group"); g != "" {
		i, err := strconv.Atoi(g)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid group %q", g), http.StatusBadRequest)
			return
		}
		sub, found := diagram.Subview(view, i)
		if !found {
			http.Error(w, fmt.Sprintf("no top-level group %d", i), http.StatusNotFound)
			return
		}
		view = sub
	}

	opts := diagram.DefaultDiagramOptions()
	opts.IncludeInit = true
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(diagram.GenerateMermaid(view, opts)))
}

// view returns the tree for r, regrouped when r carries group_by. It writes a
// 400 response and reports false when group_by is invalid.
func (s *Server) view(w http.ResponseWriter, r *http.Request) (tree.View, bool) {
	param := r.URL.Query().Get("group_by")
	if param == "" {
		return s.src.Model.Snapshot(), true
	}

	groupBy, err := bug.ParseGroupBy(param)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return tree.View{}, false
	}
	m, err := tree.NewModel(groupBy, s.logger)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return tree.View{}, false
	}
	for _, b := range s.src.Model.Bugs() {
		if err := m.Add(b); err != nil {
			s.logger.Error("regroup failed", "group_by", param, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return tree.View{}, false
		}
	}
	return m.Snapshot(), true
}

func summary(view tree.View) string {
	return fmt.Sprintf("%d findings grouped by %s", view.Total, bug.FormatGroupBy(view.GroupBy))
}

// Serve starts the HTTP server for src.
// It blocks until the context is cancelled.
func Serve(ctx context.Context, src Source, port int, openBrowser bool, logger *slog.Logger) error {
	s, err := New(src, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", port, err)
	}
	return s.serve(ctx, ln, openBrowser)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, openBrowser bool) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)
	s.logger.Info("starting HTTP server", "addr", url, "findings", s.src.Model.Len())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(errCh)
	}()

	if openBrowser {
		openInBrowser(url, s.logger)
	}

	// Block until the context is cancelled or the server fails.
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}

// openInBrowser opens the given URL in the default system browser.
func openInBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		logger.Warn("unsupported platform for opening browser", "os", runtime.GOOS)
		return
	}

	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "error", err)
	}
}
