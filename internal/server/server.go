// Package server implements the development server: a static file server
// over the build output with clean-URL resolution, a filesystem watcher that
// drives incremental rebuilds, and websocket-based live reload. It is a
// consumer of the build API, not part of the build pipeline.
package server

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures the development server.
type Options struct {
	Host         string
	Port         int
	OutputDir    string
	WatchDirs    []string
	NoLiveReload bool
}

// Server serves the output directory and rebuilds on change.
type Server struct {
	opts    Options
	log     *zap.Logger
	hub     *Hub
	watcher *Watcher
	httpSrv *http.Server
}

// New creates a Server. rebuild is invoked (debounced) whenever a watched
// path changes; the server broadcasts a reload to connected clients after.
func New(opts Options, rebuild func() error, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		opts: opts,
		log:  log,
		hub:  NewHub(),
	}
	s.watcher = NewWatcher(opts.WatchDirs, 250*time.Millisecond, func() {
		if err := rebuild(); err != nil {
			log.Warn("rebuild failed", zap.Error(err))
			return
		}
		s.hub.Broadcast([]byte("reload"))
	})
	return s
}

// Start runs the HTTP server, hub, and watcher until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run()
	go func() {
		if err := s.watcher.Start(); err != nil {
			s.log.Warn("watcher stopped", zap.Error(err))
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/__bengal/ws", s.hub.HandleWS)
	mux.HandleFunc("/", s.handleRequest)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		s.watcher.Stop()
		s.hub.Stop()
	}()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.log.Info("serving", zap.String("addr", "http://"+addr))

	if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// handleRequest serves files with clean-URL resolution and live-reload
// script injection for HTML responses.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	filePath := s.resolvePath(r.URL.Path)
	if filePath == "" {
		s.handleNotFound(w)
		return
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		s.handleNotFound(w)
		return
	}

	ext := filepath.Ext(filePath)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !s.opts.NoLiveReload && (ext == ".html" || strings.Contains(contentType, "text/html")) {
		data = InjectLiveReload(data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(data)
}

// resolvePath maps a URL path onto the output tree, trying the file itself,
// <path>.html, and <path>/index.html.
func (s *Server) resolvePath(urlPath string) string {
	cleaned := filepath.Clean(urlPath)
	if strings.Contains(cleaned, "..") {
		return ""
	}
	full := filepath.Join(s.opts.OutputDir, filepath.FromSlash(cleaned))

	if info, err := os.Stat(full); err == nil {
		if !info.IsDir() {
			return full
		}
		index := filepath.Join(full, "index.html")
		if _, err := os.Stat(index); err == nil {
			return index
		}
		return ""
	}
	if _, err := os.Stat(full + ".html"); err == nil {
		return full + ".html"
	}
	index := filepath.Join(full, "index.html")
	if _, err := os.Stat(index); err == nil {
		return index
	}
	return ""
}

func (s *Server) handleNotFound(w http.ResponseWriter) {
	data, err := os.ReadFile(filepath.Join(s.opts.OutputDir, "404.html"))
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(data)
}
