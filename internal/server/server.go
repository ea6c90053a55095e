// Package server exposes the board over HTTP: a JSON API under /api for
// remote clients and a server-rendered board page for browsers.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"kanban-cli/internal/backend"
	"kanban-cli/internal/board"
)

// Version is reported by the health endpoint so probing clients can tell
// what they reached.
const Version = "0.1.0"

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type Server struct {
	store  *backend.Facade
	logger *log.Logger
	tmpl   *template.Template
	hub    *hub
}

func New(store *backend.Facade, logger *log.Logger) (*Server, error) {
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"markdown": renderMarkdownHTML,
		"trim":     strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		store:  store,
		logger: logger,
		tmpl:   tmpl,
		hub:    newHub(logger),
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tasks", s.handleTasksList)
	mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	mux.HandleFunc("PATCH /api/tasks", s.handleTaskBatchUpdate)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleTaskUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)
	mux.HandleFunc("GET /api/tags/suggestions", s.handleTagSuggestions)
	mux.HandleFunc("GET /api/settings", s.handleSettingsGet)
	mux.HandleFunc("PATCH /api/settings", s.handleSettingsUpdate)
	mux.HandleFunc("GET /api/watch", s.handleWatch)
	mux.HandleFunc("GET /static/board.css", s.handleBoardCSS)
	mux.HandleFunc("GET /static/board.js", s.handleBoardJS)
	mux.HandleFunc("GET /", s.handleBoard)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backend.Health{
		Available: true,
		Server:    "kanban-cli/" + Version,
	})
}

func (s *Server) handleTasksList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.GetAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []board.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var draft board.TaskDraft
	if err := decodeBody(r, &draft); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if draft.Status == "" {
		http.Error(w, "missing status", http.StatusBadRequest)
		return
	}
	if !draft.Status.Valid() {
		http.Error(w, "unknown status "+string(draft.Status), http.StatusBadRequest)
		return
	}
	created, err := s.store.Create(r.Context(), draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.notify()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch board.TaskPatch
	if err := decodeBody(r, &patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		http.Error(w, "unknown status "+string(*patch.Status), http.StatusBadRequest)
		return
	}
	updated, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.notify()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTaskBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var patches map[string]board.TaskPatch
	if err := decodeBody(r, &patches); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := s.store.BatchUpdate(r.Context(), patches)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if updated == nil {
		updated = []board.Task{}
	}
	s.hub.notify()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ok {
		s.hub.notify()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}

func (s *Server) handleTagSuggestions(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.TagSuggestions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var patch board.SettingsPatch
	if err := decodeBody(r, &patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	settings, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.notify()
	writeJSON(w, http.StatusOK, settings)
}

// boardVM feeds the server-rendered page.
type boardVM struct {
	Columns  []columnVM
	Settings board.Settings
	Mode     backend.Mode
	ReadOnly bool
	Version  string
}

type columnVM struct {
	Status board.Status
	Title  string
	Tasks  []board.Task
}

var columnTitles = map[board.Status]string{
	board.StatusTodo:       "To Do",
	board.StatusInProgress: "In Progress",
	board.StatusDone:       "Done",
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	tasks, err := s.store.GetAll(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	grouped := board.ByStatus(tasks)
	vm := boardVM{
		Settings: settings,
		Mode:     s.store.Mode(),
		ReadOnly: s.store.Mode() == backend.ModeReadOnly,
		Version:  Version,
	}
	for _, status := range board.Statuses {
		vm.Columns = append(vm.Columns, columnVM{
			Status: status,
			Title:  columnTitles[status],
			Tasks:  grouped[status],
		})
	}
	s.writeHTMLTemplate(w, "board.html", vm)
}

func (s *Server) handleBoardCSS(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, r, "static/board.css", "text/css; charset=utf-8")
}

func (s *Server) handleBoardJS(w http.ResponseWriter, r *http.Request) {
	s.serveAsset(w, r, "static/board.js", "text/javascript; charset=utf-8")
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request, name, contentType string) {
	b, err := assetsFS.ReadFile(name)
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	var sb strings.Builder
	if err := s.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, sb.String())
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, backend.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, backend.ErrReadOnly), errors.Is(err, backend.ErrPermissionDenied):
		code = http.StatusForbidden
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}
