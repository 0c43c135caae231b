package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ButyrinIA/newsblog/internal/blog"
	"github.com/ButyrinIA/newsblog/internal/config"
	"github.com/ButyrinIA/newsblog/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Snapshot - всё, что нужно клиенту для отрисовки.
type Snapshot struct {
	Posts     []models.Post `json:"posts"`
	Draft     string        `json:"draft"`
	EditingID *int64        `json:"editingId"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type Server struct {
	cfg  *config.Config
	blog *blog.Controller
	log  logrus.FieldLogger
	hub  *hub

	// mu сериализует все обращения к контроллеру.
	mu sync.Mutex

	upgrader websocket.Upgrader
}

func New(cfg *config.Config, controller *blog.Controller, log logrus.FieldLogger) *Server {
	return &Server{
		cfg:  cfg,
		blog: controller,
		log:  log,
		hub:  newHub(log),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/posts", s.handleList)
		api.Post("/posts", s.handleSubmit)
		api.Delete("/posts/{id}", s.handleDelete)
		api.Post("/posts/{id}/edit", s.handleBeginEdit)
		api.Delete("/edit", s.handleCancelEdit)
		api.Put("/draft", s.handleDraft)
	})
	r.Get("/ws", s.handleWebsocket)

	return r
}

// Run слушает порт из конфигурации до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, ok := s.mutate(func() bool {
		return s.blog.Submit(persistContext(r), req.Content)
	})
	if !ok {
		s.respondError(w, http.StatusUnprocessableEntity, "content is empty")
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.postID(w, r)
	if !ok {
		return
	}

	snap, _ := s.mutate(func() bool {
		s.blog.Delete(persistContext(r), id)
		return true
	})
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := s.postID(w, r)
	if !ok {
		return
	}

	snap, found := s.mutate(func() bool {
		return s.blog.BeginEdit(id)
	})
	if !found {
		s.respondError(w, http.StatusNotFound, "post not found")
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.mutate(func() bool {
		s.blog.CancelEdit()
		return true
	})
	s.respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, _ := s.mutate(func() bool {
		s.blog.SetDraft(req.Content)
		return true
	})
	s.respondJSON(w, http.StatusOK, snap)
}

// mutate выполняет fn под s.mu и, если fn что-то изменила, рассылает снимок
// не отпуская блокировку: клиенты получают снимки в порядке изменений.
func (s *Server) mutate(fn func() bool) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := fn()
	snap := s.snapshot()
	if changed {
		s.hub.broadcast(snap)
	}
	return snap, changed
}

// persistContext отвязывает сохранение от отмены запроса: изменение уже
// применено в памяти, и обрыв соединения не должен оставить его несохранённым.
func persistContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("Не удалось открыть websocket")
		return
	}

	s.hub.serve(conn, func() Snapshot {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.snapshot()
	})
}

func (s *Server) postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid post id")
		return 0, false
	}
	return id, true
}

// snapshot вызывается под s.mu.
func (s *Server) snapshot() Snapshot {
	snap := Snapshot{
		Posts: s.blog.Posts(),
		Draft: s.blog.Draft(),
	}
	if id, editing := s.blog.EditingID(); editing {
		snap.EditingID = &id
	}
	return snap
}
