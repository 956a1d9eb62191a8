package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// The health responder exists only so a hosting platform can probe the
// process. It shares no state with the bot and a failure on either side
// never takes the other down.

const livenessBody = "I am alive!"

// NewRouter builds the single-endpoint liveness router.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(livenessBody))
	})
	return r
}

type Server struct {
	srv *http.Server
	log *zap.Logger
}

func NewServer(port int, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in a background goroutine for the process lifetime.
func (s *Server) Start() {
	go func() {
		s.log.Info("health server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("health server stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
