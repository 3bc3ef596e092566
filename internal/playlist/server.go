package playlist

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/jiwonMe/slamslam/internal/metadata"
)

// DB is the subset of pgxpool.Pool the handlers use. Tests substitute a
// mock implementation.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Server struct {
	db   DB
	rdb  *redis.Client
	meta metadata.Source
}

func NewServer(db DB, rdb *redis.Client, meta metadata.Source) *Server {
	return &Server{
		db:   db,
		rdb:  rdb,
		meta: meta,
	}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/playlist", s.handleGetPlaylist)
	r.Post("/playlist", s.handleAddEntry)
	r.Delete("/playlist", s.handleDeleteEntry)
	r.Patch("/playlist", s.handleReorder)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "slamslam",
	})
}
