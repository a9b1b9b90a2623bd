package rpc

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"norifarm/core/events"
	"norifarm/native/staking"
	"norifarm/native/token"
	"norifarm/observability"
	"norifarm/observability/logging"
	"norifarm/observability/metrics"
)

// Config captures the dependencies required to construct the server.
type Config struct {
	Ledger  *token.Ledger
	Engine  *staking.Engine
	Journal *events.Journal
	// Now supplies the block time in unix seconds; defaults to the wall clock.
	Now    func() uint64
	Logger *slog.Logger
	// AdminToken, when set, must accompany every mutation as a bearer token.
	AdminToken string
	// Metrics is exposed on /metrics when non-nil.
	Metrics http.Handler
}

// Server exposes the token ledger and staking engine over JSON/HTTP. Callers
// identify themselves with the request's from field, so the server must only
// be reachable by trusted clients.
type Server struct {
	ledger     *token.Ledger
	engine     *staking.Engine
	journal    *events.Journal
	now        func() uint64
	logger     *slog.Logger
	adminToken string
	failures   *metrics.LedgerMetrics
	router     http.Handler
}

// NewServer constructs a configured HTTP router.
func NewServer(cfg Config) *Server {
	srv := &Server{
		ledger:     cfg.Ledger,
		engine:     cfg.Engine,
		journal:    cfg.Journal,
		now:        cfg.Now,
		logger:     cfg.Logger,
		adminToken: strings.TrimSpace(cfg.AdminToken),
	}
	if srv.now == nil {
		srv.now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if srv.logger == nil {
		srv.logger = slog.Default()
	}
	srv.logger = srv.logger.With(slog.String("component", "rpc"))
	if cfg.Metrics != nil {
		srv.failures = metrics.Ledger()
	}
	srv.router = srv.buildRouter(cfg.Metrics)
	srv.logger.Info("rpc server configured", logging.MaskField("adminToken", srv.adminToken))
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	r.With(s.observe("events", "list")).Get("/events", s.ListEvents)

	r.Route("/token", func(tr chi.Router) {
		tr.With(s.observe("token", "info")).Get("/", s.TokenInfo)
		tr.With(s.observe("token", "balance")).Get("/balance/{addr}", s.Balance)
		tr.Group(func(mut chi.Router) {
			mut.Use(s.requireAdmin)
			mut.With(s.observe("token", "transfer")).Post("/transfer", s.Transfer)
			mut.With(s.observe("token", "mint")).Post("/mint", s.Mint)
			mut.With(s.observe("token", "burn")).Post("/burn", s.Burn)
			mut.With(s.observe("token", "addMinter")).Post("/minters/add", s.AddMinter)
			mut.With(s.observe("token", "removeMinter")).Post("/minters/remove", s.RemoveMinter)
		})
	})

	r.Route("/staking", func(sr chi.Router) {
		sr.With(s.observe("staking", "stats")).Get("/stats", s.Stats)
		sr.With(s.observe("staking", "stakeInfo")).Get("/stake/{addr}", s.StakeInfo)
		sr.Group(func(mut chi.Router) {
			mut.Use(s.requireAdmin)
			mut.With(s.observe("staking", "stake")).Post("/stake", s.Stake)
			mut.With(s.observe("staking", "unstake")).Post("/unstake", s.Unstake)
			mut.With(s.observe("staking", "claim")).Post("/claim", s.Claim)
			mut.With(s.observe("staking", "emergencyWithdraw")).Post("/emergency-withdraw", s.EmergencyWithdraw)
		})
	})
	return r
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		presented := extractBearer(r.Header.Get("Authorization"))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.adminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(module, method string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			observability.ModuleMetrics().Observe(module, method, recorder.status, time.Since(start))
			s.logger.Debug("rpc request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", recorder.status),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func extractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
