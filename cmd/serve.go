package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dealerworks/reconcile-cli/internal/config"
	"github.com/dealerworks/reconcile-cli/internal/discrepancy"
	"github.com/dealerworks/reconcile-cli/internal/lineitem"
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/seed"
	"github.com/dealerworks/reconcile-cli/internal/session"
	"github.com/dealerworks/reconcile-cli/internal/store"
	"github.com/dealerworks/reconcile-cli/internal/warranty"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation API server",
	Long:  "Serves the session API the asset-processing screens talk to: items, discrepancy queue, warranty pricing, discounts, and workflow.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		reg := newRegistry(st)
		router := newRouter(reg, cfg.Server)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// registry holds the live sessions behind the API.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	store    store.Store
}

func newRegistry(st store.Store) *registry {
	return &registry{
		sessions: make(map[string]*session.Session),
		store:    st,
	}
}

func (r *registry) add(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *registry) get(id string) (*session.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// persist saves a finalized order in the background so approval latency
// stays independent of the store.
func (r *registry) persist(order model.FinalizedOrder) {
	if r.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.store.SaveOrder(ctx, order); err != nil {
			zap.L().Error("persist finalized order failed",
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("finalized order persisted", zap.String("order_id", order.ID))
	}()
}

// newRouter builds the chi router for the session API.
func newRouter(reg *registry, srvCfg config.ServerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := srvCfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	perSecond := srvCfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 20
	}
	burst := srvCfg.RateBurst
	if burst <= 0 {
		burst = int(perSecond) * 2
	}
	r.Use(rateLimit(rate.NewLimiter(rate.Limit(perSecond), burst)))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/sessions", func(w http.ResponseWriter, req *http.Request) {
		var order seed.Order
		if req.ContentLength > 0 {
			if err := json.NewDecoder(req.Body).Decode(&order); err != nil {
				writeError(w, http.StatusBadRequest, "invalid order body")
				return
			}
			if err := order.Validate(); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		} else {
			order = *seed.Demo()
		}

		sess := session.New(&order, session.Options{
			Surcharges:   cfg.Warranty.Surcharges,
			AutoFixDelay: cfg.AutoFix.Delay(),
			OnApprove:    reg.persist,
		})
		reg.add(sess)

		zap.L().Info("session created",
			zap.String("session_id", sess.ID),
			zap.String("order", order.Name),
		)
		writeJSON(w, http.StatusCreated, map[string]any{
			"session_id": sess.ID,
			"order_id":   sess.OrderID,
			"summary":    sess.Summary(),
		})
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Use(reg.sessionCtx)

		r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sessionFrom(req).Summary())
		})

		r.Get("/items", func(w http.ResponseWriter, req *http.Request) {
			filter := req.URL.Query().Get("filter")
			if filter == "" {
				filter = "all"
			}
			items := sessionFrom(req).Items(lineitemFilter(filter))
			writeJSON(w, http.StatusOK, map[string]any{"items": items})
		})

		r.Post("/items/{itemID}/cost-center", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Value string `json:"value"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			if err := sessionFrom(req).SetCostCenter(chi.URLParam(req, "itemID"), body.Value); err != nil {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/queue", func(w http.ResponseWriter, req *http.Request) {
			sess := sessionFrom(req)
			writeJSON(w, http.StatusOK, map[string]any{
				"open":       sess.Queue(),
				"open_count": sess.Summary().OpenIssues,
			})
		})

		r.Post("/resolve", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Action    string `json:"action"`
				OptionSKU string `json:"option_sku"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			result, err := sessionFrom(req).Resolve(discrepancy.Action(body.Action), body.OptionSKU)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		r.Post("/autofix", func(w http.ResponseWriter, req *http.Request) {
			fixed, err := sessionFrom(req).AutoFix(req.Context())
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]int{"resolved": fixed})
		})

		r.Post("/warranty", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Tier   string `json:"tier"`
				Scope  string `json:"scope"`
				ItemID string `json:"item_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			scope := warranty.Scope(body.Scope)
			if scope == "" {
				scope = warranty.ScopeAll
			}
			updated, err := sessionFrom(req).ApplyWarranty(body.Tier, scope, body.ItemID)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
		})

		r.Get("/discounts", func(w http.ResponseWriter, req *http.Request) {
			sess := sessionFrom(req)
			writeJSON(w, http.StatusOK, map[string]any{
				"sections": sess.Discounts(),
				"pricing":  sess.Pricing(),
			})
		})

		r.Post("/discounts/toggle", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				RuleID   string `json:"rule_id"`
				Category string `json:"category"`
				Enabled  *bool  `json:"enabled"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid body")
				return
			}
			sess := sessionFrom(req)

			switch {
			case body.Category != "":
				if body.Enabled == nil {
					writeError(w, http.StatusBadRequest, "enabled is required for category toggles")
					return
				}
				n := sess.ToggleDiscountSection(model.DiscountCategory(body.Category), *body.Enabled)
				writeJSON(w, http.StatusOK, map[string]any{"updated": n, "pricing": sess.Pricing()})
			case body.RuleID != "":
				var err error
				if body.Enabled != nil {
					err = sess.EnableDiscount(body.RuleID, *body.Enabled)
				} else {
					_, err = sess.ToggleDiscount(body.RuleID)
				}
				if err != nil {
					writeError(w, http.StatusNotFound, err.Error())
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"pricing": sess.Pricing()})
			default:
				writeError(w, http.StatusBadRequest, "rule_id or category is required")
			}
		})

		r.Get("/pricing", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, sessionFrom(req).Pricing())
		})

		r.Post("/advance", func(w http.ResponseWriter, req *http.Request) {
			step, open := sessionFrom(req).Advance()
			writeJSON(w, http.StatusOK, map[string]any{"step": step, "open_issues": open})
		})

		r.Post("/back", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"step": sessionFrom(req).Back()})
		})

		r.Post("/approve", func(w http.ResponseWriter, req *http.Request) {
			order, ok := sessionFrom(req).Approve()
			if !ok {
				writeError(w, http.StatusConflict, "approval rejected")
				return
			}
			writeJSON(w, http.StatusOK, order)
		})
	})

	return r
}

type sessionCtxKey struct{}

// sessionCtx resolves the session from the URL and stores it on the request
// context, rejecting unknown IDs before any handler runs.
func (r *registry) sessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "sessionID")
		sess, ok := r.get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		ctx := context.WithValue(req.Context(), sessionCtxKey{}, sess)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func sessionFrom(req *http.Request) *session.Session {
	return req.Context().Value(sessionCtxKey{}).(*session.Session)
}

// rateLimit applies a global token-bucket limit across all clients.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func lineitemFilter(s string) lineitem.Filter {
	switch s {
	case "attention", "validated":
		return lineitem.Filter(s)
	default:
		return lineitem.FilterAll
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
