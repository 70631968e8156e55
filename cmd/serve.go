package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scrimshawlife-ctrl/abraxas/internal/alerts"
	"github.com/scrimshawlife-ctrl/abraxas/internal/analysis"
	"github.com/scrimshawlife-ctrl/abraxas/internal/evaluate"
	"github.com/scrimshawlife-ctrl/abraxas/internal/export"
	"github.com/scrimshawlife-ctrl/abraxas/internal/promote"
	"github.com/scrimshawlife-ctrl/abraxas/internal/proposal"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the governance HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		lc, st, err := openLifecycle(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		ev, err := newEvaluator(lc)
		if err != nil {
			return err
		}

		signer, err := export.NewSigner(cfg.Env, cfg.Export.SigningSecret)
		if err != nil {
			return err
		}

		workflow := promote.NewWorkflow(lc, cfg.Governance.PatchDir)

		api := &apiServer{
			store:     st,
			lifecycle: lc,
			evaluator: ev,
			signer:    signer,
			workflow:  workflow,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
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

type apiServer struct {
	store     proposal.Store
	lifecycle *proposal.Lifecycle
	evaluator *evaluate.Evaluator
	signer    *export.Signer
	workflow  *promote.Workflow
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/proposals", func(r chi.Router) {
		r.Get("/", s.handleListProposals)
		r.Get("/{id}", s.handleGetProposal)
		r.Post("/{id}/transition", s.handleTransition)
		r.Post("/{id}/evaluate", s.handleEvaluate)
		r.Post("/{id}/promote", s.handlePromote)
	})

	r.Post("/export", s.handleExport)
	r.Post("/alerts/derive", s.handleDeriveAlerts)

	return r
}

func (s *apiServer) handleListProposals(w http.ResponseWriter, r *http.Request) {
	f := proposal.Filter{Limit: 100}
	if status := r.URL.Query().Get("status"); status != "" {
		f.Status = proposal.Status(status)
		if !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status: "+status)
			return
		}
	}

	recs, err := s.store.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list proposals")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *apiServer) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, proposal.ErrNotFound) {
			writeError(w, http.StatusNotFound, "proposal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get proposal")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To   string `json:"to"`
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.lifecycle.Transition(r.Context(), chi.URLParam(r, "id"), proposal.Status(req.To), req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Series          []evaluate.Sample `json:"series"`
		FP              float64           `json:"fp"`
		FN              float64           `json:"fn"`
		AlertAssoc      float64           `json:"alert_assoc"`
		StrainReduction float64           `json:"strain_reduction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := s.evaluator.Evaluate(r.Context(), chi.URLParam(r, "id"), req.Series, req.FP, req.FN,
		evaluate.Options{AlertAssoc: req.AlertAssoc, StrainReduction: req.StrainReduction})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *apiServer) handlePromote(w http.ResponseWriter, r *http.Request) {
	res, err := s.workflow.Promote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Result            *analysis.Result `json:"result"`
		Tier              string           `json:"tier"`
		TTLHours          *float64         `json:"ttl_hours"`
		IncludeProvenance *bool            `json:"include_provenance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := export.DefaultOptions()
	opts.TTLHours = float64(cfg.Export.DefaultTTLHours)
	if req.TTLHours != nil {
		opts.TTLHours = *req.TTLHours
	}
	if req.IncludeProvenance != nil {
		opts.IncludeProvenance = *req.IncludeProvenance
	}

	artifact, err := s.signer.CreateSignedExport(req.Result, req.Tier, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func (s *apiServer) handleDeriveAlerts(w http.ResponseWriter, r *http.Request) {
	var result analysis.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, alerts.Derive(&result))
}

// writeDomainError maps domain failures onto HTTP statuses: missing records
// to 404, governance violations to 409, everything else to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var ite *proposal.IllegalTransitionError
	var pe *promote.PreconditionError
	switch {
	case eris.Is(err, proposal.ErrNotFound):
		writeError(w, http.StatusNotFound, "proposal not found")
	case errors.As(err, &ite), errors.As(err, &pe):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
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
