package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/model"
	"github.com/sells-group/workflow-cli/internal/pipeline"
	"github.com/sells-group/workflow-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for triggering runs and reading reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initWorkflow(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(&runServer{runner: env.Engine, store: env.Store}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runServer serves run requests and run history over HTTP.
type runServer struct {
	runner workflowRunner
	store  store.Store
}

// runRequest is the optional body of POST /v1/runs/{kind}.
type runRequest struct {
	ID     string         `json:"id"`
	UseLLM bool           `json:"use_llm"`
	Record map[string]any `json:"record"`
}

func newRouter(s *runServer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// {ref} is the workflow kind on POST and the run id on GET.
	r.Route("/v1/runs", func(r chi.Router) {
		r.Get("/", s.listRuns)
		r.Post("/{ref}", s.startRun)
		r.Get("/{ref}", s.getRun)
	})

	return r
}

func (s *runServer) startRun(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := pipeline.Request{Kind: kind, Identifier: body.ID, UseLLM: body.UseLLM}
	if len(body.Record) > 0 {
		rec := model.RecordFromFields(kind, body.Record)
		req.Record = &rec
		if req.Identifier == "" {
			req.Identifier = rec.ID()
		}
	}

	rep := s.runner.Run(r.Context(), req)
	saveReport(r.Context(), s.store, rep)

	status := http.StatusOK
	if rep.Status == model.StatusFailed {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, rep)
}

func (s *runServer) getRun(w http.ResponseWriter, r *http.Request) {
	rep, err := s.store.GetRun(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		zap.L().Error("serve: get run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *runServer) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.RunFilter

	if v := q.Get("kind"); v != "" {
		kind, err := model.ParseKind(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Kind = kind
	}
	filter.Status = model.Status(q.Get("status"))
	filter.RecordID = q.Get("record_id")
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = n
		}
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if runs == nil {
		runs = []model.Report{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
