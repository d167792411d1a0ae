package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cqeops/triage-cli/internal/model"
	"github.com/cqeops/triage-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long:  "Serves tracked bugs, team buckets, and import history over HTTP for the review dashboard, including status transitions.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: dashboardRouter(st),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting dashboard server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down dashboard server")
			return srv.Shutdown(cmd.Context())
		})

		return g.Wait()
	},
}

func dashboardRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/bugs", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		bugs, err := st.ListBugs(req.Context(), store.BugFilter{
			Team:   model.Team(q.Get("team")),
			Status: model.BugStatus(q.Get("status")),
			Age:    model.BugAge(q.Get("age")),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bugs)
	})

	r.Get("/buckets/{team}", func(w http.ResponseWriter, req *http.Request) {
		team := model.Team(chi.URLParam(req, "team"))
		if !team.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown team"})
			return
		}
		bugs, err := st.ListBugs(req.Context(), store.BugFilter{Team: team, Status: model.StatusActive})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bugs)
	})

	r.Get("/imports", func(w http.ResponseWriter, req *http.Request) {
		runs, err := st.ListImports(req.Context(), 0)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	// Bug ids are nvbugs URLs and carry slashes, so the id travels in the
	// body rather than the path.
	r.Post("/bugs/status", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			BugID  string          `json:"bug_id"`
			Status model.BugStatus `json:"status"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if !body.Status.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
			return
		}
		if err := st.UpdateBugStatus(req.Context(), body.BugID, body.Status); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"bug_id": body.BugID, "status": string(body.Status)})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("dashboard request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
