// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/penny-vault/pvratio/data"
	"github.com/penny-vault/pvratio/metrics"
	"github.com/penny-vault/pvratio/report"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrUnknownCompany = errors.New("company is not tracked")

// StatementReader loads the statements of a company
type StatementReader interface {
	GetStatements(ctx context.Context, ticker string) (*data.Company, []*data.StatementRecord, error)
	Ping(ctx context.Context) error
}

// Server renders the metrics dashboard for a fixed list of companies.
// Metrics are recomputed from the store on every request.
type Server struct {
	router    *mux.Router
	server    *http.Server
	store     StatementReader
	companies []*data.Company
	page      *template.Template
}

type pageData struct {
	Dashboard report.Dashboard
	Companies []*data.Company
	Warnings  []metrics.Finding
}

func New(addr string, store StatementReader, companies []*data.Company) (*Server, error) {
	page, err := template.New("dashboard.html").Funcs(template.FuncMap{
		"dollars": report.Dollars,
		"ratio":   report.Ratio,
	}).ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}

	normalized := make([]*data.Company, 0, len(companies))
	for _, company := range companies {
		normalized = append(normalized, &data.Company{
			Ticker: data.NormalizeTicker(company.Ticker),
			Name:   company.Name,
		})
	}

	server := &Server{
		router:    mux.NewRouter(),
		store:     store,
		companies: normalized,
		page:      page,
	}

	server.setupRoutes()

	server.server = &http.Server{
		Addr:         addr,
		Handler:      server.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

func (server *Server) setupRoutes() {
	server.router.Use(server.requestLoggingMiddleware)

	server.router.HandleFunc("/", server.index).Methods(http.MethodGet)
	server.router.HandleFunc("/companies/{ticker}", server.companyPage).Methods(http.MethodGet)
	server.router.HandleFunc("/api/companies/{ticker}/metrics.csv", server.metricsCSV).Methods(http.MethodGet)
	server.router.HandleFunc("/api/companies/{ticker}/metrics", server.metricsJSON).Methods(http.MethodGet)
	server.router.HandleFunc("/healthz", server.health).Methods(http.MethodGet)
	server.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Handler returns the router serving every dashboard route
func (server *Server) Handler() http.Handler {
	return server.router
}

// ListenAndServe blocks until the server is shut down
func (server *Server) ListenAndServe() error {
	log.Info().Str("Addr", server.server.Addr).Msg("starting dashboard")
	err := server.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (server *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down dashboard")
	return server.server.Shutdown(ctx)
}

// load recomputes the dashboard for a tracked ticker
func (server *Server) load(ctx context.Context, ticker string) (report.Dashboard, error) {
	ticker = data.NormalizeTicker(ticker)
	if !server.tracked(ticker) {
		return report.Dashboard{}, ErrUnknownCompany
	}

	company, records, err := server.store.GetStatements(ctx, ticker)
	if err != nil {
		return report.Dashboard{}, err
	}

	return report.Build(ticker, company, metrics.Compute(records), metrics.Audit(records)), nil
}

func (server *Server) tracked(ticker string) bool {
	for _, company := range server.companies {
		if company.Ticker == ticker {
			return true
		}
	}
	return false
}

func (server *Server) index(w http.ResponseWriter, r *http.Request) {
	if len(server.companies) == 0 {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/companies/"+server.companies[0].Ticker, http.StatusFound)
}

func (server *Server) companyPage(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := server.dashboard(w, r)
	if !ok {
		return
	}

	warnings := make([]metrics.Finding, 0, len(dashboard.Findings))
	for _, finding := range dashboard.Findings {
		if finding.Severity == metrics.SeverityWarning {
			warnings = append(warnings, finding)
		}
	}

	var buf bytes.Buffer
	if err := server.page.Execute(&buf, pageData{
		Dashboard: dashboard,
		Companies: server.companies,
		Warnings:  warnings,
	}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("could not render dashboard")
		http.Error(w, "could not render dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (server *Server) metricsJSON(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := server.dashboard(w, r)
	if !ok {
		return
	}

	body, err := json.Marshal(dashboard)
	if err != nil {
		http.Error(w, "could not encode metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (server *Server) metricsCSV(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := server.dashboard(w, r)
	if !ok {
		return
	}

	body, err := gocsv.MarshalBytes(dashboard.Rows)
	if err != nil {
		http.Error(w, "could not encode metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+dashboard.Ticker+"-metrics.csv\"")
	_, _ = w.Write(body)
}

// dashboard loads the dashboard named in the request path and writes an
// error response when that is not possible
func (server *Server) dashboard(w http.ResponseWriter, r *http.Request) (report.Dashboard, bool) {
	ticker := mux.Vars(r)["ticker"]
	dashboard, err := server.load(r.Context(), ticker)
	if errors.Is(err, ErrUnknownCompany) {
		http.NotFound(w, r)
		return dashboard, false
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("Ticker", ticker).Msg("could not load statements")
		http.Error(w, "could not load statements", http.StatusInternalServerError)
		return dashboard, false
	}
	return dashboard, true
}

func (server *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := server.store.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("database ping failed")
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	_, _ = w.Write([]byte("ok"))
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.statusCode = code
	recorder.ResponseWriter.WriteHeader(code)
}

func (server *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()[:8]

		logger := log.With().Str("RequestID", requestID).Logger()
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r.WithContext(logger.WithContext(r.Context())))

		logger.Info().
			Str("Method", r.Method).
			Str("Path", r.URL.Path).
			Int("StatusCode", recorder.statusCode).
			Dur("Duration", time.Since(start)).
			Msg("request")
	})
}
