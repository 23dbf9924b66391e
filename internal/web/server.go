package web

import (
	"encoding/json"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/openfund/pfm/internal/logger"
	"github.com/openfund/pfm/internal/state"
	"github.com/openfund/pfm/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// FundView is the read-only slice of the fund the web layer needs.
type FundView interface {
	DepositAsset() types.Asset
	AvailableBalances() map[types.Asset]sdkmath.Int
	TotalShares() sdkmath.Int
	SharesOf(account types.Account) sdkmath.Int
}

// Server exposes fund state over HTTP for dashboards and monitoring.
type Server struct {
	router *mux.Router
	port   string
	fund   FundView
	// journalEnabled gates the /api/journal endpoint on database availability.
	journalEnabled bool
}

// NewServer creates a web server over the given fund view.
func NewServer(port string, fund FundView, journalEnabled bool) *Server {
	if port == "" {
		port = "8080"
	}
	s := &Server{
		router:         mux.NewRouter(),
		port:           port,
		fund:           fund,
		journalEnabled: journalEnabled,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/balances", s.handleBalances).Methods("GET")
	api.HandleFunc("/shares", s.handleShares).Methods("GET")
	api.HandleFunc("/shares/{account}", s.handleAccountShares).Methods("GET")
	api.HandleFunc("/journal", s.handleJournal).Methods("GET")
}

// Start begins serving HTTP requests. Blocks until the listener fails.
func (s *Server) Start() error {
	webLogger.Info().Str("port", s.port).Msg("Starting fund status server")
	srv := &http.Server{
		Addr:         ":" + s.port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"status":        "ok",
		"deposit_asset": s.fund.DepositAsset(),
		"timestamp":     time.Now().UTC(),
	})
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances := s.fund.AvailableBalances()
	out := make(map[string]string, len(balances))
	for asset, balance := range balances {
		out[string(asset)] = balance.String()
	}
	s.writeJSON(w, out)
}

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"total_supply": s.fund.TotalShares().String(),
	})
}

func (s *Server) handleAccountShares(w http.ResponseWriter, r *http.Request) {
	account := types.Account(mux.Vars(r)["account"])
	s.writeJSON(w, map[string]string{
		"account": string(account),
		"shares":  s.fund.SharesOf(account).String(),
	})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if !s.journalEnabled {
		http.Error(w, "journal not configured", http.StatusServiceUnavailable)
		return
	}
	entries, err := state.RecentEvents(50)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to load journal entries")
		http.Error(w, "failed to load journal", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode response")
	}
}
