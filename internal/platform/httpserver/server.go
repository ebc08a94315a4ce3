package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	impactvalidationservice "wellagora/contexts/community-impact/impact-validation-service"
	enrollmentservice "wellagora/contexts/marketplace-core/enrollment-service"
	sponsorshipledger "wellagora/contexts/marketplace-core/sponsorship-ledger"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "wellagora/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	enrollment  enrollmentservice.Module
	sponsorship sponsorshipledger.Module
	impact      impactvalidationservice.Module
}

func New(
	enrollment enrollmentservice.Module,
	sponsorship sponsorshipledger.Module,
	impact impactvalidationservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		enrollment:  enrollment,
		sponsorship: sponsorship,
		impact:      impact,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.registerEnrollmentRoutes()
	s.registerSponsorshipRoutes()
	s.registerImpactRoutes()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
