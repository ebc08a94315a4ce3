package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	sponsorshiperrors "wellagora/contexts/marketplace-core/sponsorship-ledger/domain/errors"
	sponsorshiphttp "wellagora/contexts/marketplace-core/sponsorship-ledger/transport/http"
)

func (s *Server) registerSponsorshipRoutes() {
	s.mux.HandleFunc("POST /api/sponsorship/v1/rules", s.handleCreateRule)
	s.mux.HandleFunc("GET /api/sponsorship/v1/rules/{rule_id}", s.handleGetRule)
	s.mux.HandleFunc("POST /api/sponsorship/v1/rules/{rule_id}/pause", s.handlePauseRule)
	s.mux.HandleFunc("POST /api/sponsorship/v1/rules/{rule_id}/resume", s.handleResumeRule)
	s.mux.HandleFunc("POST /api/sponsorship/v1/rules/{rule_id}/end", s.handleEndRule)
	s.mux.HandleFunc("GET /api/sponsorship/v1/sponsors/{sponsor_id}/utilization", s.handleUtilization)
	s.mux.HandleFunc("POST /api/sponsorship/v1/sponsors/{sponsor_id}/credits", s.handleAddCredits)
	s.mux.HandleFunc("GET /api/sponsorship/v1/sponsors/{sponsor_id}/credits", s.handleGetCreditAccount)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req sponsorshiphttp.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSponsorshipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.sponsorship.Handler.CreateRuleHandler(r.Context(), req)
	if err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	ruleID := r.PathValue("rule_id")
	resp, err := s.sponsorship.Handler.GetRuleHandler(r.Context(), ruleID)
	if err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePauseRule(w http.ResponseWriter, r *http.Request) {
	ruleID := r.PathValue("rule_id")
	if err := s.sponsorship.Handler.PauseRuleHandler(r.Context(), ruleID); err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeRule(w http.ResponseWriter, r *http.Request) {
	ruleID := r.PathValue("rule_id")
	if err := s.sponsorship.Handler.ResumeRuleHandler(r.Context(), ruleID); err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEndRule(w http.ResponseWriter, r *http.Request) {
	ruleID := r.PathValue("rule_id")
	if err := s.sponsorship.Handler.EndRuleHandler(r.Context(), ruleID); err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUtilization(w http.ResponseWriter, r *http.Request) {
	sponsorID := r.PathValue("sponsor_id")
	resp, err := s.sponsorship.Handler.UtilizationHandler(r.Context(), sponsorID)
	if err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCredits(w http.ResponseWriter, r *http.Request) {
	var req sponsorshiphttp.AddCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSponsorshipError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	sponsorID := r.PathValue("sponsor_id")
	resp, err := s.sponsorship.Handler.AddCreditsHandler(r.Context(), sponsorID, req)
	if err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCreditAccount(w http.ResponseWriter, r *http.Request) {
	sponsorID := r.PathValue("sponsor_id")
	resp, err := s.sponsorship.Handler.GetCreditAccountHandler(r.Context(), sponsorID)
	if err != nil {
		writeSponsorshipDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeSponsorshipDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sponsorshiperrors.ErrRuleNotFound):
		writeSponsorshipError(w, http.StatusNotFound, "rule_not_found", err.Error())
	case errors.Is(err, sponsorshiperrors.ErrAllocationNotFound):
		writeSponsorshipError(w, http.StatusNotFound, "allocation_not_found", err.Error())
	case errors.Is(err, sponsorshiperrors.ErrQuotaExhausted):
		writeSponsorshipError(w, http.StatusConflict, "quota_exhausted", err.Error())
	case errors.Is(err, sponsorshiperrors.ErrContributionCapExceeded):
		writeSponsorshipError(w, http.StatusUnprocessableEntity, "contribution_cap_exceeded", err.Error())
	case errors.Is(err, sponsorshiperrors.ErrInvalidTransition):
		writeSponsorshipError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, sponsorshiperrors.ErrInvalidRuleInput),
		errors.Is(err, sponsorshiperrors.ErrInvalidInput):
		writeSponsorshipError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, sponsorshiperrors.ErrWriteConflict):
		writeSponsorshipError(w, http.StatusConflict, "write_conflict", err.Error())
	default:
		writeSponsorshipError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSponsorshipError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, sponsorshiphttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
