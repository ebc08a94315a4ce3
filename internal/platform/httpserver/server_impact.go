package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	impacterrors "wellagora/contexts/community-impact/impact-validation-service/domain/errors"
	impacthttp "wellagora/contexts/community-impact/impact-validation-service/transport/http"
)

func (s *Server) registerImpactRoutes() {
	s.mux.HandleFunc("POST /api/impact/v1/challenges", s.handleCreateChallenge)
	s.mux.HandleFunc("GET /api/impact/v1/challenges", s.handleListChallenges)
	s.mux.HandleFunc("POST /api/impact/v1/challenges/{challenge_id}/completions", s.handleSubmitCompletion)
	s.mux.HandleFunc("GET /api/impact/v1/users/{user_id}/completions", s.handleListCompletions)
	s.mux.HandleFunc("GET /api/impact/v1/users/{user_id}/handprint", s.handleHandprint)
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req impacthttp.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeImpactError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.impact.Handler.CreateChallengeHandler(r.Context(), req)
	if err != nil {
		writeImpactDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	resp, err := s.impact.Handler.ListChallengesHandler(r.Context(), category)
	if err != nil {
		writeImpactDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitCompletion(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeImpactError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req impacthttp.SubmitCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeImpactError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.UserID = userID

	challengeID := r.PathValue("challenge_id")
	resp, err := s.impact.Handler.SubmitCompletionHandler(r.Context(), challengeID, req)
	if err != nil {
		writeImpactDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCompletions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	query := r.URL.Query()

	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeImpactError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if offsetRaw := query.Get("offset"); offsetRaw != "" {
		parsed, err := strconv.Atoi(offsetRaw)
		if err != nil {
			writeImpactError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		offset = parsed
	}

	resp, err := s.impact.Handler.ListCompletionsHandler(r.Context(), userID, limit, offset)
	if err != nil {
		writeImpactDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHandprint(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	resp, err := s.impact.Handler.HandprintHandler(r.Context(), userID)
	if err != nil {
		writeImpactDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeImpactDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, impacterrors.ErrChallengeNotFound):
		writeImpactError(w, http.StatusNotFound, "challenge_not_found", err.Error())
	case errors.Is(err, impacterrors.ErrCompletionNotFound):
		writeImpactError(w, http.StatusNotFound, "completion_not_found", err.Error())
	case errors.Is(err, impacterrors.ErrInvalidReport),
		errors.Is(err, impacterrors.ErrInvalidChallenge),
		errors.Is(err, impacterrors.ErrInvalidInput):
		writeImpactError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, impacterrors.ErrWriteConflict):
		writeImpactError(w, http.StatusConflict, "write_conflict", err.Error())
	default:
		writeImpactError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeImpactError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, impacthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
