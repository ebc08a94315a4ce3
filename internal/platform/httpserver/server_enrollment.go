package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	enrollmenterrors "wellagora/contexts/marketplace-core/enrollment-service/domain/errors"
	enrollmenthttp "wellagora/contexts/marketplace-core/enrollment-service/transport/http"
)

func (s *Server) registerEnrollmentRoutes() {
	s.mux.HandleFunc("GET /api/marketplace/v1/programs/{program_id}/enrollment-decision", s.handleEnrollmentDecision)
	s.mux.HandleFunc("POST /api/marketplace/v1/programs/{program_id}/enroll", s.handleEnrollFree)
	s.mux.HandleFunc("POST /api/marketplace/v1/programs/{program_id}/checkout", s.handleStartCheckout)
	s.mux.HandleFunc("POST /api/marketplace/v1/payments/webhook", s.handlePaymentWebhook)
	s.mux.HandleFunc("GET /api/marketplace/v1/users/{user_id}/enrollments", s.handleListEnrollments)
}

func (s *Server) handleEnrollmentDecision(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeEnrollmentError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	programID := r.PathValue("program_id")
	resp, err := s.enrollment.Handler.DecideHandler(r.Context(), programID, userID)
	if err != nil {
		writeEnrollmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnrollFree(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeEnrollmentError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	programID := r.PathValue("program_id")
	resp, err := s.enrollment.Handler.EnrollFreeHandler(r.Context(), programID, enrollmenthttp.EnrollFreeRequest{
		UserID: userID,
	})
	if err != nil {
		writeEnrollmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeEnrollmentError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req enrollmenthttp.StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnrollmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	req.UserID = userID

	programID := r.PathValue("program_id")
	resp, err := s.enrollment.Handler.StartCheckoutHandler(r.Context(), programID, req)
	if err != nil {
		writeEnrollmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req enrollmenthttp.PaymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnrollmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.enrollment.Handler.PaymentWebhookHandler(r.Context(), req)
	if err != nil {
		writeEnrollmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	query := r.URL.Query()

	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeEnrollmentError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if offsetRaw := query.Get("offset"); offsetRaw != "" {
		parsed, err := strconv.Atoi(offsetRaw)
		if err != nil {
			writeEnrollmentError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		offset = parsed
	}

	resp, err := s.enrollment.Handler.ListEnrollmentsHandler(r.Context(), userID, limit, offset)
	if err != nil {
		writeEnrollmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEnrollmentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, enrollmenterrors.ErrProgramNotFound):
		writeEnrollmentError(w, http.StatusNotFound, "program_not_found", err.Error())
	case errors.Is(err, enrollmenterrors.ErrEnrollmentNotFound):
		writeEnrollmentError(w, http.StatusNotFound, "enrollment_not_found", err.Error())
	case errors.Is(err, enrollmenterrors.ErrCheckoutNotFound):
		writeEnrollmentError(w, http.StatusNotFound, "checkout_not_found", err.Error())
	case errors.Is(err, enrollmenterrors.ErrProgramNotPublished):
		writeEnrollmentError(w, http.StatusConflict, "program_not_published", err.Error())
	case errors.Is(err, enrollmenterrors.ErrProgramFull):
		writeEnrollmentError(w, http.StatusConflict, "program_full", err.Error())
	case errors.Is(err, enrollmenterrors.ErrAlreadyEnrolled):
		writeEnrollmentError(w, http.StatusConflict, "already_enrolled", err.Error())
	case errors.Is(err, enrollmenterrors.ErrNotFreeProgram):
		writeEnrollmentError(w, http.StatusUnprocessableEntity, "not_free_program", err.Error())
	case errors.Is(err, enrollmenterrors.ErrPaymentUnavailable):
		writeEnrollmentError(w, http.StatusServiceUnavailable, "payment_unavailable", err.Error())
	case errors.Is(err, enrollmenterrors.ErrInvalidInput):
		writeEnrollmentError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, enrollmenterrors.ErrWriteConflict):
		writeEnrollmentError(w, http.StatusConflict, "write_conflict", err.Error())
	default:
		writeEnrollmentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEnrollmentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enrollmenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
