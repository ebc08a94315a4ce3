package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"wellagora/contexts/marketplace-core/enrollment-service/application"
	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	httptransport "wellagora/contexts/marketplace-core/enrollment-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) DecideHandler(ctx context.Context, programID string, userID string) (httptransport.DecisionResponse, error) {
	decision, err := h.Service.Decide(ctx, programID, userID)
	if err != nil {
		return httptransport.DecisionResponse{}, err
	}
	return httptransport.DecisionResponse{
		Allowed:             decision.Allowed,
		Treatment:           string(decision.Treatment),
		Reason:              decision.Reason,
		ListPrice:           decision.ListPrice,
		UserPays:            decision.UserPays,
		SponsorContribution: decision.SponsorContribution,
		SponsorName:         decision.SponsorName,
		CreatorEarning:      decision.CreatorEarning,
		PlatformFee:         decision.PlatformFee,
		Currency:            decision.Currency,
	}, nil
}

func (h Handler) EnrollFreeHandler(
	ctx context.Context,
	programID string,
	req httptransport.EnrollFreeRequest,
) (httptransport.EnrollFreeResponse, error) {
	result, err := h.Service.EnrollFree(ctx, programID, req.UserID)
	if err != nil {
		return httptransport.EnrollFreeResponse{}, err
	}
	return httptransport.EnrollFreeResponse{
		Enrollment:          mapEnrollment(result.Enrollment),
		CurrentParticipants: result.Program.CurrentParticipants,
		ProgramStatus:       string(result.Program.EffectiveStatus()),
	}, nil
}

func (h Handler) StartCheckoutHandler(
	ctx context.Context,
	programID string,
	req httptransport.StartCheckoutRequest,
) (httptransport.StartCheckoutResponse, error) {
	result, err := h.Service.StartCheckout(ctx, programID, req.UserID, req.SuccessURL, req.CancelURL)
	if err != nil {
		return httptransport.StartCheckoutResponse{}, err
	}
	return httptransport.StartCheckoutResponse{
		CheckoutID:  result.CheckoutID,
		RedirectURL: result.RedirectURL,
		Amount:      result.Amount,
		Currency:    result.Currency,
	}, nil
}

func (h Handler) PaymentWebhookHandler(
	ctx context.Context,
	req httptransport.PaymentWebhookRequest,
) (httptransport.FinalizeCheckoutResponse, error) {
	result, err := h.Service.FinalizeCheckout(ctx, req.Reference, req.Amount)
	if err != nil {
		return httptransport.FinalizeCheckoutResponse{}, err
	}
	return httptransport.FinalizeCheckoutResponse{
		Enrollment: mapEnrollment(result.Enrollment),
		Replayed:   result.Replayed,
	}, nil
}

func (h Handler) ListEnrollmentsHandler(
	ctx context.Context,
	userID string,
	limit int,
	offset int,
) (httptransport.ListEnrollmentsResponse, error) {
	items, err := h.Service.ListEnrollments(ctx, userID, limit, offset)
	if err != nil {
		return httptransport.ListEnrollmentsResponse{}, err
	}
	result := make([]httptransport.EnrollmentDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapEnrollment(item))
	}
	return httptransport.ListEnrollmentsResponse{Items: result}, nil
}

func mapEnrollment(item entities.Enrollment) httptransport.EnrollmentDTO {
	return httptransport.EnrollmentDTO{
		EnrollmentID:        item.EnrollmentID,
		ProgramID:           item.ProgramID,
		UserID:              item.UserID,
		CreatorID:           item.CreatorID,
		AccessType:          string(item.AccessType),
		AmountPaid:          item.AmountPaid,
		SponsorContribution: item.SponsorContribution,
		CreatorRevenue:      item.CreatorRevenue,
		PlatformFee:         item.PlatformFee,
		SupportRuleID:       item.SupportRuleID,
		PaymentReference:    item.PaymentReference,
		CreatedAt:           item.CreatedAt.Format(time.RFC3339),
	}
}
