package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/application"
	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	httptransport "wellagora/contexts/community-impact/impact-validation-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateChallengeHandler(ctx context.Context, req httptransport.CreateChallengeRequest) (httptransport.CreateChallengeResponse, error) {
	challenge, err := h.Service.CreateChallenge(ctx, application.CreateChallengeInput{
		CreatorID:        req.CreatorID,
		Title:            req.Title,
		Category:         req.Category,
		Method:           req.Method,
		FactorKgPerUnit:  req.FactorKgPerUnit,
		FixedImpactKg:    req.FixedImpactKg,
		BasePoints:       req.BasePoints,
		BonusMultipliers: req.BonusMultipliers,
	})
	if err != nil {
		return httptransport.CreateChallengeResponse{}, err
	}
	return httptransport.CreateChallengeResponse{Challenge: mapChallenge(challenge)}, nil
}

func (h Handler) ListChallengesHandler(ctx context.Context, category string) (httptransport.ListChallengesResponse, error) {
	items, err := h.Service.ListChallenges(ctx, category)
	if err != nil {
		return httptransport.ListChallengesResponse{}, err
	}
	result := make([]httptransport.ChallengeDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapChallenge(item))
	}
	return httptransport.ListChallengesResponse{Items: result}, nil
}

func (h Handler) SubmitCompletionHandler(
	ctx context.Context,
	challengeID string,
	req httptransport.SubmitCompletionRequest,
) (httptransport.SubmitCompletionResponse, error) {
	completion, err := h.Service.SubmitCompletion(ctx, entities.CompletionReport{
		UserID:      req.UserID,
		ChallengeID: challengeID,
		Tier:        entities.EvidenceTier(req.EvidenceTier),
		Measurement: entities.Measurement{
			DistanceKm:   req.DistanceKm,
			UnitCount:    req.UnitCount,
			VolumeLiters: req.VolumeLiters,
		},
		EvidenceURL: req.EvidenceURL,
		Notes:       req.Notes,
	})
	if err != nil {
		return httptransport.SubmitCompletionResponse{}, err
	}
	return httptransport.SubmitCompletionResponse{Completion: mapCompletion(completion)}, nil
}

func (h Handler) ListCompletionsHandler(
	ctx context.Context,
	userID string,
	limit int,
	offset int,
) (httptransport.ListCompletionsResponse, error) {
	items, err := h.Service.ListCompletions(ctx, userID, limit, offset)
	if err != nil {
		return httptransport.ListCompletionsResponse{}, err
	}
	result := make([]httptransport.CompletionDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapCompletion(item))
	}
	return httptransport.ListCompletionsResponse{Items: result}, nil
}

func (h Handler) HandprintHandler(ctx context.Context, userID string) (httptransport.HandprintResponse, error) {
	handprint, err := h.Service.Handprint(ctx, userID)
	if err != nil {
		return httptransport.HandprintResponse{}, err
	}
	byCategory := make(map[string]float64, len(handprint.ByCategory))
	for category, amount := range handprint.ByCategory {
		byCategory[string(category)] = amount
	}
	return httptransport.HandprintResponse{
		UserID:          handprint.UserID,
		PeriodStart:     handprint.PeriodStart.Format(time.RFC3339),
		PeriodEnd:       handprint.PeriodEnd.Format(time.RFC3339),
		ByCategory:      byCategory,
		TotalCO2Kg:      handprint.TotalCO2Kg,
		TotalPoints:     handprint.TotalPoints,
		ActivityCount:   handprint.ActivityCount,
		TreesEquivalent: handprint.TreesEquivalent,
		Rank:            handprint.Rank,
	}, nil
}

func mapChallenge(item entities.ChallengeDefinition) httptransport.ChallengeDTO {
	multipliers := make(map[string]float64, len(item.BonusMultipliers))
	for tier, multiplier := range item.BonusMultipliers {
		multipliers[string(tier)] = multiplier
	}
	return httptransport.ChallengeDTO{
		ChallengeID:      item.ChallengeID,
		CreatorID:        item.CreatorID,
		Title:            item.Title,
		Category:         string(item.Category),
		Method:           string(item.Method),
		FactorKgPerUnit:  item.FactorKgPerUnit,
		FixedImpactKg:    item.FixedImpactKg,
		BasePoints:       item.BasePoints,
		BonusMultipliers: multipliers,
		CreatedAt:        item.CreatedAt.Format(time.RFC3339),
	}
}

func mapCompletion(item entities.Completion) httptransport.CompletionDTO {
	return httptransport.CompletionDTO{
		CompletionID:    item.CompletionID,
		ChallengeID:     item.ChallengeID,
		UserID:          item.UserID,
		Category:        string(item.Category),
		EvidenceTier:    string(item.Tier),
		ImpactKg:        item.ImpactKg,
		ValidationScore: item.ValidationScore,
		PointsEarned:    item.PointsEarned,
		Status:          string(item.Status),
		Feedback:        item.Feedback,
		CreatedAt:       item.CreatedAt.Format(time.RFC3339),
	}
}
