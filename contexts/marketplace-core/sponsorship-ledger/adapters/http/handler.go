package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"wellagora/contexts/marketplace-core/sponsorship-ledger/application"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/sponsorship-ledger/domain/errors"
	httptransport "wellagora/contexts/marketplace-core/sponsorship-ledger/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateRuleHandler(ctx context.Context, req httptransport.CreateRuleRequest) (httptransport.CreateRuleResponse, error) {
	startAt, err := parseOptionalTime(req.StartAt)
	if err != nil {
		return httptransport.CreateRuleResponse{}, domainerrors.ErrInvalidRuleInput
	}
	endAt, err := parseOptionalTime(req.EndAt)
	if err != nil {
		return httptransport.CreateRuleResponse{}, domainerrors.ErrInvalidRuleInput
	}
	rule, err := h.Service.CreateRule(ctx, application.CreateRuleInput{
		SponsorID:            req.SponsorID,
		SponsorName:          req.SponsorName,
		ScopeType:            req.ScopeType,
		ScopeID:              req.ScopeID,
		AmountPerParticipant: req.AmountPerParticipant,
		Currency:             req.Currency,
		BudgetTotal:          req.BudgetTotal,
		MaxParticipants:      req.MaxParticipants,
		StartAt:              startAt,
		EndAt:                endAt,
		ListPrice:            req.ListPrice,
	})
	if err != nil {
		return httptransport.CreateRuleResponse{}, err
	}
	return httptransport.CreateRuleResponse{Rule: mapRule(rule)}, nil
}

func (h Handler) GetRuleHandler(ctx context.Context, ruleID string) (httptransport.GetRuleResponse, error) {
	rule, err := h.Service.GetRule(ctx, ruleID)
	if err != nil {
		return httptransport.GetRuleResponse{}, err
	}
	return httptransport.GetRuleResponse{Rule: mapRule(rule)}, nil
}

func (h Handler) PauseRuleHandler(ctx context.Context, ruleID string) error {
	return h.Service.PauseRule(ctx, ruleID)
}

func (h Handler) ResumeRuleHandler(ctx context.Context, ruleID string) error {
	return h.Service.ResumeRule(ctx, ruleID)
}

func (h Handler) EndRuleHandler(ctx context.Context, ruleID string) error {
	return h.Service.EndRule(ctx, ruleID)
}

func (h Handler) UtilizationHandler(ctx context.Context, sponsorID string) (httptransport.UtilizationResponse, error) {
	items, err := h.Service.Utilization(ctx, sponsorID)
	if err != nil {
		return httptransport.UtilizationResponse{}, err
	}
	result := make([]httptransport.RuleUtilizationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.RuleUtilizationDTO{
			Rule:              mapRule(item.Rule),
			BudgetUtilization: item.BudgetUtilization,
			SeatsRemaining:    item.SeatsRemaining,
		})
	}
	return httptransport.UtilizationResponse{Items: result}, nil
}

func (h Handler) AddCreditsHandler(ctx context.Context, sponsorID string, req httptransport.AddCreditsRequest) (httptransport.CreditAccountResponse, error) {
	account, err := h.Service.AddCredits(ctx, sponsorID, req.Amount)
	if err != nil {
		return httptransport.CreditAccountResponse{}, err
	}
	return mapAccount(account), nil
}

func (h Handler) GetCreditAccountHandler(ctx context.Context, sponsorID string) (httptransport.CreditAccountResponse, error) {
	account, err := h.Service.GetCreditAccount(ctx, sponsorID)
	if err != nil {
		return httptransport.CreditAccountResponse{}, err
	}
	return mapAccount(account), nil
}

func mapRule(rule entities.SupportRule) httptransport.SupportRuleDTO {
	result := httptransport.SupportRuleDTO{
		RuleID:               rule.RuleID,
		SponsorID:            rule.SponsorID,
		SponsorName:          rule.SponsorName,
		ScopeType:            string(rule.ScopeType),
		ScopeID:              rule.ScopeID,
		AmountPerParticipant: rule.AmountPerParticipant,
		Currency:             rule.Currency,
		BudgetTotal:          rule.BudgetTotal,
		BudgetSpent:          rule.BudgetSpent,
		MaxParticipants:      rule.MaxParticipants,
		SeatsUsed:            rule.SeatsUsed,
		Status:               string(rule.Status),
		CreatedAt:            rule.CreatedAt.Format(time.RFC3339),
	}
	if rule.StartAt != nil {
		result.StartAt = rule.StartAt.UTC().Format(time.RFC3339)
	}
	if rule.EndAt != nil {
		result.EndAt = rule.EndAt.UTC().Format(time.RFC3339)
	}
	return result
}

func mapAccount(account entities.CreditAccount) httptransport.CreditAccountResponse {
	return httptransport.CreditAccountResponse{
		SponsorID:    account.SponsorID,
		TotalCredits: account.TotalCredits,
		UsedCredits:  account.UsedCredits,
		Available:    account.Available(),
	}
}

func parseOptionalTime(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	utc := parsed.UTC()
	return &utc, nil
}
