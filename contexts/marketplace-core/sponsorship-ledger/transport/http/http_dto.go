package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateRuleRequest struct {
	SponsorID            string `json:"sponsor_id"`
	SponsorName          string `json:"sponsor_name"`
	ScopeType            string `json:"scope_type"`
	ScopeID              string `json:"scope_id"`
	AmountPerParticipant int64  `json:"amount_per_participant"`
	Currency             string `json:"currency"`
	BudgetTotal          int64  `json:"budget_total"`
	MaxParticipants      *int   `json:"max_participants"`
	StartAt              string `json:"start_at"`
	EndAt                string `json:"end_at"`
	ListPrice            int64  `json:"list_price"`
}

type SupportRuleDTO struct {
	RuleID               string `json:"rule_id"`
	SponsorID            string `json:"sponsor_id"`
	SponsorName          string `json:"sponsor_name,omitempty"`
	ScopeType            string `json:"scope_type"`
	ScopeID              string `json:"scope_id"`
	AmountPerParticipant int64  `json:"amount_per_participant"`
	Currency             string `json:"currency"`
	BudgetTotal          int64  `json:"budget_total"`
	BudgetSpent          int64  `json:"budget_spent"`
	MaxParticipants      *int   `json:"max_participants,omitempty"`
	SeatsUsed            int    `json:"seats_used"`
	StartAt              string `json:"start_at,omitempty"`
	EndAt                string `json:"end_at,omitempty"`
	Status               string `json:"status"`
	CreatedAt            string `json:"created_at"`
}

type CreateRuleResponse struct {
	Rule SupportRuleDTO `json:"rule"`
}

type GetRuleResponse struct {
	Rule SupportRuleDTO `json:"rule"`
}

type RuleUtilizationDTO struct {
	Rule              SupportRuleDTO `json:"rule"`
	BudgetUtilization float64        `json:"budget_utilization"`
	SeatsRemaining    int            `json:"seats_remaining"`
}

type UtilizationResponse struct {
	Items []RuleUtilizationDTO `json:"items"`
}

type AddCreditsRequest struct {
	Amount int64 `json:"amount"`
}

type CreditAccountResponse struct {
	SponsorID    string `json:"sponsor_id"`
	TotalCredits int64  `json:"total_credits"`
	UsedCredits  int64  `json:"used_credits"`
	Available    int64  `json:"available"`
}
