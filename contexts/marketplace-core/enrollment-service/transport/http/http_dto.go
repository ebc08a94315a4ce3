package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DecisionResponse struct {
	Allowed             bool   `json:"allowed"`
	Treatment           string `json:"treatment"`
	Reason              string `json:"reason,omitempty"`
	ListPrice           int64  `json:"list_price"`
	UserPays            int64  `json:"user_pays"`
	SponsorContribution int64  `json:"sponsor_contribution,omitempty"`
	SponsorName         string `json:"sponsor_name,omitempty"`
	CreatorEarning      int64  `json:"creator_earning"`
	PlatformFee         int64  `json:"platform_fee"`
	Currency            string `json:"currency"`
}

type EnrollFreeRequest struct {
	UserID string `json:"user_id"`
}

type EnrollmentDTO struct {
	EnrollmentID        string `json:"enrollment_id"`
	ProgramID           string `json:"program_id"`
	UserID              string `json:"user_id"`
	CreatorID           string `json:"creator_id"`
	AccessType          string `json:"access_type"`
	AmountPaid          int64  `json:"amount_paid"`
	SponsorContribution int64  `json:"sponsor_contribution,omitempty"`
	CreatorRevenue      int64  `json:"creator_revenue"`
	PlatformFee         int64  `json:"platform_fee"`
	SupportRuleID       string `json:"support_rule_id,omitempty"`
	PaymentReference    string `json:"payment_reference,omitempty"`
	CreatedAt           string `json:"created_at"`
}

type EnrollFreeResponse struct {
	Enrollment          EnrollmentDTO `json:"enrollment"`
	CurrentParticipants int           `json:"current_participants"`
	ProgramStatus       string        `json:"program_status"`
}

type StartCheckoutRequest struct {
	UserID     string `json:"user_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

type StartCheckoutResponse struct {
	CheckoutID  string `json:"checkout_id"`
	RedirectURL string `json:"redirect_url"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type PaymentWebhookRequest struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type FinalizeCheckoutResponse struct {
	Enrollment EnrollmentDTO `json:"enrollment"`
	Replayed   bool          `json:"replayed"`
}

type ListEnrollmentsResponse struct {
	Items []EnrollmentDTO `json:"items"`
}
