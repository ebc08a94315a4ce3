package postgresadapter

import (
	"time"

	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
)

type programModel struct {
	ProgramID           string  `gorm:"column:program_id;primaryKey"`
	CreatorID           string  `gorm:"column:creator_id;index"`
	Title               string  `gorm:"column:title"`
	Category            string  `gorm:"column:category"`
	PriceHUF            int64   `gorm:"column:price_huf"`
	Currency            string  `gorm:"column:currency"`
	MaxCapacity         *int    `gorm:"column:max_capacity"`
	CurrentParticipants int     `gorm:"column:current_participants"`
	IsPublished         bool    `gorm:"column:is_published"`
	IsSponsored         bool    `gorm:"column:is_sponsored"`
	SponsorName         string  `gorm:"column:sponsor_name"`
	AverageRating       float64 `gorm:"column:average_rating"`
	Status              string  `gorm:"column:status"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (programModel) TableName() string { return "programs" }

func (m programModel) toEntity() entities.Program {
	return entities.Program{
		ProgramID:           m.ProgramID,
		CreatorID:           m.CreatorID,
		Title:               m.Title,
		Category:            m.Category,
		PriceHUF:            m.PriceHUF,
		Currency:            m.Currency,
		MaxCapacity:         m.MaxCapacity,
		CurrentParticipants: m.CurrentParticipants,
		IsPublished:         m.IsPublished,
		IsSponsored:         m.IsSponsored,
		SponsorName:         m.SponsorName,
		AverageRating:       m.AverageRating,
		Status:              entities.ProgramStatus(m.Status),
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type enrollmentModel struct {
	EnrollmentID        string    `gorm:"column:enrollment_id;primaryKey"`
	ProgramID           string    `gorm:"column:program_id;uniqueIndex:idx_enrollments_program_user"`
	UserID              string    `gorm:"column:user_id;uniqueIndex:idx_enrollments_program_user"`
	CreatorID           string    `gorm:"column:creator_id"`
	AccessType          string    `gorm:"column:access_type"`
	AmountPaid          int64     `gorm:"column:amount_paid"`
	SponsorContribution int64     `gorm:"column:sponsor_contribution"`
	CreatorRevenue      int64     `gorm:"column:creator_revenue"`
	PlatformFee         int64     `gorm:"column:platform_fee"`
	SupportRuleID       string    `gorm:"column:support_rule_id"`
	PaymentReference    string    `gorm:"column:payment_reference"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

func (enrollmentModel) TableName() string { return "enrollments" }

func enrollmentModelFromEntity(e entities.Enrollment) enrollmentModel {
	return enrollmentModel{
		EnrollmentID:        e.EnrollmentID,
		ProgramID:           e.ProgramID,
		UserID:              e.UserID,
		CreatorID:           e.CreatorID,
		AccessType:          string(e.AccessType),
		AmountPaid:          e.AmountPaid,
		SponsorContribution: e.SponsorContribution,
		CreatorRevenue:      e.CreatorRevenue,
		PlatformFee:         e.PlatformFee,
		SupportRuleID:       e.SupportRuleID,
		PaymentReference:    e.PaymentReference,
		CreatedAt:           e.CreatedAt.UTC(),
	}
}

func (m enrollmentModel) toEntity() entities.Enrollment {
	return entities.Enrollment{
		EnrollmentID:        m.EnrollmentID,
		ProgramID:           m.ProgramID,
		UserID:              m.UserID,
		CreatorID:           m.CreatorID,
		AccessType:          entities.AccessType(m.AccessType),
		AmountPaid:          m.AmountPaid,
		SponsorContribution: m.SponsorContribution,
		CreatorRevenue:      m.CreatorRevenue,
		PlatformFee:         m.PlatformFee,
		SupportRuleID:       m.SupportRuleID,
		PaymentReference:    m.PaymentReference,
		CreatedAt:           m.CreatedAt.UTC(),
	}
}

type checkoutModel struct {
	CheckoutID          string     `gorm:"column:checkout_id;primaryKey"`
	ProgramID           string     `gorm:"column:program_id;index"`
	UserID              string     `gorm:"column:user_id;index"`
	CreatorID           string     `gorm:"column:creator_id"`
	Amount              int64      `gorm:"column:amount"`
	ListPrice           int64      `gorm:"column:list_price"`
	SponsorContribution int64      `gorm:"column:sponsor_contribution"`
	SupportRuleID       string     `gorm:"column:support_rule_id"`
	Currency            string     `gorm:"column:currency"`
	Status              string     `gorm:"column:status;index"`
	RedirectURL         string     `gorm:"column:redirect_url"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
	ExpiresAt           time.Time  `gorm:"column:expires_at"`
	CompletedAt         *time.Time `gorm:"column:completed_at"`
}

func (checkoutModel) TableName() string { return "checkouts" }

func checkoutModelFromEntity(c entities.Checkout) checkoutModel {
	return checkoutModel{
		CheckoutID:          c.CheckoutID,
		ProgramID:           c.ProgramID,
		UserID:              c.UserID,
		CreatorID:           c.CreatorID,
		Amount:              c.Amount,
		ListPrice:           c.ListPrice,
		SponsorContribution: c.SponsorContribution,
		SupportRuleID:       c.SupportRuleID,
		Currency:            c.Currency,
		Status:              string(c.Status),
		RedirectURL:         c.RedirectURL,
		CreatedAt:           c.CreatedAt.UTC(),
		ExpiresAt:           c.ExpiresAt.UTC(),
		CompletedAt:         c.CompletedAt,
	}
}

func (m checkoutModel) toEntity() entities.Checkout {
	return entities.Checkout{
		CheckoutID:          m.CheckoutID,
		ProgramID:           m.ProgramID,
		UserID:              m.UserID,
		CreatorID:           m.CreatorID,
		Amount:              m.Amount,
		ListPrice:           m.ListPrice,
		SponsorContribution: m.SponsorContribution,
		SupportRuleID:       m.SupportRuleID,
		Currency:            m.Currency,
		Status:              entities.CheckoutStatus(m.Status),
		RedirectURL:         m.RedirectURL,
		CreatedAt:           m.CreatedAt.UTC(),
		ExpiresAt:           m.ExpiresAt.UTC(),
		CompletedAt:         m.CompletedAt,
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string { return "outbox" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string { return "event_dedup" }
