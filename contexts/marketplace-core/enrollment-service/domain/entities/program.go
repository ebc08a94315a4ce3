package entities

import (
	"strings"
	"time"
)

type ProgramStatus string

const (
	ProgramStatusDraft     ProgramStatus = "draft"
	ProgramStatusPublished ProgramStatus = "published"
	ProgramStatusSponsored ProgramStatus = "sponsored"
	ProgramStatusFull      ProgramStatus = "full"
	ProgramStatusArchived  ProgramStatus = "archived"
)

// Program is a creator-published offering on the marketplace. Price is stored
// in minor currency units; zero means free. A nil MaxCapacity means unlimited
// seats. CurrentParticipants never exceeds MaxCapacity when it is set.
type Program struct {
	ProgramID           string
	CreatorID           string
	Title               string
	Category            string
	PriceHUF            int64
	Currency            string
	MaxCapacity         *int
	CurrentParticipants int
	IsPublished         bool
	IsSponsored         bool
	SponsorName         string
	AverageRating       float64
	Status              ProgramStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EffectiveStatus derives the lifecycle status for legacy rows that only
// carry the published flag.
func (p Program) EffectiveStatus() ProgramStatus {
	if p.Status != "" {
		return p.Status
	}
	if p.IsPublished {
		return ProgramStatusPublished
	}
	return ProgramStatusDraft
}

func (p Program) IsFree() bool {
	return p.PriceHUF <= 0
}

// AtCapacity reports whether every seat is taken. Programs without a
// capacity bound are never at capacity.
func (p Program) AtCapacity() bool {
	if p.EffectiveStatus() == ProgramStatusFull {
		return true
	}
	return p.MaxCapacity != nil && p.CurrentParticipants >= *p.MaxCapacity
}

// CanEnroll runs the eligibility checks in order: availability first, then
// capacity. The reason codes feed user-visible messages verbatim.
func (p Program) CanEnroll() (bool, string) {
	status := p.EffectiveStatus()
	if status != ProgramStatusPublished && status != ProgramStatusSponsored && !p.IsPublished {
		return false, ReasonNotPublished
	}
	if p.AtCapacity() {
		return false, ReasonFull
	}
	return true, ReasonOK
}

// FillRatio is the fraction of a bounded program's seats that are taken.
// Unbounded programs report zero.
func (p Program) FillRatio() float64 {
	if p.MaxCapacity == nil || *p.MaxCapacity <= 0 {
		return 0
	}
	return float64(p.CurrentParticipants) / float64(*p.MaxCapacity)
}

const (
	ReasonOK           = "ok"
	ReasonNotPublished = "not_published"
	ReasonFull         = "full"
)

func NormalizeCurrency(currency string) string {
	value := strings.ToUpper(strings.TrimSpace(currency))
	if value == "" {
		return "HUF"
	}
	return value
}
