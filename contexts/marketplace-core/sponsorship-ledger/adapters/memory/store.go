package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"wellagora/contexts/marketplace-core/sponsorship-ledger/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/sponsorship-ledger/domain/errors"
	"wellagora/contexts/marketplace-core/sponsorship-ledger/ports"

	"github.com/google/uuid"
)

// Store implements every sponsorship port in memory behind one mutex. The
// reserve path mirrors the postgres adapter's conditional debit: counter
// check, debit, and allocation insert happen under one lock.
type Store struct {
	mu sync.Mutex

	rules         map[string]entities.SupportRule
	allocations   map[string]entities.Allocation
	allocByKey    map[string]string
	credits       map[string]entities.CreditAccount
	outbox        []ports.EventEnvelope
	notifications []ports.Notification
}

func NewStore() *Store {
	return &Store{
		rules:       make(map[string]entities.SupportRule),
		allocations: make(map[string]entities.Allocation),
		allocByKey:  make(map[string]string),
		credits:     make(map[string]entities.CreditAccount),
	}
}

func allocationKey(ruleID, programID, userID string) string {
	return ruleID + "|" + programID + "|" + userID
}

func (s *Store) CreateRule(_ context.Context, rule entities.SupportRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.RuleID == "" {
		return domainerrors.ErrInvalidRuleInput
	}
	if _, exists := s.rules[rule.RuleID]; exists {
		return domainerrors.ErrWriteConflict
	}
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) GetRule(_ context.Context, ruleID string) (entities.SupportRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[strings.TrimSpace(ruleID)]
	if !ok {
		return entities.SupportRule{}, domainerrors.ErrRuleNotFound
	}
	return rule, nil
}

func (s *Store) ListRulesBySponsor(_ context.Context, sponsorID string) ([]entities.SupportRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.SupportRule, 0)
	for _, rule := range s.rules {
		if rule.SponsorID == strings.TrimSpace(sponsorID) {
			items = append(items, rule)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func scopeRank(scopeType entities.ScopeType) int {
	switch scopeType {
	case entities.ScopeTypeProgram:
		return 0
	case entities.ScopeTypeEvent:
		return 1
	case entities.ScopeTypeCreator:
		return 2
	case entities.ScopeTypeCategory:
		return 3
	}
	return 4
}

func ruleMatchesScope(rule entities.SupportRule, scope ports.ScopeRefs) bool {
	switch rule.ScopeType {
	case entities.ScopeTypeProgram:
		return rule.ScopeID == scope.ProgramID && scope.ProgramID != ""
	case entities.ScopeTypeCategory:
		return rule.ScopeID == scope.Category && scope.Category != ""
	case entities.ScopeTypeCreator:
		return rule.ScopeID == scope.CreatorID && scope.CreatorID != ""
	case entities.ScopeTypeEvent:
		return rule.ScopeID == scope.EventID && scope.EventID != ""
	}
	return false
}

func (s *Store) FindActiveRules(_ context.Context, scope ports.ScopeRefs, now time.Time) ([]entities.SupportRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.SupportRule, 0)
	for _, rule := range s.rules {
		if rule.Status != entities.RuleStatusActive || !rule.InWindow(now) {
			continue
		}
		if ruleMatchesScope(rule, scope) {
			items = append(items, rule)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		ri, rj := scopeRank(items[i].ScopeType), scopeRank(items[j].ScopeType)
		if ri != rj {
			return ri < rj
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateRuleStatus(_ context.Context, ruleID string, from entities.RuleStatus, to entities.RuleStatus, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[strings.TrimSpace(ruleID)]
	if !ok {
		return domainerrors.ErrRuleNotFound
	}
	if rule.Status != from {
		return domainerrors.ErrWriteConflict
	}
	rule.Status = to
	rule.UpdatedAt = now.UTC()
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) SetAlertSent(_ context.Context, ruleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, ok := s.rules[strings.TrimSpace(ruleID)]
	if !ok {
		return domainerrors.ErrRuleNotFound
	}
	if rule.AlertSent {
		return domainerrors.ErrWriteConflict
	}
	rule.AlertSent = true
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) ReserveAllocation(_ context.Context, allocation entities.Allocation) (entities.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := allocationKey(allocation.RuleID, allocation.ProgramID, allocation.UserID)
	if existingID, ok := s.allocByKey[key]; ok {
		existing := s.allocations[existingID]
		if existing.Status != entities.AllocationStatusReleased {
			return existing, nil
		}
		// A released seat can be taken again; the new reservation debits
		// the counters afresh.
		if err := s.debitRuleLocked(allocation.RuleID, allocation.Amount, allocation.CreatedAt); err != nil {
			return entities.Allocation{}, err
		}
		existing.Status = entities.AllocationStatusReserved
		existing.Amount = allocation.Amount
		existing.Currency = allocation.Currency
		existing.CreatedAt = allocation.CreatedAt
		existing.ReleasedAt = nil
		s.allocations[existing.AllocationID] = existing
		return existing, nil
	}

	if err := s.debitRuleLocked(allocation.RuleID, allocation.Amount, allocation.CreatedAt); err != nil {
		return entities.Allocation{}, err
	}

	s.allocations[allocation.AllocationID] = allocation
	s.allocByKey[key] = allocation.AllocationID
	return allocation, nil
}

// debitRuleLocked applies the conditional budget and seat debit. Caller holds
// the mutex.
func (s *Store) debitRuleLocked(ruleID string, amount int64, at time.Time) error {
	rule, ok := s.rules[ruleID]
	if !ok {
		return domainerrors.ErrRuleNotFound
	}
	if rule.BudgetSpent+amount > rule.BudgetTotal {
		return domainerrors.ErrQuotaExhausted
	}
	if rule.MaxParticipants != nil && rule.SeatsUsed >= *rule.MaxParticipants {
		return domainerrors.ErrQuotaExhausted
	}

	rule.BudgetSpent += amount
	rule.SeatsUsed++
	rule.UpdatedAt = at.UTC()
	s.rules[rule.RuleID] = rule
	return nil
}

func (s *Store) GetAllocationByKey(_ context.Context, ruleID string, programID string, userID string) (entities.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocationID, ok := s.allocByKey[allocationKey(strings.TrimSpace(ruleID), strings.TrimSpace(programID), strings.TrimSpace(userID))]
	if !ok {
		return entities.Allocation{}, domainerrors.ErrAllocationNotFound
	}
	return s.allocations[allocationID], nil
}

func (s *Store) GetAllocation(_ context.Context, allocationID string) (entities.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocation, ok := s.allocations[strings.TrimSpace(allocationID)]
	if !ok {
		return entities.Allocation{}, domainerrors.ErrAllocationNotFound
	}
	return allocation, nil
}

func (s *Store) CaptureAllocation(_ context.Context, allocationID string, now time.Time) (entities.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocation, ok := s.allocations[strings.TrimSpace(allocationID)]
	if !ok {
		return entities.Allocation{}, domainerrors.ErrAllocationNotFound
	}
	switch allocation.Status {
	case entities.AllocationStatusCaptured:
		return allocation, nil
	case entities.AllocationStatusReleased:
		return entities.Allocation{}, domainerrors.ErrWriteConflict
	}

	ts := now.UTC()
	allocation.Status = entities.AllocationStatusCaptured
	allocation.CapturedAt = &ts
	s.allocations[allocation.AllocationID] = allocation

	account := s.credits[allocation.SponsorID]
	account.SponsorID = allocation.SponsorID
	account.UsedCredits += allocation.Amount
	account.UpdatedAt = ts
	s.credits[allocation.SponsorID] = account
	return allocation, nil
}

func (s *Store) ReleaseAllocation(_ context.Context, allocationID string, now time.Time) (entities.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allocation, ok := s.allocations[strings.TrimSpace(allocationID)]
	if !ok {
		return entities.Allocation{}, domainerrors.ErrAllocationNotFound
	}
	switch allocation.Status {
	case entities.AllocationStatusReleased:
		return allocation, nil
	case entities.AllocationStatusCaptured:
		return entities.Allocation{}, domainerrors.ErrWriteConflict
	}

	rule, ok := s.rules[allocation.RuleID]
	if ok {
		rule.BudgetSpent -= allocation.Amount
		if rule.BudgetSpent < 0 {
			rule.BudgetSpent = 0
		}
		if rule.SeatsUsed > 0 {
			rule.SeatsUsed--
		}
		rule.UpdatedAt = now.UTC()
		s.rules[rule.RuleID] = rule
	}

	ts := now.UTC()
	allocation.Status = entities.AllocationStatusReleased
	allocation.ReleasedAt = &ts
	s.allocations[allocation.AllocationID] = allocation
	return allocation, nil
}

func (s *Store) GetAccount(_ context.Context, sponsorID string) (entities.CreditAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.credits[strings.TrimSpace(sponsorID)]
	if !ok {
		return entities.CreditAccount{SponsorID: strings.TrimSpace(sponsorID)}, nil
	}
	return account, nil
}

func (s *Store) AddCredits(_ context.Context, sponsorID string, amount int64, now time.Time) (entities.CreditAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.credits[strings.TrimSpace(sponsorID)]
	account.SponsorID = strings.TrimSpace(sponsorID)
	account.TotalCredits += amount
	account.UpdatedAt = now.UTC()
	s.credits[account.SponsorID] = account
	return account, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.outbox {
		if existing.EventID == envelope.EventID {
			if !bytes.Equal(existing.Data, envelope.Data) {
				return domainerrors.ErrWriteConflict
			}
			return nil
		}
	}
	if _, err := json.Marshal(envelope); err != nil {
		return err
	}
	s.outbox = append(s.outbox, envelope)
	return nil
}

func (s *Store) Notify(_ context.Context, notification ports.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

// Notifications returns a copy of everything sent through the store's
// notification sink. Test helper.
func (s *Store) Notifications() []ports.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Notification(nil), s.notifications...)
}

// Outbox returns a copy of appended envelopes. Test helper.
func (s *Store) Outbox() []ports.EventEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.EventEnvelope(nil), s.outbox...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
