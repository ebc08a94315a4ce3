package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	nudgeports "wellagora/contexts/community-impact/nudge-service/ports"
	"wellagora/contexts/marketplace-core/enrollment-service/domain/entities"
	domainerrors "wellagora/contexts/marketplace-core/enrollment-service/domain/errors"
	"wellagora/contexts/marketplace-core/enrollment-service/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Store implements every enrollment port in memory behind one mutex, which
// gives the same atomicity guarantees the postgres adapter gets from a
// transaction: the enrollment insert and the participant increment cannot be
// observed separately.
type Store struct {
	mu sync.Mutex

	programs      map[string]entities.Program
	enrollments   map[string]entities.Enrollment
	checkouts     map[string]entities.Checkout
	outbox        map[string]outboxRecord
	eventDedup    map[string]dedupRecord
	notifications []ports.Notification
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

type dedupRecord struct {
	PayloadHash string
	ExpiresAt   time.Time
}

func NewStore() *Store {
	return &Store{
		programs:    make(map[string]entities.Program),
		enrollments: make(map[string]entities.Enrollment),
		checkouts:   make(map[string]entities.Checkout),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
	}
}

func enrollmentKey(programID, userID string) string {
	return strings.TrimSpace(programID) + "|" + strings.TrimSpace(userID)
}

// SeedProgram installs or replaces a program row. Test and dev helper.
func (s *Store) SeedProgram(program entities.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[program.ProgramID] = program
}

func (s *Store) GetProgram(_ context.Context, programID string) (entities.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	program, ok := s.programs[strings.TrimSpace(programID)]
	if !ok {
		return entities.Program{}, domainerrors.ErrProgramNotFound
	}
	return program, nil
}

func (s *Store) GetEnrollment(_ context.Context, programID string, userID string) (entities.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enrollment, ok := s.enrollments[enrollmentKey(programID, userID)]
	if !ok {
		return entities.Enrollment{}, domainerrors.ErrEnrollmentNotFound
	}
	return enrollment, nil
}

func (s *Store) CreateEnrollment(_ context.Context, enrollment entities.Enrollment) (entities.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := enrollmentKey(enrollment.ProgramID, enrollment.UserID)
	if enrollment.ProgramID == "" || enrollment.UserID == "" {
		return entities.Program{}, domainerrors.ErrInvalidInput
	}
	if _, exists := s.enrollments[key]; exists {
		return entities.Program{}, domainerrors.ErrAlreadyEnrolled
	}

	program, ok := s.programs[enrollment.ProgramID]
	if !ok {
		return entities.Program{}, domainerrors.ErrProgramNotFound
	}
	if program.MaxCapacity != nil && program.CurrentParticipants >= *program.MaxCapacity {
		return entities.Program{}, domainerrors.ErrProgramFull
	}

	program.CurrentParticipants++
	if program.MaxCapacity != nil && program.CurrentParticipants >= *program.MaxCapacity {
		program.Status = entities.ProgramStatusFull
	}
	s.programs[enrollment.ProgramID] = program
	s.enrollments[key] = enrollment
	return program, nil
}

func (s *Store) ListEnrollmentsByUser(_ context.Context, userID string, limit int, offset int) ([]entities.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items := make([]entities.Enrollment, 0)
	for _, item := range s.enrollments {
		if item.UserID == strings.TrimSpace(userID) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []entities.Enrollment{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]entities.Enrollment(nil), items[offset:end]...), nil
}

func (s *Store) CreateCheckout(_ context.Context, checkout entities.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if checkout.CheckoutID == "" {
		return domainerrors.ErrInvalidInput
	}
	s.checkouts[checkout.CheckoutID] = checkout
	return nil
}

func (s *Store) GetCheckoutByReference(_ context.Context, reference string) (entities.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, ok := s.checkouts[strings.TrimSpace(reference)]
	if !ok {
		return entities.Checkout{}, domainerrors.ErrCheckoutNotFound
	}
	return checkout, nil
}

func (s *Store) MarkCheckoutCompleted(_ context.Context, checkoutID string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkout, ok := s.checkouts[strings.TrimSpace(checkoutID)]
	if !ok {
		return domainerrors.ErrCheckoutNotFound
	}
	ts := completedAt.UTC()
	checkout.Status = entities.CheckoutStatusCompleted
	checkout.CompletedAt = &ts
	s.checkouts[checkout.CheckoutID] = checkout
	return nil
}

func (s *Store) ExpireCheckouts(_ context.Context, now time.Time, limit int) ([]entities.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	expired := make([]entities.Checkout, 0)
	for id, checkout := range s.checkouts {
		if len(expired) >= limit {
			break
		}
		if checkout.ExpiredAt(now) {
			checkout.Status = entities.CheckoutStatusExpired
			s.checkouts[id] = checkout
			expired = append(expired, checkout)
		}
	}
	return expired, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidInput
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrWriteConflict
		}
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	if key == "" {
		return false, domainerrors.ErrInvalidInput
	}
	if existing, ok := s.eventDedup[key]; ok {
		if existing.PayloadHash != payloadHash {
			return false, domainerrors.ErrWriteConflict
		}
		return true, nil
	}
	s.eventDedup[key] = dedupRecord{PayloadHash: payloadHash, ExpiresAt: expiresAt.UTC()}
	return false, nil
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

func (s *Store) GetCreatorStats(_ context.Context, creatorID string) (nudgeports.CreatorStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := nudgeports.CreatorStats{CreatorID: strings.TrimSpace(creatorID)}
	var ratingSum float64
	var ratedCount int
	for _, program := range s.programs {
		if program.CreatorID != stats.CreatorID {
			continue
		}
		stats.Programs = append(stats.Programs, nudgeports.CreatorProgramStats{
			ProgramID:           program.ProgramID,
			Title:               program.Title,
			PriceHUF:            program.PriceHUF,
			MaxCapacity:         program.MaxCapacity,
			CurrentParticipants: program.CurrentParticipants,
			IsPublished:         program.IsPublished,
			AverageRating:       program.AverageRating,
		})
		if program.IsPublished {
			stats.PublishedPrograms++
		}
		stats.TotalParticipants += program.CurrentParticipants
		if program.PriceHUF > 0 {
			stats.HasPaidProgram = true
		}
		if program.AverageRating > 0 {
			ratingSum += program.AverageRating
			ratedCount++
		}
	}
	if ratedCount > 0 {
		stats.AverageRating = ratingSum / float64(ratedCount)
	}
	sort.Slice(stats.Programs, func(i, j int) bool {
		return stats.Programs[i].ProgramID < stats.Programs[j].ProgramID
	})
	return stats, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
