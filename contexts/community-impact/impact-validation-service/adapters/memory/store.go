package memory

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"wellagora/contexts/community-impact/impact-validation-service/domain/entities"
	domainerrors "wellagora/contexts/community-impact/impact-validation-service/domain/errors"
	"wellagora/contexts/community-impact/impact-validation-service/ports"

	"github.com/google/uuid"
)

// Store implements every impact port in memory behind one mutex.
type Store struct {
	mu sync.Mutex

	challenges    map[string]entities.ChallengeDefinition
	completions   map[string]entities.Completion
	records       map[string]entities.ImpactRecord
	outbox        []ports.EventEnvelope
	notifications []ports.Notification
}

func NewStore() *Store {
	return &Store{
		challenges:  make(map[string]entities.ChallengeDefinition),
		completions: make(map[string]entities.Completion),
		records:     make(map[string]entities.ImpactRecord),
	}
}

// SeedChallenge installs or replaces a challenge. Test and dev helper.
func (s *Store) SeedChallenge(challenge entities.ChallengeDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[challenge.ChallengeID] = challenge
}

func (s *Store) CreateChallenge(_ context.Context, challenge entities.ChallengeDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if challenge.ChallengeID == "" {
		return domainerrors.ErrInvalidChallenge
	}
	if _, exists := s.challenges[challenge.ChallengeID]; exists {
		return domainerrors.ErrWriteConflict
	}
	s.challenges[challenge.ChallengeID] = challenge
	return nil
}

func (s *Store) GetChallenge(_ context.Context, challengeID string) (entities.ChallengeDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[strings.TrimSpace(challengeID)]
	if !ok {
		return entities.ChallengeDefinition{}, domainerrors.ErrChallengeNotFound
	}
	return challenge, nil
}

func (s *Store) ListChallenges(_ context.Context, category string) ([]entities.ChallengeDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.ChallengeDefinition, 0)
	for _, challenge := range s.challenges {
		if category != "" && string(challenge.Category) != category {
			continue
		}
		items = append(items, challenge)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateCompletion(_ context.Context, completion entities.Completion, record entities.ImpactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if completion.CompletionID == "" || record.RecordID == "" {
		return domainerrors.ErrInvalidInput
	}
	if _, exists := s.completions[completion.CompletionID]; exists {
		return domainerrors.ErrWriteConflict
	}
	s.completions[completion.CompletionID] = completion
	s.records[record.RecordID] = record
	return nil
}

func (s *Store) ListCompletionsByUser(_ context.Context, userID string, limit int, offset int) ([]entities.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items := make([]entities.Completion, 0)
	for _, item := range s.completions {
		if item.UserID == strings.TrimSpace(userID) {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if offset >= len(items) {
		return []entities.Completion{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return append([]entities.Completion(nil), items[offset:end]...), nil
}

func (s *Store) ListImpactRecords(_ context.Context, userID string, from time.Time, to time.Time) ([]entities.ImpactRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entities.ImpactRecord, 0)
	for _, record := range s.records {
		if record.UserID != strings.TrimSpace(userID) {
			continue
		}
		if record.CreatedAt.Before(from) || !record.CreatedAt.Before(to) {
			continue
		}
		items = append(items, record)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
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
