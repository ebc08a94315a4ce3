package memory

import (
	"context"
	"sync"
	"time"

	"wellagora/contexts/community-impact/nudge-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory nudge log plus a recording notification sink.
type Store struct {
	mu sync.Mutex

	nudges        map[string]ports.NudgeRecord
	notifications []ports.Notification
}

func NewStore() *Store {
	return &Store{
		nudges: make(map[string]ports.NudgeRecord),
	}
}

func nudgeKey(record ports.NudgeRecord) string {
	return record.CreatorID + "|" + record.NudgeType + "|" + record.SubjectID
}

func (s *Store) RecordNudge(_ context.Context, record ports.NudgeRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nudgeKey(record)
	if _, exists := s.nudges[key]; exists {
		return false, nil
	}
	s.nudges[key] = record
	return true, nil
}

func (s *Store) Notify(_ context.Context, notification ports.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, notification)
	return nil
}

// Notifications returns a copy of delivered nudges. Test helper.
func (s *Store) Notifications() []ports.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Notification(nil), s.notifications...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
