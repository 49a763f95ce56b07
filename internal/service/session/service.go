package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session id")

// Service issues and validates session identities. Session state itself is
// created lazily by the checkout orchestrator on first mutation.
type Service struct {
	ttl time.Duration
	ids func() string
}

func New(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &Service{ttl: ttl, ids: uuid.NewString}
}

// Issue returns a fresh session id.
func (s *Service) Issue() string {
	return s.ids()
}

// Parse normalizes a client supplied session id.
func (s *Service) Parse(raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidSession
	}
	return id.String(), nil
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
