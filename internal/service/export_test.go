package service

import (
	"time"

	"github.com/google/uuid"
)

// SetClock replaces the time source of the service and its token issuer.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
	s.tokens.now = now
}

var SplitRefresh = func(raw string) (uuid.UUID, string, bool) {
	return splitRefresh(raw)
}
