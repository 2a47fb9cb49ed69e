package models

import (
	"testing"
	"time"
)

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	live := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	if !live.Usable(now) {
		t.Error("unrevoked, unexpired token should be usable")
	}

	revoked := RefreshToken{ExpiresAt: now.Add(time.Hour), IsRevoked: true}
	if revoked.Usable(now) {
		t.Error("revoked token must not be usable")
	}

	expired := RefreshToken{ExpiresAt: now.Add(-time.Minute)}
	if expired.Usable(now) {
		t.Error("expired token must not be usable")
	}
}
