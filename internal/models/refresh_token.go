package models

import "time"

// RefreshToken is a stored, rotatable refresh credential. Every successful
// refresh revokes the presented row and inserts a replacement, so a replayed
// token fails even before its expiry.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"size:36;index" json:"userId"`
	Token     string    `gorm:"type:text;not null" json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsRevoked bool      `gorm:"default:false" json:"isRevoked"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Usable reports whether the token can still be redeemed at the given time.
func (t *RefreshToken) Usable(at time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(at)
}
