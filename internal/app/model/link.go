package model

import "time"

// Link describes the core short-link entity stored in Postgres. The unique
// index on Slug is the authoritative uniqueness guard; application-level
// existence probes are only an optimization on top of it.
type Link struct {
	ID          string     `db:"id" gorm:"primaryKey;size:36"`
	Slug        string     `db:"slug" gorm:"size:32;not null;uniqueIndex"`
	OriginalURL string     `db:"original_url" gorm:"type:text;not null"`
	OwnerID     *string    `db:"owner_id" gorm:"size:36;index"`
	IsCustom    bool       `db:"is_custom" gorm:"not null;default:false"`
	ExpiresAt   *time.Time `db:"expires_at" gorm:"index"`
	CreatedAt   time.Time  `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `db:"updated_at" gorm:"autoUpdateTime"`

	// Cached page-preview fields, refreshed opportunistically on update.
	MetaTitle       string `db:"meta_title" gorm:"type:text"`
	MetaDescription string `db:"meta_description" gorm:"type:text"`
	MetaImage       string `db:"meta_image" gorm:"type:text"`

	Clicks []Click `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the link is inactive for resolution at the given
// instant. Links without an expiry never expire.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// OwnedBy reports whether the link belongs to the given owner. Anonymous
// links belong to nobody.
func (l *Link) OwnedBy(ownerID string) bool {
	return l.OwnerID != nil && *l.OwnerID == ownerID
}
