package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Author is an identity allowed to submit contributions. The bearer secret is
// stored only as an HMAC lookup key and an argon2id hash.
type Author struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"type:text;not null" json:"name"`
	Avatar string    `gorm:"type:text" json:"avatar,omitempty"`

	SecretKeyHMAC    string `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	SecretKeyHashPHC string `gorm:"type:varchar(255);not null" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Author) TableName() string { return "authors" }

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
