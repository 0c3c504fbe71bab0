package model

import (
	uuid "github.com/satori/go.uuid"
)

// Wallet ... One per user, owns the user's assets and ledger balances
type Wallet struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:VARCHAR(36);not null;unique_index" json:"userId"`
	Name   string    `json:"name"`
}
