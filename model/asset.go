package model

import (
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// Asset ... One (custody sub-account, chain asset) pairing owned by a wallet.
// Balance is the provider-observed on-chain balance for the sub-account, used
// only for sweep eligibility. It is not the user-visible balance.
type Asset struct {
	BaseModel
	WalletID       uuid.UUID       `gorm:"type:VARCHAR(36);not null;index" json:"walletId"`
	VaultAccountID uuid.UUID       `gorm:"type:VARCHAR(36);not null;index" json:"vaultAccountId"`
	AssetID        string          `gorm:"not null;index" json:"assetId"`
	Address        string          `gorm:"index" json:"address"`
	Balance        decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0" json:"balance"`
	IsSwept        bool            `gorm:"default:0" json:"isSwept"`
}
