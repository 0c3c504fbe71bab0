package model

import (
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// WalletAssetBalance ... The user-visible ledger row, one per (wallet, assetId).
// TotalBalance only changes on transaction completion or failure reversal; the
// pending fields absorb in-flight amounts until a terminal state is reached.
type WalletAssetBalance struct {
	BaseModel
	WalletID               uuid.UUID       `gorm:"type:VARCHAR(36);not null;unique_index:idx_wallet_asset" json:"walletId"`
	AssetID                string          `gorm:"not null;unique_index:idx_wallet_asset" json:"assetId"`
	TotalBalance           decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0" json:"totalBalance"`
	IncomingPendingBalance decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0" json:"incomingPendingBalance"`
	OutgoingPendingBalance decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0" json:"outgoingPendingBalance"`
}
