package model

import (
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// TxnStatus ... Custody service transaction lifecycle statuses
type TxnStatus struct {
	SUBMITTED, CONFIRMING, BROADCASTING, QUEUED, PENDING_SIGNATURE, PENDING_AUTHORIZATION,
	PENDING_AML_SCREENING, PENDING_ENRICHMENT, CANCELLING, COMPLETED, CANCELLED, BLOCKED,
	REJECTED, FAILED string
}

// StatusBucket ... Lifecycle bucket a custody status maps into
type StatusBucket string

var (
	TransactionStatus = TxnStatus{
		SUBMITTED:             "SUBMITTED",
		CONFIRMING:            "CONFIRMING",
		BROADCASTING:          "BROADCASTING",
		QUEUED:                "QUEUED",
		PENDING_SIGNATURE:     "PENDING_SIGNATURE",
		PENDING_AUTHORIZATION: "PENDING_AUTHORIZATION",
		PENDING_AML_SCREENING: "PENDING_AML_SCREENING",
		PENDING_ENRICHMENT:    "PENDING_ENRICHMENT",
		CANCELLING:            "CANCELLING",
		COMPLETED:             "COMPLETED",
		CANCELLED:             "CANCELLED",
		BLOCKED:               "BLOCKED",
		REJECTED:              "REJECTED",
		FAILED:                "FAILED",
	}

	pendingStatuses = []string{
		TransactionStatus.SUBMITTED,
		TransactionStatus.CONFIRMING,
		TransactionStatus.BROADCASTING,
		TransactionStatus.QUEUED,
		TransactionStatus.PENDING_SIGNATURE,
		TransactionStatus.PENDING_AUTHORIZATION,
		TransactionStatus.PENDING_AML_SCREENING,
		TransactionStatus.PENDING_ENRICHMENT,
		TransactionStatus.CANCELLING,
	}
)

const (
	BucketPending   StatusBucket = "PENDING"
	BucketCompleted StatusBucket = "COMPLETED"
	BucketFailed    StatusBucket = "FAILED"
)

// BucketForStatus maps a raw custody status onto its lifecycle bucket. Re-evaluated
// on every status update, never cached on the transaction record.
func BucketForStatus(status string) StatusBucket {
	if status == TransactionStatus.COMPLETED {
		return BucketCompleted
	}
	for _, pending := range pendingStatuses {
		if status == pending {
			return BucketPending
		}
	}
	return BucketFailed
}

// Transaction ... Ledger record of one transfer observed from or submitted to the custody service
type Transaction struct {
	BaseModel
	WalletID                   uuid.UUID       `gorm:"type:VARCHAR(36);index" json:"walletId"`
	CustodyTxID                string          `gorm:"not null;unique_index" json:"custodyTxId"`
	AssetID                    string          `gorm:"not null;index" json:"assetId"`
	Amount                     decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0" json:"amount"`
	Status                     string          `gorm:"not null" json:"status"`
	Outgoing                   bool            `gorm:"default:0" json:"outgoing"`
	IsSweeping                 bool            `gorm:"default:0" json:"isSweeping"`
	TxHash                     string          `json:"txHash"`
	SourceVaultAccountID       uuid.UUID       `gorm:"type:VARCHAR(36)" json:"sourceVaultAccountId"`
	DestinationVaultAccountID  uuid.UUID       `gorm:"type:VARCHAR(36)" json:"destinationVaultAccountId"`
	SourceExternalAddress      string          `json:"sourceExternalAddress"`
	DestinationExternalAddress string          `json:"destinationExternalAddress"`
	ExternalTxID               string          `json:"externalTxId"`
}
