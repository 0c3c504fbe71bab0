package services

import (
	"custody-processor/dto"
	"custody-processor/utility/appError"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// ICustodyClient ... the remote custody capability this core calls through
type ICustodyClient interface {
	CreateTransfer(request dto.CreateTransferRequest) (dto.CreateTransferResponse, error)
	GetSubAccountAssetBalance(subAccountId, assetId string) (dto.SubAccountAssetBalance, error)
	GetUnspentInputCount(subAccountId, assetId string) (int, error)
	GetMaxSpendableAmount(subAccountId, assetId string) (decimal.Decimal, error)
	GetAddresses(subAccountId, assetId string) ([]dto.AddressEntry, error)
	GetTransactionStatus(id string) (string, error)
}

// INotificationSink ... fire-and-forget push channel keyed by user id. Delivery
// failure must never fail the triggering operation.
type INotificationSink interface {
	Notify(userId uuid.UUID, eventType string, payload interface{})
}

func serviceError(code int, errType string, err error) error {
	return appError.Err{
		ErrCode: code,
		ErrType: errType,
		Err:     err,
	}
}
