package dto

// Webhook event types delivered by the custody service
const (
	EventTransactionCreated       = "TRANSACTION_CREATED"
	EventTransactionStatusUpdated = "TRANSACTION_STATUS_UPDATED"
)

// Transfer peer types in custody event payloads
const (
	PeerVaultAccount   = "VAULT_ACCOUNT"
	PeerUnknown        = "UNKNOWN"
	PeerOneTimeAddress = "ONE_TIME_ADDRESS"
)

// TransferPeer ... source or destination of a custody transaction
type TransferPeer struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	OneTimeAddress string `json:"oneTimeAddress,omitempty"`
}

// AmountInfo ...
type AmountInfo struct {
	Amount string `json:"amount"`
}

// BlockInfo ...
type BlockInfo struct {
	BlockHeight int64 `json:"blockHeight,string"`
}

// TransactionSnapshot ... the transaction state carried by a webhook delivery
type TransactionSnapshot struct {
	ID                 string       `json:"id" validate:"required"`
	Status             string       `json:"status" validate:"required"`
	AssetID            string       `json:"assetId"`
	AmountInfo         AmountInfo   `json:"amountInfo"`
	Source             TransferPeer `json:"source"`
	Destination        TransferPeer `json:"destination"`
	SourceAddress      string       `json:"sourceAddress"`
	DestinationAddress string       `json:"destinationAddress"`
	TxHash             string       `json:"txHash"`
	BlockInfo          BlockInfo    `json:"blockInfo"`
	CreatedAt          int64        `json:"createdAt"`
}

// WebhookEvent ... inbound webhook body
type WebhookEvent struct {
	Type string              `json:"type" validate:"required"`
	Data TransactionSnapshot `json:"data"`
}
