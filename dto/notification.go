package dto

// Notification event types pushed to users
const (
	NotifyNewIncomingTransaction = "new_incoming_transaction"
	NotifyTransactionStatus      = "transaction_status"
	NotifyBalanceUpdate          = "balance_update"
)

// BalanceUpdateNotice ... payload for a balance_update push
type BalanceUpdateNotice struct {
	AssetID string `json:"assetId"`
	Amount  string `json:"amount"`
}
