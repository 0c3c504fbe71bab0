package errorcode

const (
	SERVER_ERR       = "SERVER_ERR"
	RECORD_NOT_FOUND = "RECORD_NOT_FOUND"
	INPUT_ERR        = "INPUT_ERR"

	// Webhook / state machine
	UNKNOWN_EVENT_TYPE    = "UNKNOWN_EVENT_TYPE"
	WALLET_NOT_FOUND      = "WALLET_NOT_FOUND"
	ASSET_NOT_FOUND       = "ASSET_NOT_FOUND"
	BALANCE_INCONSISTENT  = "BALANCE_INCONSISTENT"
	TRANSACTION_NOT_FOUND = "TRANSACTION_NOT_FOUND"
	INSUFFICIENT_BALANCE  = "INSUFFICIENT_BALANCE"
	EXTERNAL_SERVICE_ERR  = "EXTERNAL_SERVICE_ERR"
)
