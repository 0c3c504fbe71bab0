package dto

// Fee levels accepted by the custody service
const (
	FeeLevelLow    = "LOW"
	FeeLevelMedium = "MEDIUM"
	FeeLevelHigh   = "HIGH"
)

// CreateTransferRequest ... outbound transfer submission
type CreateTransferRequest struct {
	AssetID      string       `json:"assetId"`
	Amount       string       `json:"amount"`
	Source       TransferPeer `json:"source"`
	Destination  TransferPeer `json:"destination"`
	FeeLevel     string       `json:"feeLevel,omitempty"`
	Note         string       `json:"note,omitempty"`
	ExternalTxID string       `json:"externalTxId,omitempty"`
}

// CreateTransferResponse ...
type CreateTransferResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SubAccountAssetBalance ... provider-reported balance for one sub-account asset
type SubAccountAssetBalance struct {
	Available   string `json:"available"`
	Total       string `json:"total"`
	BlockHeight int64  `json:"blockHeight,string"`
}

// UnspentInput ...
type UnspentInput struct {
	TxHash string `json:"txHash"`
	Index  int    `json:"index"`
	Amount string `json:"amount"`
}

// MaxSpendableAmountResponse ...
type MaxSpendableAmountResponse struct {
	MaxSpendableAmount string `json:"maxSpendableAmount"`
}

// AddressEntry ...
type AddressEntry struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

// AddressesResponse ...
type AddressesResponse struct {
	Addresses []AddressEntry `json:"addresses"`
}

// TransactionStatusResponse ...
type TransactionStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
