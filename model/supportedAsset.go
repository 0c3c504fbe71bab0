package model

// SupportedAsset ... Configuration catalogue row. For UTXO-capable assets it also
// carries the running count of deposits observed since the last consolidation.
type SupportedAsset struct {
	BaseModel
	AssetID         string `gorm:"not null;unique_index" json:"assetId"`
	Name            string `json:"name"`
	IsUtxo          bool   `gorm:"default:0" json:"isUtxo"`
	DepositsCounter int    `gorm:"not null;default:0" json:"depositsCounter"`
}
