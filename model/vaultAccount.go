package model

// VaultAccount ... Maps an internal identifier to the custody service's sub-account id
type VaultAccount struct {
	BaseModel
	CustodyVaultID string `gorm:"not null;unique_index" json:"custodyVaultId"`
	Name           string `json:"name"`
}
