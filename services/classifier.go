package services

import (
	"custody-processor/dto"
)

// TransferDirection ... derived direction of a custody event
type TransferDirection string

const (
	DirectionIncoming TransferDirection = "incoming"
	DirectionOutgoing TransferDirection = "outgoing"
	DirectionSweep    TransferDirection = "sweep"
	DirectionUnknown  TransferDirection = "unknown"
)

// ClassifyTransfer derives the direction of a transaction snapshot. A sweep is a
// refinement of outgoing: internal sub-account to the configured omnibus sub-account.
func ClassifyTransfer(snapshot dto.TransactionSnapshot, omnibusVaultId string) TransferDirection {
	if snapshot.Source.Type == dto.PeerUnknown && snapshot.Destination.Type == dto.PeerVaultAccount {
		return DirectionIncoming
	}
	if snapshot.Source.Type == dto.PeerVaultAccount {
		if snapshot.Destination.Type == dto.PeerVaultAccount && snapshot.Destination.ID == omnibusVaultId {
			return DirectionSweep
		}
		return DirectionOutgoing
	}
	return DirectionUnknown
}
