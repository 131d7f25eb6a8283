package service

import (
	"context"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/lightningnetwork/lnd/lnrpc"
)

type BalanceSummary struct {
	Node               string `json:"node"`
	OnchainConfirmed   int64  `json:"onchain_confirmed"`
	OnchainUnconfirmed int64  `json:"onchain_unconfirmed"`
	ChannelLocal       int64  `json:"channel_local"`
	ChannelRemote      int64  `json:"channel_remote"`
	ChannelPending     int64  `json:"channel_pending"`
	TotalReceived      int64  `json:"total_received"`
	TotalSent          int64  `json:"total_sent"`
	TotalFees          int64  `json:"total_fees"`
	Stale              bool   `json:"stale"`
}

type NodeInfo struct {
	Name              string   `json:"name"`
	Pubkey            string   `json:"pubkey"`
	Alias             string   `json:"alias"`
	Version           string   `json:"version"`
	Network           string   `json:"network"`
	BlockHeight       uint32   `json:"block_height"`
	SyncedToChain     bool     `json:"synced_to_chain"`
	NumActiveChannels uint32   `json:"num_active_channels"`
	NumPeers          uint32   `json:"num_peers"`
	Uris              []string `json:"uris"`
}

// GetBalances combines the node's wallet and channel balances with the
// settled totals from the store. When the node cannot be reached only the
// store totals are returned and the summary is marked stale.
func (svc *LnpayService) GetBalances(ctx context.Context, node string) (*BalanceSummary, error) {
	nodeName, client, err := svc.node(node, svc.Nodes.Receiver())
	if err != nil {
		return nil, err
	}
	summary := &BalanceSummary{Node: nodeName}
	if err := svc.addStoreTotals(ctx, summary); err != nil {
		return nil, err
	}

	callCtx, cancel := svc.nodeCallContext(ctx)
	defer cancel()
	wallet, err := client.WalletBalance(callCtx, &lnrpc.WalletBalanceRequest{})
	if err != nil {
		svc.Logger.Errorf("Could not fetch wallet balance: node:%s %v", nodeName, err)
		summary.Stale = true
		return summary, nil
	}
	channels, err := client.ChannelBalance(callCtx, &lnrpc.ChannelBalanceRequest{})
	if err != nil {
		svc.Logger.Errorf("Could not fetch channel balance: node:%s %v", nodeName, err)
		summary.Stale = true
		return summary, nil
	}
	summary.OnchainConfirmed = wallet.ConfirmedBalance
	summary.OnchainUnconfirmed = wallet.UnconfirmedBalance
	if channels.LocalBalance != nil {
		summary.ChannelLocal = int64(channels.LocalBalance.Sat)
	}
	if channels.RemoteBalance != nil {
		summary.ChannelRemote = int64(channels.RemoteBalance.Sat)
	}
	if channels.PendingOpenLocalBalance != nil {
		summary.ChannelPending = int64(channels.PendingOpenLocalBalance.Sat)
	}
	return summary, nil
}

func (svc *LnpayService) addStoreTotals(ctx context.Context, summary *BalanceSummary) error {
	err := svc.DB.NewSelect().Model((*models.Invoice)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("node = ?", summary.Node).
		Where("status = ?", common.StatusSucceeded).
		Scan(ctx, &summary.TotalReceived)
	if err != nil {
		return err
	}
	return svc.DB.NewSelect().Model((*models.Payment)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		ColumnExpr("COALESCE(SUM(fee), 0)").
		Where("node = ?", summary.Node).
		Where("status = ?", common.StatusSucceeded).
		Scan(ctx, &summary.TotalSent, &summary.TotalFees)
}

func (svc *LnpayService) GetNodeInfo(ctx context.Context, node string) (*NodeInfo, error) {
	nodeName, client, err := svc.node(node, svc.Nodes.Receiver())
	if err != nil {
		return nil, err
	}
	callCtx, cancel := svc.nodeCallContext(ctx)
	defer cancel()
	info, err := client.GetInfo(callCtx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, wrapNodeError(nodeName, err)
	}
	result := &NodeInfo{
		Name:              nodeName,
		Pubkey:            info.IdentityPubkey,
		Alias:             info.Alias,
		Version:           info.Version,
		BlockHeight:       info.BlockHeight,
		SyncedToChain:     info.SyncedToChain,
		NumActiveChannels: info.NumActiveChannels,
		NumPeers:          info.NumPeers,
		Uris:              info.Uris,
	}
	if len(info.Chains) > 0 {
		result.Network = info.Chains[0].Network
	}
	return result, nil
}
