package repository

import "context"

// LeaseReceipt is the marketplace's acknowledgement of a submitted manifest.
type LeaseReceipt struct {
	LeaseID string `json:"lease_id"`
	Status  string `json:"status"`
}

// Balance is the caller's escrow balance in the marketplace pricing token.
type Balance struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// MarketplaceClient is the narrow boundary to the remote compute marketplace.
// Deployment semantics, escrow accounting and request routing live on the
// other side of this interface.
type MarketplaceClient interface {
	SubmitManifest(ctx context.Context, manifest string) (LeaseReceipt, error)
	GetBalance(ctx context.Context) (Balance, error)
}
