package resolver

import (
	"context"
	"fmt"

	"myriad-tipping-go/internal/api"
	"myriad-tipping-go/internal/models"

	"go.uber.org/zap"
)

// Resolver turns a tipped entity into the wallet destination for the tip.
type Resolver struct {
	backend *api.Client
}

func NewResolver(backend *api.Client) *Resolver {
	return &Resolver{backend: backend}
}

// ResolveWalletDetail looks up the destination wallet for the reference.
// The result may be unresolved (no on-chain address) when the referenced
// author has not linked a wallet: that is not an error, the caller decides
// how to proceed.
func (r *Resolver) ResolveWalletDetail(ctx context.Context, reference models.TipReference) (*models.WalletDetail, error) {
	var (
		detail *models.WalletDetail
		err    error
	)

	switch reference.Type {
	case models.ReferenceTypeUser:
		detail, err = r.backend.UserWalletAddress(ctx, reference.ID)
	case models.ReferenceTypeComment:
		detail, err = r.backend.CommentWalletAddress(ctx, reference.ID)
	case models.ReferenceTypePost:
		detail, err = r.backend.PostWalletAddress(ctx, reference.ID)
	default:
		return nil, fmt.Errorf("unknown reference type %q", reference.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to resolve wallet for %s %s: %w", reference.Type, reference.ID, err)
	}

	if !detail.Resolved() {
		zap.L().Debug("Reference has no linked wallet",
			zap.String("reference_type", string(reference.Type)),
			zap.String("reference_id", reference.ID),
			zap.String("wallet_reference_type", string(detail.ReferenceType)))
	}

	return detail, nil
}
