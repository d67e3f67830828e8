package engine

import (
	"github.com/shopspring/decimal"

	"agent-cost/core/catalog"
	"agent-cost/core/pricing/primitives"
	"agent-cost/core/types"
	"agent-cost/internal/errors"
)

// SharedStorage prices the hot-tier blob store holding the RAG manual. It
// is shared by both agents, so it is reported once rather than inside
// either breakdown.
func SharedStorage(pages int, ragEnabled bool, cat *catalog.Catalog) (*types.StorageCost, error) {
	if cat == nil {
		return nil, errors.Config("no pricing catalog")
	}
	if pages < 0 {
		return nil, errors.Inputf("manual_page_count must not be negative (got %d)", pages)
	}

	out := &types.StorageCost{
		Currency:  cat.Currency,
		PageCount: pages,
		StorageGB: decimal.Zero,
		Cost:      decimal.Zero,
	}
	if !ragEnabled || pages == 0 {
		return out, nil
	}

	bs := cat.BlobStorage
	out.StorageGB = decimal.NewFromInt(int64(pages)).
		Mul(bs.MBPerPage).
		Div(primitives.MBPerGB).
		Mul(bs.IndexOverheadMultiplier)
	out.Cost = out.StorageGB.Mul(bs.HotTierPerGBMonth)
	return out, nil
}
