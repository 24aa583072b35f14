package memstore

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"cratetrack/internal/domain"
)

// InventorySummary agrega o conteúdo INBOUND por mercadoria.
func (s *Store) InventorySummary(ctx context.Context, tenantID string) ([]domain.InventorySummaryLine, error) {
	out := make([]domain.InventorySummaryLine, 0)
	err := s.read(ctx, func(st *state) error {
		byGoods := map[string]*domain.InventorySummaryLine{}
		for _, c := range st.contents {
			if c.TenantID != tenantID || c.Status != domain.ContentInbound {
				continue
			}
			line, ok := byGoods[c.GoodsID]
			if !ok {
				line = &domain.InventorySummaryLine{GoodsID: c.GoodsID, TotalQuantity: decimal.Zero}
				if g, found := st.goods[c.GoodsID]; found {
					line.GoodsName = g.Name
				}
				byGoods[c.GoodsID] = line
			}
			line.TotalQuantity = line.TotalQuantity.Add(c.Quantity)
			line.CrateCount++
		}
		for _, line := range byGoods {
			out = append(out, *line)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].GoodsID < out[j].GoodsID })
	return out, err
}

// InventoryDetails lista as caixas com conteúdo INBOUND da mercadoria.
func (s *Store) InventoryDetails(ctx context.Context, tenantID, goodsID string) ([]domain.InventoryDetail, error) {
	out := make([]domain.InventoryDetail, 0)
	err := s.read(ctx, func(st *state) error {
		for _, c := range st.contents {
			if c.TenantID != tenantID || c.Status != domain.ContentInbound || c.GoodsID != goodsID {
				continue
			}
			crate := st.crates[c.CrateID]
			out = append(out, domain.InventoryDetail{
				CrateID:             c.CrateID,
				NfcUID:              crate.NfcUID,
				GoodsID:             c.GoodsID,
				SupplierID:          c.SupplierID,
				BatchNumber:         c.BatchNumber,
				Quantity:            c.Quantity,
				LastKnownLocationID: crate.LastKnownLocationID,
				LastUpdatedAt:       c.LastUpdatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].NfcUID < out[j].NfcUID })
	return out, err
}

// CrateHistory retorna o log de operações que tocou a caixa, mais recente primeiro.
func (s *Store) CrateHistory(ctx context.Context, tenantID, crateID string) ([]domain.OperationLog, error) {
	out := make([]domain.OperationLog, 0)
	err := s.read(ctx, func(st *state) error {
		for i := len(st.logs) - 1; i >= 0; i-- {
			entry := st.logs[i]
			if entry.TenantID == tenantID && entry.CrateID != nil && *entry.CrateID == crateID {
				out = append(out, entry)
			}
		}
		return nil
	})
	return out, err
}
