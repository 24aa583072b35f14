package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

// CreateOrder insere a ordem; o número é único por tenant.
func (s *Store) CreateOrder(ctx context.Context, order domain.ShipmentOrder) (domain.ShipmentOrder, error) {
	err := s.write(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.TenantID == order.TenantID && o.OrderNumber == order.OrderNumber {
				return apperror.NewDuplicateKeyError(fmt.Sprintf("Número de ordem '%s' já existe.", order.OrderNumber), nil)
			}
		}
		order.Items = nil
		st.orders[order.ID] = order
		return nil
	})
	if err != nil {
		return domain.ShipmentOrder{}, err
	}
	order.Items = []domain.ShipmentOrderItem{}
	return order, nil
}

// FindOrder retorna a ordem completa (itens e leituras).
func (s *Store) FindOrder(ctx context.Context, tenantID, id string) (domain.ShipmentOrder, error) {
	var out domain.ShipmentOrder
	err := s.read(ctx, func(st *state) error {
		o, err := st.order(tenantID, id)
		if err != nil {
			return err
		}
		out = st.assemble(o)
		return nil
	})
	return out, err
}

// ListOrders lista resumos das ordens do tenant, mais recentes primeiro.
func (s *Store) ListOrders(ctx context.Context, tenantID string, filter domain.OrderFilter) ([]domain.OrderSummary, error) {
	out := make([]domain.OrderSummary, 0)
	err := s.read(ctx, func(st *state) error {
		for _, o := range st.orders {
			if o.TenantID != tenantID {
				continue
			}
			if filter.Type != "" && o.Type != filter.Type {
				continue
			}
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			full := st.assemble(o)
			out = append(out, domain.OrderSummary{
				ID:          o.ID,
				OrderNumber: o.OrderNumber,
				Type:        o.Type,
				Status:      o.Status,
				Priority:    o.Priority,
				ItemCount:   len(full.Items),
				ScanCount:   full.ScanCount(),
				CreatedAt:   o.CreatedAt,
				CompletedAt: o.CompletedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

// FindItem busca um item cuja ordem pertence ao tenant.
func (s *Store) FindItem(ctx context.Context, tenantID, itemID string) (domain.ShipmentOrderItem, error) {
	var out domain.ShipmentOrderItem
	err := s.read(ctx, func(st *state) error {
		it, ok := st.items[itemID]
		if !ok {
			return apperror.NewNotFoundError("Item da ordem não encontrado.")
		}
		if _, err := st.order(tenantID, it.OrderID); err != nil {
			return apperror.NewNotFoundError("Item da ordem não encontrado.")
		}
		it.Scans = st.scansOf(it.ID)
		out = it
		return nil
	})
	return out, err
}

// AddItem inclui um item; guard é avaliada com a ordem atual.
func (s *Store) AddItem(ctx context.Context, tenantID, orderID string, item domain.ShipmentOrderItem, guard domain.OrderGuard) (domain.ShipmentOrderItem, error) {
	err := s.write(ctx, func(st *state) error {
		o, err := st.order(tenantID, orderID)
		if err != nil {
			return err
		}
		if err := guard(st.assemble(o)); err != nil {
			return err
		}
		item.OrderID = o.ID
		item.Scans = nil
		st.items[item.ID] = item
		st.stamp(item.ID)
		return nil
	})
	if err != nil {
		return domain.ShipmentOrderItem{}, err
	}
	item.Scans = []domain.ShipmentOrderItemScan{}
	return item, nil
}

// AddScan registra a leitura e promove a ordem de PENDING para IN_PROGRESS.
// Uma caixa só pode ser lida uma vez por ordem.
func (s *Store) AddScan(ctx context.Context, tenantID, orderID string, scan domain.ShipmentOrderItemScan, guard domain.OrderGuard) (domain.ShipmentOrderItemScan, error) {
	err := s.write(ctx, func(st *state) error {
		o, err := st.order(tenantID, orderID)
		if err != nil {
			return err
		}
		if err := guard(st.assemble(o)); err != nil {
			return err
		}
		it, ok := st.items[scan.OrderItemID]
		if !ok || it.OrderID != o.ID {
			return apperror.NewNotFoundError("Item da ordem não encontrado.")
		}
		c, err := st.crate(tenantID, scan.CrateID)
		if err != nil {
			return err
		}
		for _, existing := range st.scans {
			if existing.OrderID == o.ID && existing.CrateID == scan.CrateID {
				return apperror.NewDuplicateKeyError(fmt.Sprintf("A caixa '%s' já foi lida nesta ordem.", c.NfcUID), nil)
			}
		}

		scan.OrderID = o.ID
		scan.CrateNfcUID = c.NfcUID
		st.scans[scan.ID] = scan
		st.stamp(scan.ID)

		if o.Status == domain.OrderPending {
			o.Status = domain.OrderInProgress
			o.UpdatedAt = scan.ScannedAt
			st.orders[o.ID] = o
		}
		return nil
	})
	if err != nil {
		return domain.ShipmentOrderItemScan{}, err
	}
	return scan, nil
}

// CancelOrder move a ordem para CANCELED.
func (s *Store) CancelOrder(ctx context.Context, tenantID, orderID string, guard domain.OrderGuard, at time.Time) (domain.ShipmentOrder, error) {
	var out domain.ShipmentOrder
	err := s.write(ctx, func(st *state) error {
		o, err := st.order(tenantID, orderID)
		if err != nil {
			return err
		}
		if err := guard(st.assemble(o)); err != nil {
			return err
		}
		o.Status = domain.OrderCanceled
		o.UpdatedAt = at
		st.orders[o.ID] = o
		out = st.assemble(o)
		return nil
	})
	return out, err
}

// DeleteOrder remove leituras, itens e a ordem, nesta ordem.
func (s *Store) DeleteOrder(ctx context.Context, tenantID, orderID string, guard domain.OrderGuard) error {
	return s.write(ctx, func(st *state) error {
		o, err := st.order(tenantID, orderID)
		if err != nil {
			return err
		}
		if err := guard(st.assemble(o)); err != nil {
			return err
		}
		for id, sc := range st.scans {
			if sc.OrderID == o.ID {
				delete(st.scans, id)
				delete(st.seq, id)
			}
		}
		for id, it := range st.items {
			if it.OrderID == o.ID {
				delete(st.items, id)
				delete(st.seq, id)
			}
		}
		delete(st.orders, o.ID)
		return nil
	})
}
