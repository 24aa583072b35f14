package memstore

import (
	"context"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

// txLedger é o ledger.Ledger sobre o estado de trabalho de uma transação.
// O Store já segura o lock exclusivo, então "bloquear" é apenas ler.
type txLedger struct {
	st *state
}

func (l *txLedger) LockOrder(_ context.Context, tenantID, orderID string) (domain.ShipmentOrder, error) {
	o, err := l.st.order(tenantID, orderID)
	if err != nil {
		return domain.ShipmentOrder{}, err
	}
	return l.st.assemble(o), nil
}

func (l *txLedger) LockCrate(_ context.Context, tenantID, crateID string) (domain.Crate, error) {
	return l.st.crate(tenantID, crateID)
}

func (l *txLedger) FindContentForUpdate(_ context.Context, tenantID, crateID string) (*domain.CrateContent, error) {
	c, ok := l.st.contents[crateID]
	if !ok || c.TenantID != tenantID {
		return nil, nil
	}
	return &c, nil
}

func (l *txLedger) SaveContent(_ context.Context, content domain.CrateContent) (domain.CrateContent, error) {
	if content.ID == "" {
		if existing, ok := l.st.contents[content.CrateID]; ok {
			content.ID = existing.ID
		} else {
			content.ID = uuid.NewString()
		}
	}
	l.st.contents[content.CrateID] = content
	return content, nil
}

func (l *txLedger) DeleteContent(_ context.Context, tenantID, crateID string) error {
	if c, ok := l.st.contents[crateID]; ok && c.TenantID == tenantID {
		delete(l.st.contents, crateID)
	}
	return nil
}

func (l *txLedger) SaveCrateState(_ context.Context, crate domain.Crate) error {
	current, err := l.st.crate(crate.TenantID, crate.ID)
	if err != nil {
		return err
	}
	current.Status = crate.Status
	current.LastKnownLocationID = crate.LastKnownLocationID
	current.LastSeenAt = crate.LastSeenAt
	current.UpdatedAt = crate.UpdatedAt
	l.st.crates[crate.ID] = current
	return nil
}

func (l *txLedger) AppendOperationLog(_ context.Context, entry domain.OperationLog) error {
	l.st.logs = append(l.st.logs, entry)
	return nil
}

func (l *txLedger) SaveOrderCompletion(_ context.Context, order domain.ShipmentOrder) error {
	current, err := l.st.order(order.TenantID, order.ID)
	if err != nil {
		return apperror.NewNotFoundError("Ordem não encontrada.")
	}
	current.Status = order.Status
	current.CompletedByUserID = order.CompletedByUserID
	current.CompletedAt = order.CompletedAt
	current.ActualDeliveryDate = order.ActualDeliveryDate
	current.UpdatedAt = order.UpdatedAt
	l.st.orders[order.ID] = current
	return nil
}
