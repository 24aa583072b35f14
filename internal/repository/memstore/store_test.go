package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/ledger"
	"cratetrack/internal/repository/memstore"
)

var now = time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

func allow(domain.ShipmentOrder) error { return nil }

func registerCrate(t *testing.T, s *memstore.Store, tenantID, id, nfc string) domain.Crate {
	t.Helper()
	c, err := s.RegisterCrate(context.Background(), domain.Crate{
		ID: id, TenantID: tenantID, NfcUID: nfc, Status: domain.CrateAvailable, CreatedAt: now, UpdatedAt: now,
	}, domain.OperationLog{ID: "log-" + id, TenantID: tenantID, EntityType: domain.EntityCrate, EntityID: id, OperationType: domain.OpCrateRegister, CrateID: &id})
	require.NoError(t, err)
	return c
}

func TestRegisterCrate_DuplicatePerTenant(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")

	_, err := s.RegisterCrate(ctx, domain.Crate{ID: "c2", TenantID: "tenant-a", NfcUID: "NFC-1"}, domain.OperationLog{})
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)

	registerCrate(t, s, "tenant-b", "c3", "NFC-1")
}

func TestFindCrate_OtherTenantIsNotFound(t *testing.T) {
	s := memstore.New()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")

	_, err := s.FindCrate(context.Background(), "tenant-b", "c1")
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = s.FindCrateByNfcUID(context.Background(), "tenant-b", "NFC-1")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestInTx_RollbackOnError(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	c := registerCrate(t, s, "tenant-a", "c1", "NFC-1")

	boom := errors.New("falha no meio")
	err := s.InTx(ctx, func(l ledger.Ledger) error {
		_, err := l.SaveContent(ctx, domain.CrateContent{TenantID: "tenant-a", CrateID: c.ID, GoodsID: "g1", Quantity: decimal.NewFromInt(5), Status: domain.ContentInbound})
		require.NoError(t, err)
		c.Status = domain.CrateInUse
		require.NoError(t, l.SaveCrateState(ctx, c))
		return boom
	})
	require.ErrorIs(t, err, boom)

	content, err := s.FindContent(ctx, "tenant-a", "c1")
	require.NoError(t, err)
	assert.Nil(t, content)
	stored, err := s.FindCrate(ctx, "tenant-a", "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CrateAvailable, stored.Status)
}

func TestInTx_CommitOnSuccess(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")

	err := s.InTx(ctx, func(l ledger.Ledger) error {
		_, err := l.SaveContent(ctx, domain.CrateContent{TenantID: "tenant-a", CrateID: "c1", GoodsID: "g1", Quantity: decimal.NewFromInt(5), Status: domain.ContentInbound})
		return err
	})
	require.NoError(t, err)

	content, err := s.FindContent(ctx, "tenant-a", "c1")
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.NotEmpty(t, content.ID)
}

func seedOrder(t *testing.T, s *memstore.Store) (domain.ShipmentOrder, domain.ShipmentOrderItem) {
	t.Helper()
	ctx := context.Background()
	o, err := s.CreateOrder(ctx, domain.ShipmentOrder{ID: "o1", TenantID: "tenant-a", OrderNumber: "IN1", Type: domain.OrderInbound, Status: domain.OrderPending, CreatedAt: now})
	require.NoError(t, err)
	it, err := s.AddItem(ctx, "tenant-a", o.ID, domain.ShipmentOrderItem{ID: "i1", GoodsID: "g1", ExpectedQuantity: decimal.NewFromInt(10)}, allow)
	require.NoError(t, err)
	return o, it
}

func TestAddScan_PromotesAndRejectsSameCrateTwice(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")
	o, it := seedOrder(t, s)
	it2, err := s.AddItem(ctx, "tenant-a", o.ID, domain.ShipmentOrderItem{ID: "i2", GoodsID: "g2"}, allow)
	require.NoError(t, err)

	_, err = s.AddScan(ctx, "tenant-a", o.ID, domain.ShipmentOrderItemScan{ID: "s1", OrderItemID: it.ID, CrateID: "c1", ActualQuantity: decimal.NewFromInt(10), ScannedAt: now}, allow)
	require.NoError(t, err)

	_, err = s.AddScan(ctx, "tenant-a", o.ID, domain.ShipmentOrderItemScan{ID: "s2", OrderItemID: it.ID, CrateID: "c1", ScannedAt: now}, allow)
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)
	_, err = s.AddScan(ctx, "tenant-a", o.ID, domain.ShipmentOrderItemScan{ID: "s3", OrderItemID: it2.ID, CrateID: "c1", ScannedAt: now}, allow)
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)

	full, err := s.FindOrder(ctx, "tenant-a", o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, full.Status)
	assert.Equal(t, 1, full.ScanCount())
	assert.Equal(t, "NFC-1", full.Items[0].Scans[0].CrateNfcUID)
}

func TestAddScan_GuardFailureLeavesNoScan(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")
	o, it := seedOrder(t, s)

	_, err := s.AddScan(ctx, "tenant-a", o.ID, domain.ShipmentOrderItemScan{ID: "s1", OrderItemID: it.ID, CrateID: "c1"},
		func(domain.ShipmentOrder) error { return apperror.NewStateConflictError("fechada") })
	assert.IsType(t, &apperror.StateConflictError{}, err)

	full, err := s.FindOrder(ctx, "tenant-a", o.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, full.ScanCount())
	assert.Equal(t, domain.OrderPending, full.Status)
}

func TestDeleteOrder_RemovesItemsAndScans(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")
	o, it := seedOrder(t, s)
	_, err := s.AddScan(ctx, "tenant-a", o.ID, domain.ShipmentOrderItemScan{ID: "s1", OrderItemID: it.ID, CrateID: "c1", ScannedAt: now}, allow)
	require.NoError(t, err)

	require.NoError(t, s.DeleteOrder(ctx, "tenant-a", o.ID, allow))

	_, err = s.FindOrder(ctx, "tenant-a", o.ID)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	_, err = s.FindItem(ctx, "tenant-a", it.ID)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestDeleteCrateType_InUse(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	ct, err := s.CreateCrateType(ctx, domain.CrateType{ID: "t1", TenantID: "tenant-a", Name: "Pequena", Code: "P"})
	require.NoError(t, err)
	typeID := ct.ID
	_, err = s.RegisterCrate(ctx, domain.Crate{ID: "c1", TenantID: "tenant-a", NfcUID: "NFC-1", CrateTypeID: &typeID, Status: domain.CrateAvailable}, domain.OperationLog{})
	require.NoError(t, err)

	err = s.DeleteCrateType(ctx, "tenant-a", "t1", now)
	assert.IsType(t, &apperror.StateConflictError{}, err)

	err = s.DeleteCrateType(ctx, "tenant-b", "t1", now)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestCrateHistory_NewestFirst(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	registerCrate(t, s, "tenant-a", "c1", "NFC-1")
	crateID := "c1"
	require.NoError(t, s.InTx(ctx, func(l ledger.Ledger) error {
		return l.AppendOperationLog(ctx, domain.OperationLog{ID: "log-2", TenantID: "tenant-a", CrateID: &crateID, OperationType: "INBOUND"})
	}))

	history, err := s.CrateHistory(ctx, "tenant-a", "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "INBOUND", history[0].OperationType)
	assert.Equal(t, domain.OpCrateRegister, history[1].OperationType)

	history, err = s.CrateHistory(ctx, "tenant-b", "c1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
