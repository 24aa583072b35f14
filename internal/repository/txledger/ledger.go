// Package txledger liga o motor de conclusão a uma transação PostgreSQL.
package txledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"cratetrack/internal/domain"
	"cratetrack/internal/ledger"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/craterepo"
	"cratetrack/internal/repository/pgutil"
	"cratetrack/internal/repository/shipmentrepo"
)

// Transactor implementa ledger.Transactor sobre *sql.DB.
type Transactor struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTransactor cria o transactor usado pela conclusão de ordens e desativação de caixas.
func NewTransactor(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *Transactor {
	return &Transactor{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// InTx abre a transação e entrega a fn um Ledger ligado a ela.
func (t *Transactor) InTx(ctx context.Context, fn func(l ledger.Ledger) error) error {
	err := pgutil.InTx(ctx, t.DB, t.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&txLedger{tx: tx})
	})
	if err != nil {
		t.logger.Debug("Transação do ledger revertida.", map[string]interface{}{"error": err.Error()})
	}
	return err
}

type txLedger struct {
	tx *sql.Tx
}

func (l *txLedger) LockOrder(ctx context.Context, tenantID, orderID string) (domain.ShipmentOrder, error) {
	return shipmentrepo.LoadOrder(ctx, l.tx, tenantID, orderID, true)
}

func (l *txLedger) LockCrate(ctx context.Context, tenantID, crateID string) (domain.Crate, error) {
	return craterepo.FindCrate(ctx, l.tx, tenantID, crateID, true)
}

func (l *txLedger) FindContentForUpdate(ctx context.Context, tenantID, crateID string) (*domain.CrateContent, error) {
	return craterepo.FindContent(ctx, l.tx, tenantID, crateID, true)
}

func (l *txLedger) SaveContent(ctx context.Context, content domain.CrateContent) (domain.CrateContent, error) {
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	return craterepo.UpsertContent(ctx, l.tx, content)
}

func (l *txLedger) DeleteContent(ctx context.Context, tenantID, crateID string) error {
	return craterepo.DeleteContent(ctx, l.tx, tenantID, crateID)
}

func (l *txLedger) SaveCrateState(ctx context.Context, crate domain.Crate) error {
	return craterepo.SaveCrateState(ctx, l.tx, crate)
}

func (l *txLedger) AppendOperationLog(ctx context.Context, entry domain.OperationLog) error {
	return craterepo.InsertOperationLog(ctx, l.tx, entry)
}

func (l *txLedger) SaveOrderCompletion(ctx context.Context, order domain.ShipmentOrder) error {
	return shipmentrepo.SaveOrderCompletion(ctx, l.tx, order)
}
