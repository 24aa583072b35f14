package inventoryrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/pgutil"
)

// InventoryRepository implementa as consultas de estoque derivadas do conteúdo das caixas.
type InventoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewInventoryRepository cria e retorna uma nova instância do repositório de inventário.
func NewInventoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *InventoryRepository {
	return &InventoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// InventorySummary agrega o conteúdo INBOUND por mercadoria.
func (r *InventoryRepository) InventorySummary(ctx context.Context, tenantID string) ([]domain.InventorySummaryLine, error) {
	r.logger.Debug("Calculando resumo de inventário.", map[string]interface{}{"tenant_id": tenantID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT cc.goods_id, COALESCE(g.name, ''), SUM(cc.quantity), COUNT(*)
        FROM crate_contents cc
        LEFT JOIN goods g ON g.id = cc.goods_id
        WHERE cc.tenant_id = $1 AND cc.status = 'INBOUND'
        GROUP BY cc.goods_id, g.name
        ORDER BY cc.goods_id`

	rows, err := r.DB.QueryContext(ctxTimeout, query, tenantID)
	if err != nil {
		r.logger.Error("Falha ao calcular resumo de inventário.", err)
		return nil, apperror.NewDBError("Falha ao calcular resumo de inventário", err)
	}
	defer rows.Close()

	out := make([]domain.InventorySummaryLine, 0)
	for rows.Next() {
		var line domain.InventorySummaryLine
		if err := rows.Scan(&line.GoodsID, &line.GoodsName, &line.TotalQuantity, &line.CrateCount); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear resumo de inventário", err)
		}
		out = append(out, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração do resumo de inventário", err)
	}
	return out, nil
}

// InventoryDetails lista as caixas com conteúdo INBOUND da mercadoria.
func (r *InventoryRepository) InventoryDetails(ctx context.Context, tenantID, goodsID string) ([]domain.InventoryDetail, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT cc.crate_id, c.nfc_uid, cc.goods_id, cc.supplier_id, cc.batch_number, cc.quantity,
               c.last_known_location_id, cc.last_updated_at
        FROM crate_contents cc
        JOIN crates c ON c.id = cc.crate_id
        WHERE cc.tenant_id = $1 AND cc.goods_id = $2 AND cc.status = 'INBOUND'
        ORDER BY c.nfc_uid`

	rows, err := r.DB.QueryContext(ctxTimeout, query, tenantID, goodsID)
	if err != nil {
		r.logger.Error("Falha ao listar detalhes de inventário.", err)
		return nil, apperror.NewDBError("Falha ao listar detalhes de inventário", err)
	}
	defer rows.Close()

	out := make([]domain.InventoryDetail, 0)
	for rows.Next() {
		var (
			d                      domain.InventoryDetail
			supplierID, locationID sql.NullString
		)
		if err := rows.Scan(&d.CrateID, &d.NfcUID, &d.GoodsID, &supplierID, &d.BatchNumber, &d.Quantity, &locationID, &d.LastUpdatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear detalhes de inventário", err)
		}
		d.SupplierID = pgutil.StringPtr(supplierID)
		d.LastKnownLocationID = pgutil.StringPtr(locationID)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração dos detalhes de inventário", err)
	}
	return out, nil
}

// CrateHistory retorna o log de operações que tocou a caixa, mais recente primeiro.
func (r *InventoryRepository) CrateHistory(ctx context.Context, tenantID, crateID string) ([]domain.OperationLog, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, tenant_id, user_id, entity_type, entity_id, crate_id, operation_type, description, payload, created_at
        FROM operation_logs
        WHERE tenant_id = $1 AND crate_id = $2
        ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, tenantID, crateID)
	if err != nil {
		r.logger.Error("Falha ao buscar histórico da caixa.", err)
		return nil, apperror.NewDBError("Falha ao buscar histórico da caixa", err)
	}
	defer rows.Close()

	out := make([]domain.OperationLog, 0)
	for rows.Next() {
		var (
			e       domain.OperationLog
			crate   sql.NullString
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.EntityType, &e.EntityID, &crate, &e.OperationType, &e.Description, &payload, &e.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear histórico da caixa", err)
		}
		e.CrateID = pgutil.StringPtr(crate)
		if len(payload) > 0 {
			e.Payload = json.RawMessage(payload)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração do histórico", err)
	}
	return out, nil
}
