package craterepo

import (
	"context"
	"database/sql"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/repository/pgutil"
)

const contentColumns = `id, tenant_id, crate_id, goods_id, supplier_id, batch_number, quantity, status,
                        last_updated_at, last_updated_by_order_id, last_updated_by_user_id`

// ScanContent lê uma linha com as colunas de contentColumns.
func ScanContent(row rowScanner) (domain.CrateContent, error) {
	var (
		c                   domain.CrateContent
		supplierID, orderID sql.NullString
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.CrateID, &c.GoodsID, &supplierID, &c.BatchNumber, &c.Quantity, &c.Status,
		&c.LastUpdatedAt, &orderID, &c.LastUpdatedByUserID)
	if err != nil {
		return domain.CrateContent{}, err
	}
	c.SupplierID = pgutil.StringPtr(supplierID)
	c.LastUpdatedByOrderID = pgutil.StringPtr(orderID)
	return c, nil
}

// FindContent retorna o conteúdo da caixa ou nil quando vazia.
func FindContent(ctx context.Context, q pgutil.Querier, tenantID, crateID string, forUpdate bool) (*domain.CrateContent, error) {
	query := `SELECT ` + contentColumns + ` FROM crate_contents WHERE crate_id = $1 AND tenant_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	c, err := ScanContent(q.QueryRowContext(ctx, query, crateID, tenantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewDBError("Falha ao buscar conteúdo da caixa", err)
	}
	return &c, nil
}

// UpsertContent grava o conteúdo da caixa; crate_id é único, então a linha existente é sobrescrita.
func UpsertContent(ctx context.Context, q pgutil.Querier, c domain.CrateContent) (domain.CrateContent, error) {
	query := `INSERT INTO crate_contents (` + contentColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
              ON CONFLICT (crate_id) DO UPDATE SET
                  goods_id = EXCLUDED.goods_id,
                  supplier_id = EXCLUDED.supplier_id,
                  batch_number = EXCLUDED.batch_number,
                  quantity = EXCLUDED.quantity,
                  status = EXCLUDED.status,
                  last_updated_at = EXCLUDED.last_updated_at,
                  last_updated_by_order_id = EXCLUDED.last_updated_by_order_id,
                  last_updated_by_user_id = EXCLUDED.last_updated_by_user_id
              RETURNING ` + contentColumns

	saved, err := ScanContent(q.QueryRowContext(ctx, query,
		c.ID, c.TenantID, c.CrateID, c.GoodsID, pgutil.NullString(c.SupplierID), c.BatchNumber, c.Quantity, c.Status,
		c.LastUpdatedAt, pgutil.NullString(c.LastUpdatedByOrderID), c.LastUpdatedByUserID))
	if err != nil {
		return domain.CrateContent{}, apperror.NewDBError("Falha ao gravar conteúdo da caixa", err)
	}
	return saved, nil
}

// DeleteContent remove o conteúdo da caixa (a caixa passa a estar vazia).
func DeleteContent(ctx context.Context, q pgutil.Querier, tenantID, crateID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM crate_contents WHERE crate_id = $1 AND tenant_id = $2`, crateID, tenantID); err != nil {
		return apperror.NewDBError("Falha ao remover conteúdo da caixa", err)
	}
	return nil
}

// SaveCrateState grava status, última localização e último avistamento da caixa.
func SaveCrateState(ctx context.Context, q pgutil.Querier, c domain.Crate) error {
	res, err := q.ExecContext(ctx,
		`UPDATE crates SET status = $3, last_known_location_id = $4, last_seen_at = $5, updated_at = $6
         WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		c.ID, c.TenantID, c.Status, pgutil.NullString(c.LastKnownLocationID), pgutil.NullTime(c.LastSeenAt), c.UpdatedAt)
	if err != nil {
		return apperror.NewDBError("Falha ao atualizar estado da caixa", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NewNotFoundError("Caixa não encontrada.")
	}
	return nil
}

// InsertOperationLog grava uma entrada do log de operações.
func InsertOperationLog(ctx context.Context, q pgutil.Querier, e domain.OperationLog) error {
	var payload interface{}
	if len(e.Payload) > 0 {
		payload = []byte(e.Payload)
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO operation_logs (id, tenant_id, user_id, entity_type, entity_id, crate_id, operation_type, description, payload, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.TenantID, e.UserID, e.EntityType, e.EntityID, pgutil.NullString(e.CrateID), e.OperationType, e.Description, payload, e.CreatedAt)
	if err != nil {
		return apperror.NewDBError("Falha ao gravar log de operação", err)
	}
	return nil
}
