package craterepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/repository/pgutil"
)

const crateTypeColumns = `id, tenant_id, name, code, description, capacity, weight, is_active, created_at, updated_at, deleted_at`

func scanCrateType(row rowScanner) (domain.CrateType, error) {
	var (
		ct        domain.CrateType
		deletedAt sql.NullTime
	)
	err := row.Scan(&ct.ID, &ct.TenantID, &ct.Name, &ct.Code, &ct.Description, &ct.Capacity, &ct.Weight, &ct.IsActive,
		&ct.CreatedAt, &ct.UpdatedAt, &deletedAt)
	if err != nil {
		return domain.CrateType{}, err
	}
	ct.DeletedAt = pgutil.TimePtr(deletedAt)
	return ct, nil
}

// CreateCrateType insere um tipo de caixa; o código é único por tenant.
func (r *Repository) CreateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `INSERT INTO crate_types (id, tenant_id, name, code, description, capacity, weight, is_active, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              RETURNING ` + crateTypeColumns
	saved, err := scanCrateType(r.DB.QueryRowContext(ctxTimeout, query,
		ct.ID, ct.TenantID, ct.Name, ct.Code, ct.Description, ct.Capacity, ct.Weight, ct.IsActive, ct.CreatedAt, ct.UpdatedAt))
	if err != nil {
		return domain.CrateType{}, pgutil.Translate(err, "Falha ao inserir tipo de caixa", fmt.Sprintf("Já existe um tipo de caixa com código '%s'.", ct.Code))
	}
	return saved, nil
}

// FindCrateType busca um tipo de caixa do tenant.
func (r *Repository) FindCrateType(ctx context.Context, tenantID, id string) (domain.CrateType, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + crateTypeColumns + ` FROM crate_types WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	ct, err := scanCrateType(r.DB.QueryRowContext(ctxTimeout, query, id, tenantID))
	if err == sql.ErrNoRows {
		return domain.CrateType{}, apperror.NewNotFoundError("Tipo de caixa não encontrado.")
	}
	if err != nil {
		return domain.CrateType{}, apperror.NewDBError("Falha ao buscar tipo de caixa", err)
	}
	return ct, nil
}

// ListCrateTypes lista os tipos de caixa do tenant.
func (r *Repository) ListCrateTypes(ctx context.Context, tenantID string) ([]domain.CrateType, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT `+crateTypeColumns+` FROM crate_types WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY name`, tenantID)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao listar tipos de caixa", err)
	}
	defer rows.Close()

	types := make([]domain.CrateType, 0)
	for rows.Next() {
		ct, err := scanCrateType(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler tipo de caixa", err)
		}
		types = append(types, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar tipos de caixa", err)
	}
	return types, nil
}

// UpdateCrateType substitui os campos editáveis do tipo.
func (r *Repository) UpdateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE crate_types
              SET name = $3, code = $4, description = $5, capacity = $6, weight = $7, is_active = $8, updated_at = $9
              WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
              RETURNING ` + crateTypeColumns
	saved, err := scanCrateType(r.DB.QueryRowContext(ctxTimeout, query,
		ct.ID, ct.TenantID, ct.Name, ct.Code, ct.Description, ct.Capacity, ct.Weight, ct.IsActive, ct.UpdatedAt))
	if err == sql.ErrNoRows {
		return domain.CrateType{}, apperror.NewNotFoundError("Tipo de caixa não encontrado.")
	}
	if err != nil {
		return domain.CrateType{}, pgutil.Translate(err, "Falha ao atualizar tipo de caixa", fmt.Sprintf("Já existe um tipo de caixa com código '%s'.", ct.Code))
	}
	return saved, nil
}

// DeleteCrateType faz a remoção lógica; falha com StateConflict se alguma caixa usa o tipo.
func (r *Repository) DeleteCrateType(ctx context.Context, tenantID, id string, at time.Time) error {
	return pgutil.InTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		var code string
		err := tx.QueryRowContext(ctx,
			`SELECT code FROM crate_types WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL FOR UPDATE`, id, tenantID).Scan(&code)
		if err == sql.ErrNoRows {
			return apperror.NewNotFoundError("Tipo de caixa não encontrado.")
		}
		if err != nil {
			return apperror.NewDBError("Falha ao bloquear tipo de caixa", err)
		}

		var inUse int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM crates WHERE crate_type_id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID).Scan(&inUse); err != nil {
			return apperror.NewDBError("Falha ao contar caixas do tipo", err)
		}
		if inUse > 0 {
			return apperror.NewStateConflictError(fmt.Sprintf("O tipo de caixa '%s' está em uso por %d caixa(s).", code, inUse))
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE crate_types SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND tenant_id = $2`, id, tenantID, at); err != nil {
			return apperror.NewDBError("Falha ao remover tipo de caixa", err)
		}
		return nil
	})
}
