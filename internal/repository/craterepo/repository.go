package craterepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/pgutil"
)

// Repository implementa o registro de caixas e tipos de caixa sobre PostgreSQL.
type Repository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCrateRepository cria e retorna uma nova instância do repositório de caixas.
func NewCrateRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *Repository {
	return &Repository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

const crateColumns = `id, tenant_id, nfc_uid, crate_type_id, status, last_known_location_id, last_seen_at, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ScanCrate lê uma linha com as colunas de crateColumns.
func ScanCrate(row rowScanner) (domain.Crate, error) {
	var (
		c                     domain.Crate
		typeID, locationID    sql.NullString
		lastSeenAt, deletedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.TenantID, &c.NfcUID, &typeID, &c.Status, &locationID, &lastSeenAt, &c.CreatedAt, &c.UpdatedAt, &deletedAt)
	if err != nil {
		return domain.Crate{}, err
	}
	c.CrateTypeID = pgutil.StringPtr(typeID)
	c.LastKnownLocationID = pgutil.StringPtr(locationID)
	c.LastSeenAt = pgutil.TimePtr(lastSeenAt)
	c.DeletedAt = pgutil.TimePtr(deletedAt)
	return c, nil
}

// FindCrate busca a caixa do tenant; com forUpdate a linha fica bloqueada até o fim da transação.
func FindCrate(ctx context.Context, q pgutil.Querier, tenantID, id string, forUpdate bool) (domain.Crate, error) {
	query := `SELECT ` + crateColumns + ` FROM crates WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	c, err := ScanCrate(q.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return domain.Crate{}, apperror.NewNotFoundError("Caixa não encontrada.")
	}
	if err != nil {
		return domain.Crate{}, apperror.NewDBError("Falha ao buscar caixa", err)
	}
	return c, nil
}

// RegisterCrate insere a caixa e o log de registro na mesma transação.
func (r *Repository) RegisterCrate(ctx context.Context, crate domain.Crate, entry domain.OperationLog) (domain.Crate, error) {
	r.logger.Debug("Inserindo caixa no repositório.", map[string]interface{}{"tenant_id": crate.TenantID, "nfc_uid": crate.NfcUID})

	err := pgutil.InTx(ctx, r.DB, r.DBTimeout, func(ctx context.Context, tx *sql.Tx) error {
		const insertSQL = `INSERT INTO crates (id, tenant_id, nfc_uid, crate_type_id, status, created_at, updated_at)
                           VALUES ($1, $2, $3, $4, $5, $6, $7)`
		_, err := tx.ExecContext(ctx, insertSQL,
			crate.ID, crate.TenantID, crate.NfcUID, pgutil.NullString(crate.CrateTypeID), crate.Status, crate.CreatedAt, crate.UpdatedAt)
		if err != nil {
			return pgutil.Translate(err, "Falha ao inserir caixa", fmt.Sprintf("Já existe uma caixa com nfcUid '%s'.", crate.NfcUID))
		}
		return InsertOperationLog(ctx, tx, entry)
	})
	if err != nil {
		if !apperror.IsDuplicateKey(err) {
			r.logger.Error("Falha ao registrar caixa no DB.", err)
		}
		return domain.Crate{}, err
	}

	r.logger.Info("Caixa registrada no repositório.", map[string]interface{}{"crate_id": crate.ID, "nfc_uid": crate.NfcUID})
	return crate, nil
}

// FindCrate busca uma caixa não removida do tenant.
func (r *Repository) FindCrate(ctx context.Context, tenantID, id string) (domain.Crate, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return FindCrate(ctxTimeout, r.DB, tenantID, id, false)
}

// FindCrateByNfcUID busca a caixa pela tag NFC dentro do tenant.
func (r *Repository) FindCrateByNfcUID(ctx context.Context, tenantID, nfcUID string) (domain.Crate, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + crateColumns + ` FROM crates WHERE tenant_id = $1 AND nfc_uid = $2 AND deleted_at IS NULL`
	c, err := ScanCrate(r.DB.QueryRowContext(ctxTimeout, query, tenantID, nfcUID))
	if err == sql.ErrNoRows {
		return domain.Crate{}, apperror.NewNotFoundError(fmt.Sprintf("Caixa com nfcUid '%s' não encontrada.", nfcUID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar caixa por nfcUid.", err)
		return domain.Crate{}, apperror.NewDBError("Falha ao buscar caixa por nfcUid", err)
	}
	return c, nil
}

// ExistingNfcUIDs retorna quais das tags já estão registradas no tenant.
func (r *Repository) ExistingNfcUIDs(ctx context.Context, tenantID string, uids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(uids) == 0 {
		return out, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT nfc_uid FROM crates WHERE tenant_id = $1 AND deleted_at IS NULL AND nfc_uid = ANY($2)`,
		tenantID, pq.Array(uids))
	if err != nil {
		return nil, apperror.NewDBError("Falha ao verificar nfcUids existentes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, apperror.NewDBError("Falha ao ler nfcUid", err)
		}
		out[uid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar nfcUids", err)
	}
	return out, nil
}

// ListCrates lista as caixas do tenant, opcionalmente filtradas por status.
func (r *Repository) ListCrates(ctx context.Context, tenantID string, filter domain.CrateFilter) ([]domain.Crate, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + crateColumns + ` FROM crates
              WHERE tenant_id = $1 AND deleted_at IS NULL AND ($2 = '' OR status = $2)
              ORDER BY nfc_uid`
	rows, err := r.DB.QueryContext(ctxTimeout, query, tenantID, string(filter.Status))
	if err != nil {
		r.logger.Error("Falha ao listar caixas.", err)
		return nil, apperror.NewDBError("Falha ao listar caixas", err)
	}
	defer rows.Close()

	crates := make([]domain.Crate, 0)
	for rows.Next() {
		c, err := ScanCrate(rows)
		if err != nil {
			return nil, apperror.NewDBError("Falha ao ler caixa", err)
		}
		crates = append(crates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar caixas", err)
	}
	return crates, nil
}

// UpdateCrate persiste nfcUid e tipo de uma caixa existente.
func (r *Repository) UpdateCrate(ctx context.Context, crate domain.Crate) (domain.Crate, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `UPDATE crates SET nfc_uid = $3, crate_type_id = $4, updated_at = $5
              WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
              RETURNING ` + crateColumns
	updated, err := ScanCrate(r.DB.QueryRowContext(ctxTimeout, query,
		crate.ID, crate.TenantID, crate.NfcUID, pgutil.NullString(crate.CrateTypeID), crate.UpdatedAt))
	if err == sql.ErrNoRows {
		return domain.Crate{}, apperror.NewNotFoundError("Caixa não encontrada.")
	}
	if err != nil {
		return domain.Crate{}, pgutil.Translate(err, "Falha ao atualizar caixa", fmt.Sprintf("Já existe uma caixa com nfcUid '%s'.", crate.NfcUID))
	}

	r.logger.Info("Caixa atualizada no repositório.", map[string]interface{}{"crate_id": crate.ID})
	return updated, nil
}

// CountActiveCrates conta as caixas não inativas do tenant.
func (r *Repository) CountActiveCrates(ctx context.Context, tenantID string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT COUNT(*) FROM crates WHERE tenant_id = $1 AND deleted_at IS NULL AND status <> 'INACTIVE'`, tenantID).Scan(&n)
	if err != nil {
		return 0, apperror.NewDBError("Falha ao contar caixas", err)
	}
	return n, nil
}

// FindContent retorna o conteúdo atual da caixa ou nil quando vazia.
func (r *Repository) FindContent(ctx context.Context, tenantID, crateID string) (*domain.CrateContent, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()
	return FindContent(ctxTimeout, r.DB, tenantID, crateID, false)
}
