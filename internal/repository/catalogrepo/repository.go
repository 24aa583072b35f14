package catalogrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/cache"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/pgutil"
)

// CatalogRepository implementa o cadastro de mercadorias, fornecedores e localizações.
type CatalogRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewCatalogRepository cria e retorna uma nova instância do repositório de catálogo.
func NewCatalogRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Chave de cache das mercadorias: tenant + id.
const goodsCacheKey = "goods:%s:%s"

// FindGoods busca uma mercadoria do tenant usando cache-aside.
func (r *CatalogRepository) FindGoods(ctx context.Context, tenantID, id string) (domain.Goods, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(goodsCacheKey, tenantID, id)
	var goods domain.Goods

	cached, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cached), &goods) == nil {
			goods.TenantID = tenantID
			return goods, nil
		}
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler mercadoria do cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	err = r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, tenant_id, sku, name, unit, created_at FROM goods WHERE id = $1 AND tenant_id = $2`, id, tenantID).
		Scan(&goods.ID, &goods.TenantID, &goods.SKU, &goods.Name, &goods.Unit, &goods.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Goods{}, apperror.NewNotFoundError(fmt.Sprintf("Mercadoria %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar mercadoria no DB.", err)
		return domain.Goods{}, apperror.NewDBError("Falha ao buscar mercadoria", err)
	}

	if data, err := json.Marshal(goods); err == nil {
		if err := r.Cache.Set(ctxTimeout, key, data, r.CacheTTL); err != nil {
			r.logger.Warn("Falha ao gravar mercadoria no cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return goods, nil
}

// FindSupplier busca um fornecedor do tenant.
func (r *CatalogRepository) FindSupplier(ctx context.Context, tenantID, id string) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var s domain.Supplier
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, tenant_id, name, created_at FROM suppliers WHERE id = $1 AND tenant_id = $2`, id, tenantID).
		Scan(&s.ID, &s.TenantID, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Supplier{}, apperror.NewNotFoundError(fmt.Sprintf("Fornecedor %s não encontrado.", id))
	}
	if err != nil {
		return domain.Supplier{}, apperror.NewDBError("Falha ao buscar fornecedor", err)
	}
	return s, nil
}

// FindLocation busca uma localização do tenant.
func (r *CatalogRepository) FindLocation(ctx context.Context, tenantID, id string) (domain.Location, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var loc domain.Location
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT id, tenant_id, code, name, created_at FROM locations WHERE id = $1 AND tenant_id = $2`, id, tenantID).
		Scan(&loc.ID, &loc.TenantID, &loc.Code, &loc.Name, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.Location{}, apperror.NewNotFoundError(fmt.Sprintf("Localização %s não encontrada.", id))
	}
	if err != nil {
		return domain.Location{}, apperror.NewDBError("Falha ao buscar localização", err)
	}
	return loc, nil
}

// CreateGoods insere uma mercadoria; o SKU é único por tenant.
func (r *CatalogRepository) CreateGoods(ctx context.Context, g domain.Goods) (domain.Goods, error) {
	r.logger.Debug("Iniciando CreateGoods no repositório.", map[string]interface{}{"sku": g.SKU})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO goods (id, tenant_id, sku, name, unit, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		g.ID, g.TenantID, g.SKU, g.Name, g.Unit, g.CreatedAt)
	if err != nil {
		return domain.Goods{}, pgutil.Translate(err, "Falha ao criar mercadoria", fmt.Sprintf("SKU '%s' já cadastrado.", g.SKU))
	}

	r.logger.Info("Mercadoria criada com sucesso.", map[string]interface{}{"id": g.ID, "sku": g.SKU})
	return g, nil
}

// CreateSupplier insere um fornecedor.
func (r *CatalogRepository) CreateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO suppliers (id, tenant_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.TenantID, s.Name, s.CreatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir fornecedor no DB.", err)
		return domain.Supplier{}, apperror.NewDBError("Falha ao criar fornecedor", err)
	}

	r.logger.Info("Fornecedor criado com sucesso.", map[string]interface{}{"id": s.ID, "name": s.Name})
	return s, nil
}

// CreateLocation insere uma localização; o código é único por tenant.
func (r *CatalogRepository) CreateLocation(ctx context.Context, loc domain.Location) (domain.Location, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.DB.ExecContext(ctxTimeout,
		`INSERT INTO locations (id, tenant_id, code, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		loc.ID, loc.TenantID, loc.Code, loc.Name, loc.CreatedAt)
	if err != nil {
		return domain.Location{}, pgutil.Translate(err, "Falha ao criar localização", fmt.Sprintf("Código de localização '%s' já cadastrado.", loc.Code))
	}

	r.logger.Info("Localização criada com sucesso.", map[string]interface{}{"id": loc.ID, "code": loc.Code})
	return loc, nil
}

// ListGoods lista as mercadorias do tenant.
func (r *CatalogRepository) ListGoods(ctx context.Context, tenantID string) ([]domain.Goods, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, tenant_id, sku, name, unit, created_at FROM goods WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		r.logger.Error("Falha ao executar ListGoods query.", err)
		return nil, apperror.NewDBError("Falha ao listar mercadorias", err)
	}
	defer rows.Close()

	out := make([]domain.Goods, 0)
	for rows.Next() {
		var g domain.Goods
		if err := rows.Scan(&g.ID, &g.TenantID, &g.SKU, &g.Name, &g.Unit, &g.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear mercadorias do DB", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de mercadorias", err)
	}
	return out, nil
}

// ListSuppliers lista os fornecedores do tenant.
func (r *CatalogRepository) ListSuppliers(ctx context.Context, tenantID string) ([]domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, tenant_id, name, created_at FROM suppliers WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		r.logger.Error("Falha ao executar ListSuppliers query.", err)
		return nil, apperror.NewDBError("Falha ao listar fornecedores", err)
	}
	defer rows.Close()

	out := make([]domain.Supplier, 0)
	for rows.Next() {
		var s domain.Supplier
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear fornecedores do DB", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de fornecedores", err)
	}
	return out, nil
}

// ListLocations lista as localizações do tenant.
func (r *CatalogRepository) ListLocations(ctx context.Context, tenantID string) ([]domain.Location, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout,
		`SELECT id, tenant_id, code, name, created_at FROM locations WHERE tenant_id = $1 ORDER BY code`, tenantID)
	if err != nil {
		r.logger.Error("Falha ao executar ListLocations query.", err)
		return nil, apperror.NewDBError("Falha ao listar localizações", err)
	}
	defer rows.Close()

	out := make([]domain.Location, 0)
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.ID, &loc.TenantID, &loc.Code, &loc.Name, &loc.CreatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear localizações do DB", err)
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração de localizações", err)
	}
	return out, nil
}
