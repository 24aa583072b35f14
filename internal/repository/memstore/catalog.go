package memstore

import (
	"context"
	"fmt"
	"sort"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

// FindGoods busca uma mercadoria do tenant.
func (s *Store) FindGoods(ctx context.Context, tenantID, id string) (domain.Goods, error) {
	var out domain.Goods
	err := s.read(ctx, func(st *state) error {
		g, ok := st.goods[id]
		if !ok || g.TenantID != tenantID {
			return apperror.NewNotFoundError(fmt.Sprintf("Mercadoria %s não encontrada.", id))
		}
		out = g
		return nil
	})
	return out, err
}

// FindSupplier busca um fornecedor do tenant.
func (s *Store) FindSupplier(ctx context.Context, tenantID, id string) (domain.Supplier, error) {
	var out domain.Supplier
	err := s.read(ctx, func(st *state) error {
		sp, ok := st.suppliers[id]
		if !ok || sp.TenantID != tenantID {
			return apperror.NewNotFoundError(fmt.Sprintf("Fornecedor %s não encontrado.", id))
		}
		out = sp
		return nil
	})
	return out, err
}

// FindLocation busca uma localização do tenant.
func (s *Store) FindLocation(ctx context.Context, tenantID, id string) (domain.Location, error) {
	var out domain.Location
	err := s.read(ctx, func(st *state) error {
		loc, ok := st.locations[id]
		if !ok || loc.TenantID != tenantID {
			return apperror.NewNotFoundError(fmt.Sprintf("Localização %s não encontrada.", id))
		}
		out = loc
		return nil
	})
	return out, err
}

// CreateGoods insere uma mercadoria; o SKU é único por tenant.
func (s *Store) CreateGoods(ctx context.Context, g domain.Goods) (domain.Goods, error) {
	err := s.write(ctx, func(st *state) error {
		for _, existing := range st.goods {
			if existing.TenantID == g.TenantID && existing.SKU == g.SKU {
				return apperror.NewDuplicateKeyError(fmt.Sprintf("SKU '%s' já cadastrado.", g.SKU), nil)
			}
		}
		st.goods[g.ID] = g
		return nil
	})
	if err != nil {
		return domain.Goods{}, err
	}
	return g, nil
}

// CreateSupplier insere um fornecedor.
func (s *Store) CreateSupplier(ctx context.Context, sp domain.Supplier) (domain.Supplier, error) {
	err := s.write(ctx, func(st *state) error {
		st.suppliers[sp.ID] = sp
		return nil
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return sp, nil
}

// CreateLocation insere uma localização; o código é único por tenant.
func (s *Store) CreateLocation(ctx context.Context, loc domain.Location) (domain.Location, error) {
	err := s.write(ctx, func(st *state) error {
		for _, existing := range st.locations {
			if existing.TenantID == loc.TenantID && existing.Code == loc.Code {
				return apperror.NewDuplicateKeyError(fmt.Sprintf("Código de localização '%s' já cadastrado.", loc.Code), nil)
			}
		}
		st.locations[loc.ID] = loc
		return nil
	})
	if err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}

// ListGoods lista as mercadorias do tenant.
func (s *Store) ListGoods(ctx context.Context, tenantID string) ([]domain.Goods, error) {
	out := make([]domain.Goods, 0)
	err := s.read(ctx, func(st *state) error {
		for _, g := range st.goods {
			if g.TenantID == tenantID {
				out = append(out, g)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// ListSuppliers lista os fornecedores do tenant.
func (s *Store) ListSuppliers(ctx context.Context, tenantID string) ([]domain.Supplier, error) {
	out := make([]domain.Supplier, 0)
	err := s.read(ctx, func(st *state) error {
		for _, sp := range st.suppliers {
			if sp.TenantID == tenantID {
				out = append(out, sp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// ListLocations lista as localizações do tenant.
func (s *Store) ListLocations(ctx context.Context, tenantID string) ([]domain.Location, error) {
	out := make([]domain.Location, 0)
	err := s.read(ctx, func(st *state) error {
		for _, loc := range st.locations {
			if loc.TenantID == tenantID {
				out = append(out, loc)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}
