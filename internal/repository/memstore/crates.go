package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

// RegisterCrate insere a caixa e o registro de log correspondente.
func (s *Store) RegisterCrate(ctx context.Context, crate domain.Crate, entry domain.OperationLog) (domain.Crate, error) {
	err := s.write(ctx, func(st *state) error {
		if _, dup := st.crateByNfc(crate.TenantID, crate.NfcUID); dup {
			return apperror.NewDuplicateKeyError(fmt.Sprintf("Já existe uma caixa com nfcUid '%s'.", crate.NfcUID), nil)
		}
		if crate.CrateTypeID != nil {
			if _, err := st.crateType(crate.TenantID, *crate.CrateTypeID); err != nil {
				return err
			}
		}
		st.crates[crate.ID] = crate
		st.logs = append(st.logs, entry)
		return nil
	})
	if err != nil {
		return domain.Crate{}, err
	}
	return crate, nil
}

// FindCrate busca uma caixa não removida do tenant.
func (s *Store) FindCrate(ctx context.Context, tenantID, id string) (domain.Crate, error) {
	var out domain.Crate
	err := s.read(ctx, func(st *state) error {
		c, err := st.crate(tenantID, id)
		out = c
		return err
	})
	return out, err
}

// FindCrateByNfcUID busca a caixa pela tag NFC dentro do tenant.
func (s *Store) FindCrateByNfcUID(ctx context.Context, tenantID, nfcUID string) (domain.Crate, error) {
	var out domain.Crate
	err := s.read(ctx, func(st *state) error {
		c, ok := st.crateByNfc(tenantID, nfcUID)
		if !ok {
			return apperror.NewNotFoundError(fmt.Sprintf("Caixa com nfcUid '%s' não encontrada.", nfcUID))
		}
		out = c
		return nil
	})
	return out, err
}

// ExistingNfcUIDs retorna quais das tags já estão registradas no tenant.
func (s *Store) ExistingNfcUIDs(ctx context.Context, tenantID string, uids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	err := s.read(ctx, func(st *state) error {
		for _, uid := range uids {
			if _, ok := st.crateByNfc(tenantID, uid); ok {
				out[uid] = true
			}
		}
		return nil
	})
	return out, err
}

// ListCrates lista as caixas do tenant, opcionalmente filtradas por status.
func (s *Store) ListCrates(ctx context.Context, tenantID string, filter domain.CrateFilter) ([]domain.Crate, error) {
	out := make([]domain.Crate, 0)
	err := s.read(ctx, func(st *state) error {
		for _, c := range st.crates {
			if c.TenantID != tenantID || c.DeletedAt != nil {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].NfcUID < out[j].NfcUID })
	return out, err
}

// UpdateCrate persiste nfcUid e tipo de uma caixa existente.
func (s *Store) UpdateCrate(ctx context.Context, crate domain.Crate) (domain.Crate, error) {
	err := s.write(ctx, func(st *state) error {
		current, err := st.crate(crate.TenantID, crate.ID)
		if err != nil {
			return err
		}
		if other, dup := st.crateByNfc(crate.TenantID, crate.NfcUID); dup && other.ID != crate.ID {
			return apperror.NewDuplicateKeyError(fmt.Sprintf("Já existe uma caixa com nfcUid '%s'.", crate.NfcUID), nil)
		}
		if crate.CrateTypeID != nil {
			if _, err := st.crateType(crate.TenantID, *crate.CrateTypeID); err != nil {
				return err
			}
		}
		current.NfcUID = crate.NfcUID
		current.CrateTypeID = crate.CrateTypeID
		current.UpdatedAt = crate.UpdatedAt
		st.crates[current.ID] = current
		crate = current
		return nil
	})
	if err != nil {
		return domain.Crate{}, err
	}
	return crate, nil
}

// CountActiveCrates conta as caixas não inativas do tenant (usado pela quota).
func (s *Store) CountActiveCrates(ctx context.Context, tenantID string) (int, error) {
	n := 0
	err := s.read(ctx, func(st *state) error {
		for _, c := range st.crates {
			if c.TenantID == tenantID && c.DeletedAt == nil && c.Status != domain.CrateInactive {
				n++
			}
		}
		return nil
	})
	return n, err
}

// FindContent retorna o conteúdo atual da caixa ou nil quando vazia.
func (s *Store) FindContent(ctx context.Context, tenantID, crateID string) (*domain.CrateContent, error) {
	var out *domain.CrateContent
	err := s.read(ctx, func(st *state) error {
		if c, ok := st.contents[crateID]; ok && c.TenantID == tenantID {
			out = &c
		}
		return nil
	})
	return out, err
}

// --- Tipos de caixa ---

func (st *state) crateTypeCodeTaken(tenantID, code, exceptID string) bool {
	for _, ct := range st.crateTypes {
		if ct.TenantID == tenantID && ct.DeletedAt == nil && ct.Code == code && ct.ID != exceptID {
			return true
		}
	}
	return false
}

// CreateCrateType insere um tipo de caixa; o código é único por tenant.
func (s *Store) CreateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error) {
	err := s.write(ctx, func(st *state) error {
		if st.crateTypeCodeTaken(ct.TenantID, ct.Code, "") {
			return apperror.NewDuplicateKeyError(fmt.Sprintf("Já existe um tipo de caixa com código '%s'.", ct.Code), nil)
		}
		st.crateTypes[ct.ID] = ct
		return nil
	})
	if err != nil {
		return domain.CrateType{}, err
	}
	return ct, nil
}

// FindCrateType busca um tipo de caixa do tenant.
func (s *Store) FindCrateType(ctx context.Context, tenantID, id string) (domain.CrateType, error) {
	var out domain.CrateType
	err := s.read(ctx, func(st *state) error {
		ct, err := st.crateType(tenantID, id)
		out = ct
		return err
	})
	return out, err
}

// ListCrateTypes lista os tipos de caixa do tenant.
func (s *Store) ListCrateTypes(ctx context.Context, tenantID string) ([]domain.CrateType, error) {
	out := make([]domain.CrateType, 0)
	err := s.read(ctx, func(st *state) error {
		for _, ct := range st.crateTypes {
			if ct.TenantID == tenantID && ct.DeletedAt == nil {
				out = append(out, ct)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// UpdateCrateType substitui os campos editáveis do tipo.
func (s *Store) UpdateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error) {
	err := s.write(ctx, func(st *state) error {
		current, err := st.crateType(ct.TenantID, ct.ID)
		if err != nil {
			return err
		}
		if st.crateTypeCodeTaken(ct.TenantID, ct.Code, ct.ID) {
			return apperror.NewDuplicateKeyError(fmt.Sprintf("Já existe um tipo de caixa com código '%s'.", ct.Code), nil)
		}
		ct.CreatedAt = current.CreatedAt
		st.crateTypes[ct.ID] = ct
		return nil
	})
	if err != nil {
		return domain.CrateType{}, err
	}
	return ct, nil
}

// DeleteCrateType faz a remoção lógica; falha com StateConflict se alguma caixa usa o tipo.
func (s *Store) DeleteCrateType(ctx context.Context, tenantID, id string, at time.Time) error {
	return s.write(ctx, func(st *state) error {
		ct, err := st.crateType(tenantID, id)
		if err != nil {
			return err
		}
		if n := st.activeCratesOfType(tenantID, id); n > 0 {
			return apperror.NewStateConflictError(fmt.Sprintf("O tipo de caixa '%s' está em uso por %d caixa(s).", ct.Code, n))
		}
		ct.DeletedAt = timePtr(at)
		ct.UpdatedAt = at
		st.crateTypes[id] = ct
		return nil
	})
}
