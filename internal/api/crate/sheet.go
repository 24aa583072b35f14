package crate

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"cratetrack/internal/api/response"
	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

const maxSheetBytes = 10 << 20

// parseCrateSheet lê a primeira planilha do arquivo: coluna A é o nfcUid, coluna B o ID do tipo (opcional).
// Uma linha de cabeçalho com "NFC" na primeira célula é ignorada, assim como linhas vazias.
func parseCrateSheet(r io.Reader) ([]domain.CrateRegistration, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.NewValidationError("Não foi possível ler a planilha: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.NewValidationError("A planilha não possui abas.")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperror.NewValidationError("Não foi possível ler a aba " + sheets[0] + ".")
	}

	start := 0
	if len(rows) > 0 && len(rows[0]) > 0 && strings.Contains(strings.ToUpper(rows[0][0]), "NFC") {
		start = 1
	}

	crates := make([]domain.CrateRegistration, 0, len(rows))
	for _, row := range rows[start:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		reg := domain.CrateRegistration{NfcUID: row[0]}
		if len(row) > 1 {
			if typeID := strings.TrimSpace(row[1]); typeID != "" {
				reg.CrateTypeID = &typeID
			}
		}
		crates = append(crates, reg)
	}

	if len(crates) == 0 {
		return nil, apperror.NewValidationError("A planilha não contém caixas.")
	}
	return crates, nil
}

// ImportCratesHandler lida com a requisição POST /api/v1/batch/crates/import.
// @Summary Registra caixas a partir de uma planilha
// @Description Recebe um .xlsx (campo "file"). Coluna A: nfcUid; coluna B: ID do tipo de caixa (opcional). Segue as mesmas regras do registro em lote.
// @Tags crates
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Planilha .xlsx"
// @Success 201 {object} domain.BatchRegisterResult "Todas registradas"
// @Success 207 {object} domain.BatchRegisterResult "Registro parcial"
// @Failure 400 {object} domain.ErrorResponse "Arquivo ausente ou inválido"
// @Router /batch/crates/import [post]
func (h *Handler) ImportCratesHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSheetBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.respond(w, r, nil, apperror.NewValidationError("Envie a planilha no campo 'file'."), 0)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".xlsx") {
		h.respond(w, r, nil, apperror.NewValidationError("Somente arquivos .xlsx são aceitos."), 0)
		return
	}

	crates, err := parseCrateSheet(file)
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}

	h.Logger.Info("Importando caixas de planilha.", map[string]interface{}{
		"tenant_id": actor.TenantID, "file": header.Filename, "rows": len(crates),
	})

	result, err := h.Service.BatchRegister(r.Context(), actor, domain.BatchRegisterRequest{Crates: crates})
	if err != nil {
		h.respond(w, r, nil, err, 0)
		return
	}
	h.respond(w, r, result, nil, response.BatchStatus(result.FailCount, http.StatusCreated))
}
