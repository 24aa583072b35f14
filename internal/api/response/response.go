// Package response padroniza as respostas JSON dos handlers HTTP.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/pkg/middleware"
)

// Tamanho máximo aceito para o corpo de uma requisição (lotes de até 500 itens cabem com folga).
const maxBodyBytes = 1 << 20

// Handle processa o resultado do serviço e envia a resposta padronizada ao cliente.
func Handle(w http.ResponseWriter, r *http.Request, log logger.Logger, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)

		log.Info("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})

		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				log.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Code: status, Category: category, Message: message})
}

// BatchStatus devolve successStatus quando nenhum item falhou e 207 Multi-Status caso contrário.
func BatchStatus(failCount, successStatus int) int {
	if failCount > 0 {
		return http.StatusMultiStatus
	}
	return successStatus
}

// Decode lê o corpo JSON da requisição em dst.
// Corpo vazio é aceito quando allowEmpty é verdadeiro.
func Decode(r *http.Request, dst interface{}, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.NewValidationError("Payload JSON inválido. Verifique o formato.")
	}
	return nil
}

// Actor recupera o ator autenticado anexado pelo middleware.
func Actor(r *http.Request) (domain.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return domain.Actor{}, apperror.NewUnauthorizedError("Autorização necessária. Token não processado.")
	}
	return actor, nil
}
