package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do CrateTrack.
// Ela permite que o Handler acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string
	Category() string // e.g., "VALIDATION_ERROR", "NOT_FOUND", "STATE_CONFLICT"
	HTTPStatus() int
	Unwrap() error
}

// --- Tipos de Erro de Domínio ---

// ValidationError representa falhas de validação de dados de entrada (formato, campos obrigatórios).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// BusinessValidationError representa uma entrada estruturalmente válida
// que viola uma regra de negócio (ex: concluir pedido sem leituras).
type BusinessValidationError struct {
	Msg string
}

func (e *BusinessValidationError) Error() string    { return fmt.Sprintf("Regra de negócio violada: %s", e.Msg) }
func (e *BusinessValidationError) Category() string { return "BUSINESS_VALIDATION" }
func (e *BusinessValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *BusinessValidationError) Unwrap() error    { return nil }

// NewBusinessValidationError cria um novo erro de regra de negócio.
func NewBusinessValidationError(msg string) AppError {
	return &BusinessValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
// Recursos de outro tenant também resultam neste erro.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// DuplicateKeyError representa violação de unicidade (nfcUid, número do pedido, leitura repetida).
type DuplicateKeyError struct {
	Msg string
	Err error
}

func (e *DuplicateKeyError) Error() string    { return fmt.Sprintf("Registro duplicado: %s", e.Msg) }
func (e *DuplicateKeyError) Category() string { return "DUPLICATE_KEY" }
func (e *DuplicateKeyError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *DuplicateKeyError) Unwrap() error    { return e.Err }

// NewDuplicateKeyError cria um novo erro de chave duplicada.
func NewDuplicateKeyError(msg string, err error) AppError {
	return &DuplicateKeyError{Msg: msg, Err: err}
}

// StateConflictError representa uma operação ilegal no estado atual do ciclo de vida.
type StateConflictError struct {
	Msg string
}

func (e *StateConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *StateConflictError) Category() string { return "STATE_CONFLICT" }
func (e *StateConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *StateConflictError) Unwrap() error    { return nil }

// NewStateConflictError cria um novo erro de conflito de estado.
func NewStateConflictError(msg string) AppError {
	return &StateConflictError{Msg: msg}
}

// UnauthorizedError representa falha de autenticação (token ausente, inválido ou credenciais erradas).
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa falta de permissão para a role autenticada.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de permissão.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helpers ---

// IsNotFound informa se algum erro da cadeia é um NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

// IsDuplicateKey informa se algum erro da cadeia é um DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var target *DuplicateKeyError
	return stderrors.As(err, &target)
}

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
// Percorre a cadeia de wrap, então fmt.Errorf("...: %w", appErr) também é reconhecido.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratado como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
