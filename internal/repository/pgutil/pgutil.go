// Package pgutil reúne utilitários comuns aos repositórios PostgreSQL.
package pgutil

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/lib/pq"

	apperror "cratetrack/internal/errors"
)

// Códigos SQLSTATE usados na tradução de erros.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Querier é satisfeito por *sql.DB e *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// IsUniqueViolation informa se err é uma violação de índice único do Postgres.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// IsForeignKeyViolation informa se err é uma violação de chave estrangeira.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// Translate converte erros do driver em erros da aplicação.
// Violação de unicidade vira DuplicateKeyError com a mensagem informada.
func Translate(err error, op, duplicateMsg string) error {
	if err == nil {
		return nil
	}
	var appErr apperror.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if IsUniqueViolation(err) && duplicateMsg != "" {
		return apperror.NewDuplicateKeyError(duplicateMsg, err)
	}
	return apperror.NewDBError(op, err)
}

// InTx abre uma transação com timeout, executa fn e faz commit; qualquer erro faz rollback.
func InTx(ctx context.Context, db *sql.DB, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := db.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if err := fn(ctxTimeout, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}

// NullString converte um ponteiro em sql.NullString.
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converte sql.NullString em ponteiro.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// TimePtr converte sql.NullTime em ponteiro.
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// NullTime converte um ponteiro em sql.NullTime.
func NullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
