package memstore

import (
	"context"
	"fmt"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
)

// SaveUser insere um usuário; o email é único.
func (s *Store) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	err := s.write(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == user.Email {
				return apperror.NewDuplicateKeyError(fmt.Sprintf("O email '%s' já está em uso.", user.Email), nil)
			}
		}
		st.users[user.ID] = user
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// FindUserByEmail busca um usuário pelo email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var out domain.User
	err := s.read(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
	})
	return out, err
}
