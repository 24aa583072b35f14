package user

import (
	"context"
	"net/http"

	"cratetrack/internal/api/response"
	"cratetrack/internal/domain"
	"cratetrack/internal/pkg/logger"
)

// UserService define o contrato para as operações de criação de usuário e login.
type UserService interface {
	CreateUser(ctx context.Context, actor domain.Actor, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateUserHandler lida com a requisição POST /api/v1/users.
// @Summary Cria um usuário no tenant do administrador
// @Description Somente administradores. A senha é armazenada com bcrypt e o usuário herda o tenant do chamador.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param registration body domain.UserRegistration true "Email, senha e role (admin, operator ou viewer)"
// @Success 201 {object} domain.User "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Somente administradores"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Router /users [post]
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := response.Actor(r)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	var reg domain.UserRegistration
	if err := response.Decode(r, &reg, false); err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	// O PasswordHash não sai na resposta (tag json:"-").
	newUser, err := h.Service.CreateUser(r.Context(), actor, reg)
	response.Handle(w, r, h.Logger, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /api/v1/auth/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token com usuário, tenant e role.
// @Tags users
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} domain.LoginResponse "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /auth/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq domain.LoginRequest
	if err := response.Decode(r, &loginReq, false); err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	token, err := h.Service.Login(r.Context(), loginReq.Email, loginReq.Password)
	if err != nil {
		response.Handle(w, r, h.Logger, nil, err, 0)
		return
	}

	response.Handle(w, r, h.Logger, domain.LoginResponse{Token: token}, nil, http.StatusOK)
}
