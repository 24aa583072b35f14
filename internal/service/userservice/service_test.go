package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/service/userservice"
)

// MockUserRepository é uma implementação mock da interface UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

// MockTokenService é uma implementação mock da interface TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID, tenantID, role string) (string, error) {
	args := m.Called(userID, tenantID, role)
	return args.String(0), args.Error(1)
}

var admin = domain.Actor{TenantID: "tenant-a", UserID: "admin-1", Role: domain.RoleAdmin}

func TestCreateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService), logger.NewLogger("debug"))

	mockRepo.On("SaveUser", mock.Anything, mock.MatchedBy(func(u domain.User) bool {
		return u.Email == "ana@example.com" &&
			u.TenantID == "tenant-a" &&
			u.Role == domain.RoleOperator &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("segredo123")) == nil
	})).Return(domain.User{ID: "u1", TenantID: "tenant-a", Email: "ana@example.com", Role: domain.RoleOperator}, nil)

	user, err := svc.CreateUser(context.Background(), admin, domain.UserRegistration{Email: " Ana@Example.com ", Password: "segredo123"})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_Fail_Validation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService), logger.NewLogger("debug"))
	ctx := context.Background()

	cases := []domain.UserRegistration{
		{Email: "", Password: "segredo123"},
		{Email: "sem-arroba", Password: "segredo123"},
		{Email: "ana@example.com", Password: "curta"},
		{Email: "ana@example.com", Password: "segredo123", Role: "root"},
	}
	for _, reg := range cases {
		_, err := svc.CreateUser(ctx, admin, reg)
		assert.IsType(t, &apperror.ValidationError{}, err, "email=%q role=%q", reg.Email, reg.Role)
	}
	mockRepo.AssertNotCalled(t, "SaveUser", mock.Anything, mock.Anything)
}

func TestCreateUser_Fail_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService), logger.NewLogger("debug"))

	mockRepo.On("SaveUser", mock.Anything, mock.Anything).
		Return(domain.User{}, apperror.NewDuplicateKeyError("O email 'ana@example.com' já está em uso.", nil))

	_, err := svc.CreateUser(context.Background(), admin, domain.UserRegistration{Email: "ana@example.com", Password: "segredo123"})

	assert.IsType(t, &apperror.DuplicateKeyError{}, err)
}

func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockToken, logger.NewLogger("debug"))

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	mockRepo.On("FindUserByEmail", mock.Anything, "ana@example.com").
		Return(domain.User{ID: "u1", TenantID: "tenant-a", PasswordHash: string(hash), Role: domain.RoleViewer}, nil)
	mockToken.On("GenerateToken", "u1", "tenant-a", "viewer").Return("jwt-token", nil)

	tok, err := svc.Login(context.Background(), "ANA@example.com", "segredo123")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", tok)
	mockToken.AssertExpectations(t)
}

func TestLogin_Fail_WrongPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockToken := new(MockTokenService)
	svc := userservice.NewService(mockRepo, mockToken, logger.NewLogger("debug"))

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	mockRepo.On("FindUserByEmail", mock.Anything, "ana@example.com").
		Return(domain.User{ID: "u1", TenantID: "tenant-a", PasswordHash: string(hash)}, nil)

	_, err = svc.Login(context.Background(), "ana@example.com", "errada")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	mockToken.AssertNotCalled(t, "GenerateToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_Fail_UnknownEmailIsUnauthorized(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService), logger.NewLogger("debug"))

	mockRepo.On("FindUserByEmail", mock.Anything, "ninguem@example.com").
		Return(domain.User{}, apperror.NewNotFoundError("Usuário não encontrado."))

	_, err := svc.Login(context.Background(), "ninguem@example.com", "segredo123")

	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

func TestLogin_Fail_RepositoryError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	svc := userservice.NewService(mockRepo, new(MockTokenService), logger.NewLogger("debug"))

	dbErr := apperror.NewDBError("Falha ao buscar usuário", errors.New("conn reset"))
	mockRepo.On("FindUserByEmail", mock.Anything, "ana@example.com").Return(domain.User{}, dbErr)

	_, err := svc.Login(context.Background(), "ana@example.com", "segredo123")

	assert.IsType(t, &apperror.InternalError{}, err)
}
