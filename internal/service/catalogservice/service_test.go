package catalogservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/memstore"
	"cratetrack/internal/service/catalogservice"
)

// MockCatalogRepository é uma implementação mock da interface CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) CreateGoods(ctx context.Context, g domain.Goods) (domain.Goods, error) {
	args := m.Called(ctx, g)
	return args.Get(0).(domain.Goods), args.Error(1)
}

func (m *MockCatalogRepository) CreateSupplier(ctx context.Context, s domain.Supplier) (domain.Supplier, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Supplier), args.Error(1)
}

func (m *MockCatalogRepository) CreateLocation(ctx context.Context, loc domain.Location) (domain.Location, error) {
	args := m.Called(ctx, loc)
	return args.Get(0).(domain.Location), args.Error(1)
}

func (m *MockCatalogRepository) ListGoods(ctx context.Context, tenantID string) ([]domain.Goods, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.Goods), args.Error(1)
}

func (m *MockCatalogRepository) ListSuppliers(ctx context.Context, tenantID string) ([]domain.Supplier, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.Supplier), args.Error(1)
}

func (m *MockCatalogRepository) ListLocations(ctx context.Context, tenantID string) ([]domain.Location, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.Location), args.Error(1)
}

var actor = domain.Actor{TenantID: "tenant-a", UserID: "user-a", Role: domain.RoleAdmin}

func TestCreateGoods_NormalizesFields(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	svc := catalogservice.NewService(mockRepo, logger.NewLogger("debug"))

	mockRepo.On("CreateGoods", mock.Anything, mock.MatchedBy(func(g domain.Goods) bool {
		return g.SKU == "MACA-01" && g.Unit == "UN" && g.TenantID == "tenant-a" && g.ID != ""
	})).Return(domain.Goods{ID: "g1", SKU: "MACA-01", Name: "Maçã", Unit: "UN"}, nil)

	goods, err := svc.CreateGoods(context.Background(), actor, domain.Goods{SKU: " maca-01 ", Name: "Maçã"})

	require.NoError(t, err)
	assert.Equal(t, "g1", goods.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateGoods_Fail_Validation(t *testing.T) {
	mockRepo := new(MockCatalogRepository)
	svc := catalogservice.NewService(mockRepo, logger.NewLogger("debug"))

	_, err := svc.CreateGoods(context.Background(), actor, domain.Goods{SKU: "X"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.CreateGoods(context.Background(), actor, domain.Goods{Name: "Sem SKU"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	mockRepo.AssertNotCalled(t, "CreateGoods", mock.Anything, mock.Anything)
}

func TestCatalog_DuplicatesAndTenantScope(t *testing.T) {
	store := memstore.New()
	svc := catalogservice.NewService(store, logger.NewLogger("debug"))
	ctx := context.Background()
	other := domain.Actor{TenantID: "tenant-b", UserID: "user-b", Role: domain.RoleAdmin}

	_, err := svc.CreateLocation(ctx, actor, domain.Location{Code: "doca-1", Name: "Doca 1"})
	require.NoError(t, err)
	_, err = svc.CreateLocation(ctx, actor, domain.Location{Code: "DOCA-1", Name: "Outra doca"})
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)
	_, err = svc.CreateLocation(ctx, other, domain.Location{Code: "DOCA-1", Name: "Doca do outro tenant"})
	assert.NoError(t, err)

	_, err = svc.CreateSupplier(ctx, actor, domain.Supplier{Name: "Fazenda Boa Vista"})
	require.NoError(t, err)
	_, err = svc.CreateSupplier(ctx, actor, domain.Supplier{Name: "  "})
	assert.IsType(t, &apperror.ValidationError{}, err)

	locations, err := svc.ListLocations(ctx, actor)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "DOCA-1", locations[0].Code)

	suppliers, err := svc.ListSuppliers(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, suppliers)
}
