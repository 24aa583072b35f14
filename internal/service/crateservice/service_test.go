package crateservice_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/ledger"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/repository/memstore"
	"cratetrack/internal/service/crateservice"
)

// MockCrateRepository é uma implementação mock da interface CrateRepository
type MockCrateRepository struct {
	mock.Mock
}

func (m *MockCrateRepository) RegisterCrate(ctx context.Context, crate domain.Crate, entry domain.OperationLog) (domain.Crate, error) {
	args := m.Called(ctx, crate, entry)
	return args.Get(0).(domain.Crate), args.Error(1)
}

func (m *MockCrateRepository) FindCrate(ctx context.Context, tenantID, id string) (domain.Crate, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(domain.Crate), args.Error(1)
}

func (m *MockCrateRepository) FindCrateByNfcUID(ctx context.Context, tenantID, nfcUID string) (domain.Crate, error) {
	args := m.Called(ctx, tenantID, nfcUID)
	return args.Get(0).(domain.Crate), args.Error(1)
}

func (m *MockCrateRepository) ExistingNfcUIDs(ctx context.Context, tenantID string, uids []string) (map[string]bool, error) {
	args := m.Called(ctx, tenantID, uids)
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockCrateRepository) ListCrates(ctx context.Context, tenantID string, filter domain.CrateFilter) ([]domain.Crate, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]domain.Crate), args.Error(1)
}

func (m *MockCrateRepository) UpdateCrate(ctx context.Context, crate domain.Crate) (domain.Crate, error) {
	args := m.Called(ctx, crate)
	return args.Get(0).(domain.Crate), args.Error(1)
}

func (m *MockCrateRepository) CountActiveCrates(ctx context.Context, tenantID string) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockCrateRepository) FindContent(ctx context.Context, tenantID, crateID string) (*domain.CrateContent, error) {
	args := m.Called(ctx, tenantID, crateID)
	content, _ := args.Get(0).(*domain.CrateContent)
	return content, args.Error(1)
}

// MockCrateTypeRepository é uma implementação mock da interface CrateTypeRepository
type MockCrateTypeRepository struct {
	mock.Mock
}

func (m *MockCrateTypeRepository) CreateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error) {
	args := m.Called(ctx, ct)
	return args.Get(0).(domain.CrateType), args.Error(1)
}

func (m *MockCrateTypeRepository) FindCrateType(ctx context.Context, tenantID, id string) (domain.CrateType, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(domain.CrateType), args.Error(1)
}

func (m *MockCrateTypeRepository) ListCrateTypes(ctx context.Context, tenantID string) ([]domain.CrateType, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.CrateType), args.Error(1)
}

func (m *MockCrateTypeRepository) UpdateCrateType(ctx context.Context, ct domain.CrateType) (domain.CrateType, error) {
	args := m.Called(ctx, ct)
	return args.Get(0).(domain.CrateType), args.Error(1)
}

func (m *MockCrateTypeRepository) DeleteCrateType(ctx context.Context, tenantID, id string, at time.Time) error {
	args := m.Called(ctx, tenantID, id, at)
	return args.Error(0)
}

type recordingInvalidator struct {
	tenants []string
}

func (r *recordingInvalidator) InvalidateSummary(_ context.Context, tenantID string) {
	r.tenants = append(r.tenants, tenantID)
}

var (
	actorA = domain.Actor{TenantID: "tenant-a", UserID: "user-a", Role: domain.RoleOperator}
	actorB = domain.Actor{TenantID: "tenant-b", UserID: "user-b", Role: domain.RoleOperator}
)

func newTestLogger() logger.Logger {
	return logger.NewLoggerWithWriter("error", io.Discard)
}

func newMemService(quota int) (*crateservice.Service, *memstore.Store, *recordingInvalidator) {
	store := memstore.New()
	log := newTestLogger()
	inv := &recordingInvalidator{}
	svc := crateservice.NewService(store, store, store, ledger.NewEngine(log), inv, quota, log)
	return svc, store, inv
}

// --- Testes com mocks ---

func TestRegisterCrate_NormalizesNfcUID(t *testing.T) {
	mockRepo := new(MockCrateRepository)
	mockTypes := new(MockCrateTypeRepository)
	svc := crateservice.NewService(mockRepo, mockTypes, nil, nil, &recordingInvalidator{}, 0, newTestLogger())

	mockRepo.On("RegisterCrate", mock.Anything,
		mock.MatchedBy(func(c domain.Crate) bool {
			return c.NfcUID == "04A2B1C3" && c.TenantID == "tenant-a" && c.Status == domain.CrateAvailable
		}),
		mock.MatchedBy(func(e domain.OperationLog) bool {
			return e.OperationType == domain.OpCrateRegister && e.UserID == "user-a"
		}),
	).Return(domain.Crate{ID: "c1", NfcUID: "04A2B1C3", Status: domain.CrateAvailable}, nil)

	crate, err := svc.RegisterCrate(context.Background(), actorA, domain.CrateRegistration{NfcUID: "  04a2b1c3 "})

	require.NoError(t, err)
	assert.Equal(t, "04A2B1C3", crate.NfcUID)
	mockRepo.AssertExpectations(t)
	mockTypes.AssertNotCalled(t, "FindCrateType", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterCrate_Fail_EmptyNfcUID(t *testing.T) {
	mockRepo := new(MockCrateRepository)
	svc := crateservice.NewService(mockRepo, new(MockCrateTypeRepository), nil, nil, &recordingInvalidator{}, 0, newTestLogger())

	_, err := svc.RegisterCrate(context.Background(), actorA, domain.CrateRegistration{NfcUID: "   "})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "RegisterCrate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterCrate_Fail_QuotaExceeded(t *testing.T) {
	mockRepo := new(MockCrateRepository)
	svc := crateservice.NewService(mockRepo, new(MockCrateTypeRepository), nil, nil, &recordingInvalidator{}, 5, newTestLogger())

	mockRepo.On("CountActiveCrates", mock.Anything, "tenant-a").Return(5, nil)

	_, err := svc.RegisterCrate(context.Background(), actorA, domain.CrateRegistration{NfcUID: "NFC-9"})

	assert.IsType(t, &apperror.BusinessValidationError{}, err)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "RegisterCrate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterCrate_Fail_UnknownCrateType(t *testing.T) {
	mockRepo := new(MockCrateRepository)
	mockTypes := new(MockCrateTypeRepository)
	svc := crateservice.NewService(mockRepo, mockTypes, nil, nil, &recordingInvalidator{}, 0, newTestLogger())

	typeID := uuid.NewString()
	mockTypes.On("FindCrateType", mock.Anything, "tenant-a", typeID).
		Return(domain.CrateType{}, apperror.NewNotFoundError("Tipo de caixa não encontrado."))

	_, err := svc.RegisterCrate(context.Background(), actorA, domain.CrateRegistration{NfcUID: "NFC-1", CrateTypeID: &typeID})

	assert.IsType(t, &apperror.NotFoundError{}, err)
	mockTypes.AssertExpectations(t)
}

func TestListCrates_Fail_InvalidStatus(t *testing.T) {
	mockRepo := new(MockCrateRepository)
	svc := crateservice.NewService(mockRepo, new(MockCrateTypeRepository), nil, nil, &recordingInvalidator{}, 0, newTestLogger())

	_, err := svc.ListCrates(context.Background(), actorA, "broken")

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestGetCrate_Fail_InvalidID(t *testing.T) {
	svc := crateservice.NewService(new(MockCrateRepository), new(MockCrateTypeRepository), nil, nil, &recordingInvalidator{}, 0, newTestLogger())

	_, err := svc.GetCrate(context.Background(), actorA, "not-a-uuid")

	assert.IsType(t, &apperror.ValidationError{}, err)
}

// --- Cenários sobre o armazenamento em memória ---

func TestRegisterCrate_SameNfcUIDPerTenant(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()

	_, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)

	_, err = svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "nfc-1"})
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)

	_, err = svc.RegisterCrate(ctx, actorB, domain.CrateRegistration{NfcUID: "NFC-1"})
	assert.NoError(t, err)
}

func TestGetCrate_OtherTenantIsNotFound(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()

	crate, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)

	_, err = svc.GetCrate(ctx, actorB, crate.ID)
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = svc.DeactivateCrate(ctx, actorB, crate.ID, "")
	assert.IsType(t, &apperror.NotFoundError{}, err)

	stored, err := svc.GetCrate(ctx, actorA, crate.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CrateAvailable, stored.Status)
}

func TestBatchRegister_OneDuplicateAgainstStorage(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()
	_, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)

	res, err := svc.BatchRegister(ctx, actorA, domain.BatchRegisterRequest{Crates: []domain.CrateRegistration{
		{NfcUID: "NFC-1"}, {NfcUID: "NFC-2"}, {NfcUID: "NFC-3"},
	}})

	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalRequested)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 1, res.FailCount)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, domain.FailureDuplicateNfcUID, res.Failures[0].Code)
	assert.Equal(t, 0, res.Failures[0].Index)
}

func TestBatchRegister_DuplicatesInsideRequest(t *testing.T) {
	svc, _, _ := newMemService(0)

	res, err := svc.BatchRegister(context.Background(), actorA, domain.BatchRegisterRequest{Crates: []domain.CrateRegistration{
		{NfcUID: "AA"}, {NfcUID: "aa "}, {NfcUID: "BB"}, {NfcUID: ""},
	}})

	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalRequested)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 3, res.FailCount)
	assert.Equal(t, res.TotalRequested, res.SuccessCount+res.FailCount)

	codes := map[int]string{}
	for _, f := range res.Failures {
		codes[f.Index] = f.Code
	}
	assert.Equal(t, domain.FailureDuplicateInRequest, codes[0])
	assert.Equal(t, domain.FailureDuplicateInRequest, codes[1])
	assert.Equal(t, domain.FailureInvalidNfcUID, codes[3])
	assert.Equal(t, "BB", res.Registered[0].NfcUID)
}

func TestBatchRegister_QuotaAndUnknownType(t *testing.T) {
	svc, _, _ := newMemService(2)
	missingType := uuid.NewString()

	res, err := svc.BatchRegister(context.Background(), actorA, domain.BatchRegisterRequest{Crates: []domain.CrateRegistration{
		{NfcUID: "Q-1"}, {NfcUID: "Q-2", CrateTypeID: &missingType}, {NfcUID: "Q-3"}, {NfcUID: "Q-4"},
	}})

	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 2, res.FailCount)
	codes := map[int]string{}
	for _, f := range res.Failures {
		codes[f.Index] = f.Code
	}
	assert.Equal(t, domain.FailureCrateTypeNotFound, codes[1])
	assert.Equal(t, domain.FailureQuotaExceeded, codes[3])
}

func TestBatchRegister_Fail_EmptyList(t *testing.T) {
	svc, _, _ := newMemService(0)

	_, err := svc.BatchRegister(context.Background(), actorA, domain.BatchRegisterRequest{})

	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestDeactivateCrate_InUseClearsContent(t *testing.T) {
	svc, store, inv := newMemService(0)
	ctx := context.Background()
	crate, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)

	require.NoError(t, store.InTx(ctx, func(l ledger.Ledger) error {
		if _, err := l.SaveContent(ctx, domain.CrateContent{
			TenantID: "tenant-a", CrateID: crate.ID, GoodsID: "g1", Quantity: decimal.NewFromInt(4), Status: domain.ContentInbound,
		}); err != nil {
			return err
		}
		inUse := crate
		inUse.Status = domain.CrateInUse
		return l.SaveCrateState(ctx, inUse)
	}))

	deactivated, err := svc.DeactivateCrate(ctx, actorA, crate.ID, "quebrada")
	require.NoError(t, err)
	assert.Equal(t, domain.CrateInactive, deactivated.Status)

	content, err := store.FindContent(ctx, "tenant-a", crate.ID)
	require.NoError(t, err)
	assert.Nil(t, content)
	assert.Equal(t, []string{"tenant-a"}, inv.tenants)

	history, err := store.CrateHistory(ctx, "tenant-a", crate.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, domain.OpCrateDeactivate, history[0].OperationType)
	assert.Equal(t, domain.OpCrateContentCleared, history[1].OperationType)

	_, err = svc.DeactivateCrate(ctx, actorA, crate.ID, "")
	assert.IsType(t, &apperror.StateConflictError{}, err)

	_, err = svc.UpdateCrate(ctx, actorA, crate.ID, domain.CrateUpdate{})
	assert.IsType(t, &apperror.StateConflictError{}, err)
}

func TestBatchDeactivate_IndependentOutcomes(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()
	c1, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)
	c2, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-2"})
	require.NoError(t, err)
	_, err = svc.DeactivateCrate(ctx, actorA, c2.ID, "")
	require.NoError(t, err)

	missing := uuid.NewString()
	res, err := svc.BatchDeactivate(ctx, actorA, domain.BatchDeactivateRequest{CrateIDs: []string{c1.ID, missing, c2.ID}})

	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalRequested)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 2, res.FailCount)
	assert.Equal(t, []string{c1.ID}, res.Deactivated)
	assert.Equal(t, domain.FailureNotFound, res.Failures[0].Code)
	assert.Equal(t, domain.FailureAlreadyInactive, res.Failures[1].Code)
}

func TestUpdateCrate_ChangesNfcUIDAndRejectsTaken(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()
	c1, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)
	_, err = svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-2"})
	require.NoError(t, err)

	newUID := "nfc-10"
	updated, err := svc.UpdateCrate(ctx, actorA, c1.ID, domain.CrateUpdate{NfcUID: &newUID})
	require.NoError(t, err)
	assert.Equal(t, "NFC-10", updated.NfcUID)

	taken := "NFC-2"
	_, err = svc.UpdateCrate(ctx, actorA, c1.ID, domain.CrateUpdate{NfcUID: &taken})
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)
}

func TestLookupByNfcUID_EmptyCrateHasNoContent(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()
	_, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1"})
	require.NoError(t, err)

	details, err := svc.LookupByNfcUID(ctx, actorA, "nfc-1")
	require.NoError(t, err)
	assert.Equal(t, "NFC-1", details.Crate.NfcUID)
	assert.Nil(t, details.Content)

	_, err = svc.LookupByNfcUID(ctx, actorB, "NFC-1")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestCrateTypes_CreateAssignDelete(t *testing.T) {
	svc, _, _ := newMemService(0)
	ctx := context.Background()

	ct, err := svc.CreateCrateType(ctx, actorA, domain.CrateTypeRequest{
		Name: "Caixa média", Code: "med", Capacity: decimal.NewNullDecimal(decimal.NewFromInt(40)),
	})
	require.NoError(t, err)
	assert.Equal(t, "MED", ct.Code)
	assert.True(t, ct.IsActive)

	_, err = svc.CreateCrateType(ctx, actorA, domain.CrateTypeRequest{Name: "Outra", Code: "MED"})
	assert.IsType(t, &apperror.DuplicateKeyError{}, err)

	crate, err := svc.RegisterCrate(ctx, actorA, domain.CrateRegistration{NfcUID: "NFC-1", CrateTypeID: &ct.ID})
	require.NoError(t, err)
	assert.Equal(t, ct.ID, *crate.CrateTypeID)

	err = svc.DeleteCrateType(ctx, actorA, ct.ID)
	assert.IsType(t, &apperror.StateConflictError{}, err)

	_, err = svc.RegisterCrate(ctx, actorB, domain.CrateRegistration{NfcUID: "NFC-1", CrateTypeID: &ct.ID})
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestCreateCrateType_Fail_Validation(t *testing.T) {
	svc, _, _ := newMemService(0)

	_, err := svc.CreateCrateType(context.Background(), actorA, domain.CrateTypeRequest{Name: "", Code: "X"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.CreateCrateType(context.Background(), actorA, domain.CrateTypeRequest{
		Name: "Zero", Code: "Z", Capacity: decimal.NewNullDecimal(decimal.Zero),
	})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.CreateCrateType(context.Background(), actorA, domain.CrateTypeRequest{
		Name: "Fracionada", Code: "F", Weight: decimal.NewNullDecimal(decimal.RequireFromString("1.234")),
	})
	assert.IsType(t, &apperror.ValidationError{}, err)
}
