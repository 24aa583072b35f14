package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"cratetrack/internal/api/catalog"
	"cratetrack/internal/api/crate"
	"cratetrack/internal/api/inventory"
	"cratetrack/internal/api/router"
	"cratetrack/internal/api/shipment"
	"cratetrack/internal/api/user"
	"cratetrack/internal/domain"
	"cratetrack/internal/ledger"
	"cratetrack/internal/pkg/cache"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/pkg/token"
	"cratetrack/internal/repository/memstore"
	"cratetrack/internal/service/catalogservice"
	"cratetrack/internal/service/crateservice"
	"cratetrack/internal/service/inventoryservice"
	"cratetrack/internal/service/shipmentservice"
	"cratetrack/internal/service/userservice"
)

type testServer struct {
	t      *testing.T
	srv    *httptest.Server
	store  *memstore.Store
	tokens *token.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logger.NewLoggerWithWriter("error", io.Discard)
	store := memstore.New()
	engine := ledger.NewEngine(log)
	tokens := token.NewService("segredo-de-teste", time.Hour)

	inventorySvc := inventoryservice.NewService(store, store, cache.NopClient{}, time.Minute, log)
	crateSvc := crateservice.NewService(store, store, store, engine, inventorySvc, 0, log)
	shipmentSvc := shipmentservice.NewService(store, store, store, store, engine, inventorySvc, log)

	h := router.Handlers{
		Crate:     crate.NewHandler(crateSvc, log),
		Shipment:  shipment.NewHandler(shipmentSvc, log),
		Inventory: inventory.NewHandler(inventorySvc, log),
		Catalog:   catalog.NewHandler(catalogservice.NewService(store, log), log),
		User:      user.NewHandler(userservice.NewService(store, tokens, log), log),
	}
	srv := httptest.NewServer(router.NewRouter(h, tokens, nil))
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, store: store, tokens: tokens}
}

func (s *testServer) tokenFor(tenantID string, role domain.UserRole) string {
	s.t.Helper()
	tok, err := s.tokens.GenerateToken(uuid.NewString(), tenantID, string(role))
	require.NoError(s.t, err)
	return tok
}

// do executa a requisição e decodifica o corpo em out (quando não nil).
func (s *testServer) do(method, path, tok string, body interface{}, out interface{}) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	require.NoError(s.t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	resp, err := http.Get(s.srv.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	var errBody domain.ErrorResponse
	status := s.do(http.MethodGet, "/api/v1/crates", "", nil, &errBody)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errBody.Category)
}

func TestViewerCannotWrite(t *testing.T) {
	s := newTestServer(t)
	viewer := s.tokenFor("tenant-a", domain.RoleViewer)

	status := s.do(http.MethodPost, "/api/v1/crates", viewer, domain.CrateRegistration{NfcUID: "NFC-1"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var crates []domain.Crate
	status = s.do(http.MethodGet, "/api/v1/crates", viewer, nil, &crates)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, crates)
}

func TestCreateUser_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	reg := domain.UserRegistration{Email: "op@example.com", Password: "segredo123", Role: domain.RoleOperator}

	status := s.do(http.MethodPost, "/api/v1/users", s.tokenFor("tenant-a", domain.RoleOperator), reg, nil)
	assert.Equal(t, http.StatusForbidden, status)

	var created domain.User
	status = s.do(http.MethodPost, "/api/v1/users", s.tokenFor("tenant-a", domain.RoleAdmin), reg, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "tenant-a", created.TenantID)

	var login domain.LoginResponse
	status = s.do(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Email: "op@example.com", Password: "segredo123"}, &login)
	require.Equal(t, http.StatusOK, status)

	claims, err := s.tokens.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", claims.TenantID)
	assert.Equal(t, created.ID, claims.UserID)
	assert.Equal(t, "operator", claims.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("segredo123"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = s.store.SaveUser(context.Background(), domain.User{
		ID: uuid.NewString(), TenantID: "tenant-a", Email: "ana@example.com", PasswordHash: string(hash), Role: domain.RoleAdmin,
	})
	require.NoError(t, err)

	var errBody domain.ErrorResponse
	status := s.do(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Email: "ana@example.com", Password: "errada"}, &errBody)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errBody.Category)
}

func TestBatchRegister_PartialSuccessIs207(t *testing.T) {
	s := newTestServer(t)
	op := s.tokenFor("tenant-a", domain.RoleOperator)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/crates", op, domain.CrateRegistration{NfcUID: "NFC-1"}, nil))

	var result domain.BatchRegisterResult
	status := s.do(http.MethodPost, "/api/v1/batch/crates/register", op, domain.BatchRegisterRequest{
		Crates: []domain.CrateRegistration{{NfcUID: "NFC-1"}, {NfcUID: "NFC-2"}, {NfcUID: "NFC-3"}},
	}, &result)

	assert.Equal(t, http.StatusMultiStatus, status)
	assert.Equal(t, 3, result.TotalRequested)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, domain.FailureDuplicateNfcUID, result.Failures[0].Code)

	status = s.do(http.MethodPost, "/api/v1/batch/crates/register", op, domain.BatchRegisterRequest{
		Crates: []domain.CrateRegistration{{NfcUID: "NFC-4"}},
	}, &result)
	assert.Equal(t, http.StatusCreated, status)
}

func TestInboundFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	op := s.tokenFor("tenant-a", domain.RoleOperator)
	other := s.tokenFor("tenant-b", domain.RoleOperator)

	var goods domain.Goods
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/goods", op, map[string]string{"sku": "maca-01", "name": "Maçã"}, &goods))
	var loc domain.Location
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/locations", op, map[string]string{"code": "doca-1", "name": "Doca 1"}, &loc))
	var crateResp domain.Crate
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/crates", op, domain.CrateRegistration{NfcUID: "04a1"}, &crateResp))

	var order domain.ShipmentOrder
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/shipment-orders", op, map[string]string{"type": "INBOUND"}, &order))

	var item domain.ShipmentOrderItem
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/shipment-orders/"+order.ID+"/items", op,
		map[string]interface{}{"goodsId": goods.ID, "expectedQuantity": "12.5"}, &item))

	var errBody domain.ErrorResponse
	status := s.do(http.MethodPost, "/api/v1/shipment-orders/"+order.ID+"/complete", op, nil, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BUSINESS_VALIDATION", errBody.Category)

	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/shipment-order-items/"+item.ID+"/scans", op,
		map[string]interface{}{"nfcUid": "04A1", "actualQuantity": "12.5", "locationId": loc.ID}, nil))

	status = s.do(http.MethodPost, "/api/v1/shipment-order-items/"+item.ID+"/scans", op,
		map[string]interface{}{"nfcUid": "04A1", "actualQuantity": "1", "locationId": loc.ID}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE_KEY", errBody.Category)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/v1/shipment-orders/"+order.ID+"/complete", other, nil, nil))

	var completed domain.ShipmentOrder
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/shipment-orders/"+order.ID+"/complete", op, nil, &completed))
	assert.Equal(t, domain.OrderCompleted, completed.Status)

	var details domain.CrateDetails
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/crates/nfc/lookup?nfcUid=04a1", op, nil, &details))
	require.NotNil(t, details.Content)
	assert.Equal(t, "12.5", details.Content.Quantity.String())
	assert.Equal(t, domain.CrateInUse, details.Crate.Status)

	var summary []domain.InventorySummaryLine
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/inventory/summary", op, nil, &summary))
	require.Len(t, summary, 1)
	assert.Equal(t, goods.ID, summary[0].GoodsID)
	assert.Equal(t, 1, summary[0].CrateCount)

	var history []domain.OperationLog
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/history/crates?nfcUid=04A1", op, nil, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "INBOUND", history[0].OperationType)

	var deactivated domain.Crate
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/v1/crates/"+crateResp.ID+"/deactivate", op, nil, &deactivated))
	assert.Equal(t, domain.CrateInactive, deactivated.Status)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/inventory/summary", op, nil, &summary))
	assert.Empty(t, summary)
}

func TestGetCrate_InvalidIDIs400(t *testing.T) {
	s := newTestServer(t)

	var errBody domain.ErrorResponse
	status := s.do(http.MethodGet, "/api/v1/crates/nao-e-uuid", s.tokenFor("tenant-a", domain.RoleViewer), nil, &errBody)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errBody.Category)
}

func TestImportCratesFromSheet(t *testing.T) {
	s := newTestServer(t)
	op := s.tokenFor("tenant-a", domain.RoleOperator)

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	for i, uid := range []string{"NFC UID", "AA01", "aa01", "AA02"} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetCellValue(sheet, cell, uid))
	}
	xlsx, err := wb.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "caixas.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, xlsx)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/v1/batch/crates/import", &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+op)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result domain.BatchRegisterResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, http.StatusMultiStatus, resp.StatusCode)
	assert.Equal(t, 3, result.TotalRequested)
	assert.Equal(t, 1, result.SuccessCount)
	require.Len(t, result.Failures, 2)
	for _, f := range result.Failures {
		assert.Equal(t, domain.FailureDuplicateInRequest, f.Code)
	}
	require.Len(t, result.Registered, 1)
	assert.Equal(t, "AA02", result.Registered[0].NfcUID)
}
