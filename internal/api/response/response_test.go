package response

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cratetrack/internal/domain"
	apperror "cratetrack/internal/errors"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/pkg/middleware"
)

var discard = logger.NewLoggerWithWriter("error", io.Discard)

func TestBatchStatus(t *testing.T) {
	assert.Equal(t, http.StatusCreated, BatchStatus(0, http.StatusCreated))
	assert.Equal(t, http.StatusOK, BatchStatus(0, http.StatusOK))
	assert.Equal(t, http.StatusMultiStatus, BatchStatus(1, http.StatusCreated))
}

func TestHandle_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/goods", nil)

	Handle(rec, req, discard, []domain.Goods{{ID: "g1", SKU: "MACA"}}, nil, http.StatusOK)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body []domain.Goods
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "MACA", body[0].SKU)
}

func TestHandle_NoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/shipment-orders/x", nil)

	Handle(rec, req, discard, nil, nil, http.StatusNoContent)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestHandle_ErrorBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipment-orders/x/complete", nil)

	Handle(rec, req, discard, nil, apperror.NewStateConflictError("A ordem já foi concluída."), http.StatusOK)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusConflict, body.Code)
	assert.Equal(t, "STATE_CONFLICT", body.Category)
	assert.Equal(t, "Conflito de estado: A ordem já foi concluída.", body.Message)
}

func TestDecode(t *testing.T) {
	var reg domain.CrateRegistration
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nfcUid":"04A1"}`))
	require.NoError(t, Decode(req, &reg, false))
	assert.Equal(t, "04A1", reg.NfcUID)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nfcUid":`))
	err := Decode(req, &reg, false)
	status, category, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", category)
}

func TestDecode_EmptyBody(t *testing.T) {
	var body domain.DeactivateRequest

	req := httptest.NewRequest(http.MethodPut, "/", nil)
	assert.NoError(t, Decode(req, &body, true))

	req = httptest.NewRequest(http.MethodPut, "/", nil)
	assert.Error(t, Decode(req, &body, false))
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := Actor(req)
	require.Error(t, err)

	want := domain.Actor{TenantID: "tenant-a", UserID: "user-a", Role: domain.RoleViewer}
	req = req.WithContext(middleware.WithActor(req.Context(), want))
	got, err := Actor(req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
