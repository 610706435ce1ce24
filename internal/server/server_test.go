package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villageOrderTracking/internal/localstore"
	"villageOrderTracking/internal/logging"
	"villageOrderTracking/internal/testutil"
	"villageOrderTracking/models"
	"villageOrderTracking/repository"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, name, secret string) (*Server, *gin.Engine) {
	t.Helper()
	store := localstore.New(testutil.OpenInMemoryDB(t, name))
	log := logging.New()
	repo := repository.NewOrderRepository(store, nil, log)
	t.Cleanup(repo.Close)
	village := repository.NewVillageState(store, nil, log)
	t.Cleanup(village.Close)
	s := New(repo, village, secret, log)
	return s, s.Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", testutil.BearerHeader(token))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeOrder(t *testing.T, w *httptest.ResponseRecorder) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	return o
}

func TestHealthz_NoAuthRequired(t *testing.T) {
	_, r := newTestServer(t, "srv_healthz", testSecret)
	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RejectsMissingToken(t *testing.T) {
	_, r := newTestServer(t, "srv_no_token", testSecret)
	w := doJSON(t, r, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_EmptySecretDisablesAuth(t *testing.T) {
	_, r := newTestServer(t, "srv_dev_mode", "")
	w := doJSON(t, r, http.MethodGet, "/api/orders", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateOrder_AppliesDefaults(t *testing.T) {
	s, r := newTestServer(t, "srv_create_defaults", testSecret)
	require.NoError(t, s.village.Set(context.Background(), "Meadowbrook"))
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "owner")

	w := doJSON(t, r, http.MethodPost, "/api/orders", tok, gin.H{
		"customerName": "Asha Patel",
		"productName":  "Rice 25kg",
		"quantity":     2,
		"price":        1200,
		"landmark":     "Near the temple",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	o := decodeOrder(t, w)
	assert.True(t, strings.HasPrefix(o.OrderID, "ORD-"))
	assert.Equal(t, "Meadowbrook", o.VillageName)
	assert.Equal(t, models.DeliveryStatusPending, o.DeliveryStatus)
	assert.Equal(t, models.DeliveryPriorityNormal, o.DeliveryPriority)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), o.ExpectedDeliveryDate, time.Minute)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	_, r := newTestServer(t, "srv_create_invalid", testSecret)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "owner")

	w := doJSON(t, r, http.MethodPost, "/api/orders", tok, gin.H{
		"villageName":  "Meadowbrook",
		"customerName": "Asha Patel",
		"productName":  "Rice 25kg",
		"quantity":     0,
		"price":        1200,
		"landmark":     "Near the temple",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	_, r := newTestServer(t, "srv_get_missing", testSecret)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "admin")
	w := doJSON(t, r, http.MethodGet, "/api/orders/ORD-404", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	_, r := newTestServer(t, "srv_lifecycle", testSecret)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "owner")

	w := doJSON(t, r, http.MethodPost, "/api/orders", tok, gin.H{
		"villageName":  "Stonefield",
		"customerName": "Bilal Khan",
		"productName":  "Sugar 5kg",
		"quantity":     1,
		"price":        300,
		"landmark":     "By the well",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeOrder(t, w)

	w = doJSON(t, r, http.MethodGet, "/api/orders?search=bilal", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.OrderID, listed[0].OrderID)

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/orders/%s", created.OrderID), tok, gin.H{
		"deliveryNotes": "call before noon",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "call before noon", decodeOrder(t, w).DeliveryNotes)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%s/deliver", created.OrderID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.DeliveryStatusDelivered, decodeOrder(t, w).DeliveryStatus)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/orders/%s", created.OrderID), tok, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/orders/%s", created.OrderID), tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrders_RejectsUnknownStatus(t *testing.T) {
	_, r := newTestServer(t, "srv_bad_status", testSecret)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "owner")
	w := doJSON(t, r, http.MethodGet, "/api/orders?status=Shipped", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeliveries_ReturnsQueue(t *testing.T) {
	_, r := newTestServer(t, "srv_deliveries", testSecret)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "owner")

	w := doJSON(t, r, http.MethodPost, "/api/orders", tok, gin.H{
		"villageName":  "Meadowbrook",
		"customerName": "Chen Wei",
		"productName":  "Lentils 10kg",
		"quantity":     1,
		"price":        900,
		"landmark":     "Opposite the school",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/deliveries", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var q repository.DeliveryQueue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Empty(t, q.Overdue)
	assert.Len(t, q.Upcoming, 1)
}

func TestVillageEndpoints(t *testing.T) {
	_, r := newTestServer(t, "srv_village", testSecret)
	tok := testutil.GenerateJWTHS256(t, testSecret, "alice", "owner")

	w := doJSON(t, r, http.MethodGet, "/api/village", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"activeVillage":""}`, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/api/village", tok, gin.H{"activeVillage": "Meadowbrook"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/api/village", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"activeVillage":"Meadowbrook"}`, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/api/village", tok, gin.H{"activeVillage": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/village", tok, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/village", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"activeVillage":""}`, w.Body.String())
}
