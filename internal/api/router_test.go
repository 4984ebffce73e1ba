package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfmarket/daily-spin/internal/api"
	"github.com/sfmarket/daily-spin/internal/auth"
	"github.com/sfmarket/daily-spin/internal/models"
	"github.com/sfmarket/daily-spin/internal/service"
	"github.com/sfmarket/daily-spin/internal/testutil"
)

type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Message    string             `json:"message"`
	Error      string             `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func newTestRouter(store service.CouponStore) http.Handler {
	svc := service.NewCouponService(store)
	creds := auth.Credentials{Username: "admin", Password: "secret"}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	return api.NewRouter(svc, creds, tokens, zerolog.Nop())
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) (int, envelope) {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env
}

func createCoupon(t *testing.T, h http.Handler, amount int, serial string) models.Coupon {
	t.Helper()
	code, env := doJSON(t, h, http.MethodPost, "/api/coupons", models.CreateCouponRequest{
		Amount:       amount,
		SerialNumber: serial,
	})
	require.Equal(t, http.StatusCreated, code)
	require.True(t, env.Success)

	var c models.Coupon
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

func TestHealth(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestLogin(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	t.Run("success", func(t *testing.T) {
		code, env := doJSON(t, h, http.MethodPost, "/api/admin/login", models.LoginRequest{
			Username: "admin", Password: "secret",
		})
		require.Equal(t, http.StatusOK, code)
		require.True(t, env.Success)

		var data models.LoginData
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.NotEmpty(t, data.Token)
		assert.Greater(t, data.ExpiryTime, time.Now().UnixMilli())
	})

	t.Run("wrong password", func(t *testing.T) {
		code, env := doJSON(t, h, http.MethodPost, "/api/admin/login", models.LoginRequest{
			Username: "admin", Password: "nope",
		})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.False(t, env.Success)
	})

	t.Run("wrong username same message", func(t *testing.T) {
		_, envUser := doJSON(t, h, http.MethodPost, "/api/admin/login", models.LoginRequest{
			Username: "nope", Password: "secret",
		})
		_, envPass := doJSON(t, h, http.MethodPost, "/api/admin/login", models.LoginRequest{
			Username: "admin", Password: "nope",
		})
		// never reveals which field was wrong
		assert.Equal(t, envUser.Message, envPass.Message)
	})

	t.Run("missing fields", func(t *testing.T) {
		code, env := doJSON(t, h, http.MethodPost, "/api/admin/login", models.LoginRequest{Username: "admin"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.False(t, env.Success)
	})
}

func TestCreateCoupon(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	t.Run("created", func(t *testing.T) {
		c := createCoupon(t, h, 3000, "SF-ABCDEFGH")
		assert.Equal(t, 3000, c.Amount)
		assert.Equal(t, "SF-ABCDEFGH", c.SerialNumber)
		assert.NotEmpty(t, c.ID)
		assert.True(t, c.ExpiresAt.Equal(c.CreatedAt.AddDate(0, 0, 30)))
	})

	t.Run("duplicate serial conflicts", func(t *testing.T) {
		code, env := doJSON(t, h, http.MethodPost, "/api/coupons", models.CreateCouponRequest{
			Amount: 1000, SerialNumber: "SF-ABCDEFGH",
		})
		assert.Equal(t, http.StatusConflict, code)
		assert.False(t, env.Success)
	})

	t.Run("missing fields", func(t *testing.T) {
		code, _ := doJSON(t, h, http.MethodPost, "/api/coupons", models.CreateCouponRequest{Amount: 1000})
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = doJSON(t, h, http.MethodPost, "/api/coupons", models.CreateCouponRequest{SerialNumber: "SF-NOAMOUNT"})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		code, _ := doJSON(t, h, http.MethodPost, "/api/coupons", models.CreateCouponRequest{
			Amount: 1000, SerialNumber: "SF-BADTIME0", CreatedAt: "yesterday",
		})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("explicit timestamps preserved", func(t *testing.T) {
		created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		code, env := doJSON(t, h, http.MethodPost, "/api/coupons", models.CreateCouponRequest{
			Amount:       2000,
			SerialNumber: "SF-MIRROR01",
			CreatedAt:    created.Format(time.RFC3339),
			ExpiresAt:    created.AddDate(0, 0, 30).Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, code)

		var c models.Coupon
		require.NoError(t, json.Unmarshal(env.Data, &c))
		assert.True(t, c.CreatedAt.Equal(created))
		assert.True(t, c.ExpiresAt.Equal(created.AddDate(0, 0, 30)))
	})
}

func TestListCreateDeleteLifecycle(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	c := createCoupon(t, h, 3000, "SF-LIFEC001")

	code, env := doJSON(t, h, http.MethodGet, "/api/coupons?page=1&limit=20", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.Page)
	assert.Equal(t, 20, env.Pagination.Limit)
	assert.Equal(t, 1, env.Pagination.Total)
	assert.Equal(t, 1, env.Pagination.TotalPages)

	var listed []models.Coupon
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, c.ID, listed[0].ID)

	code, env = doJSON(t, h, http.MethodDelete, "/api/coupons?id="+c.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = doJSON(t, h, http.MethodGet, "/api/coupons?page=1&limit=20", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Empty(t, listed)

	// deleting again is a 404
	code, env = doJSON(t, h, http.MethodDelete, "/api/coupons?id="+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestListPagination(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	for i := 0; i < 25; i++ {
		createCoupon(t, h, 1000, fmt.Sprintf("SF-PAGE%04d", i))
	}

	code, env := doJSON(t, h, http.MethodGet, "/api/coupons?page=2&limit=10", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 25, env.Pagination.Total)
	assert.Equal(t, 3, env.Pagination.TotalPages)

	var listed []models.Coupon
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 10)

	// defaults apply when params are absent
	code, env = doJSON(t, h, http.MethodGet, "/api/coupons", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, env.Pagination.Page)
	assert.Equal(t, 20, env.Pagination.Limit)
}

func TestDeleteMissingID(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	code, env := doJSON(t, h, http.MethodDelete, "/api/coupons", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestDeleteAll(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	createCoupon(t, h, 1000, "SF-WIPE0001")
	createCoupon(t, h, 2000, "SF-WIPE0002")

	code, env := doJSON(t, h, http.MethodDelete, "/api/coupons?all=true", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)

	var data models.DeleteAllData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.EqualValues(t, 2, data.Deleted)
}

func TestUpdateUsedStatus(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	c := createCoupon(t, h, 3000, "SF-TOGGLE01")
	used := true

	code, env := doJSON(t, h, http.MethodPatch, "/api/coupons?id="+c.ID, models.UpdateUsedRequest{IsUsed: &used})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = doJSON(t, h, http.MethodGet, "/api/coupons/stats", nil)
	require.Equal(t, http.StatusOK, code)
	var stats models.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.UsedCoupons)
	assert.Equal(t, 0, stats.UnusedCoupons)
	assert.Equal(t, 3000, stats.UsedAmount)

	t.Run("missing body", func(t *testing.T) {
		code, _ := doJSON(t, h, http.MethodPatch, "/api/coupons?id="+c.ID, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown id", func(t *testing.T) {
		code, _ := doJSON(t, h, http.MethodPatch, "/api/coupons?id=00000000-0000-0000-0000-000000000000", models.UpdateUsedRequest{IsUsed: &used})
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("missing id", func(t *testing.T) {
		code, _ := doJSON(t, h, http.MethodPatch, "/api/coupons", models.UpdateUsedRequest{IsUsed: &used})
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestStatsEmpty(t *testing.T) {
	h := newTestRouter(testutil.NewMemCouponStore())

	code, env := doJSON(t, h, http.MethodGet, "/api/coupons/stats", nil)
	require.Equal(t, http.StatusOK, code)
	require.True(t, env.Success)

	var stats models.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, models.Stats{}, stats)
}

func TestStorageFailureStaysInEnvelope(t *testing.T) {
	store := testutil.NewMemCouponStore()
	store.Err = testutil.ErrForced
	h := newTestRouter(store)

	code, env := doJSON(t, h, http.MethodGet, "/api/coupons", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, env.Success)
	// generic message for the client, detail only in the debug string
	assert.Equal(t, "failed to list coupons", env.Message)
}
