package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/sfmarket/daily-spin/internal/models"
	"github.com/sfmarket/daily-spin/internal/repository"
	"github.com/sfmarket/daily-spin/internal/service"
)

// --- Handler struct & constructor ---

type CouponHandler struct {
	svc      *service.CouponService
	validate *validator.Validate
	log      zerolog.Logger
}

func NewCouponHandler(svc *service.CouponService, log zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		svc:      svc,
		validate: validator.New(),
		log:      log,
	}
}

func parseTimeOrEmpty(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- Handlers ---

// ListCoupons handles GET /api/coupons?page=&limit=
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = service.DefaultPage
	}
	if limit < 1 {
		limit = service.DefaultLimit
	}

	coupons, total, err := h.svc.GetAllCoupons(r.Context(), page, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list coupons failed")
		writeFail(w, http.StatusInternalServerError, "failed to list coupons", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.Response{
		Success: true,
		Data:    coupons,
		Message: "coupon list retrieved",
		Pagination: &models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

// CreateCoupon handles POST /api/coupons
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeFail(w, http.StatusBadRequest, "amount and serialNumber are required", "")
		return
	}

	createdAt, err := parseTimeOrEmpty(req.CreatedAt)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid createdAt; use RFC3339", "")
		return
	}
	expiresAt, err := parseTimeOrEmpty(req.ExpiresAt)
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid expiresAt; use RFC3339", "")
		return
	}

	coupon, err := h.svc.CreateCoupon(r.Context(), req.Amount, req.SerialNumber, createdAt, expiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSerial) {
			writeFail(w, http.StatusConflict, "serial number already exists", "")
			return
		}
		h.log.Error().Err(err).Msg("create coupon failed")
		writeFail(w, http.StatusInternalServerError, "failed to create coupon", err.Error())
		return
	}

	writeOK(w, http.StatusCreated, coupon, "coupon created")
}

// DeleteCoupon handles DELETE /api/coupons?id= and
// DELETE /api/coupons?all=true
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("all") == "true" {
		deleted, err := h.svc.DeleteAllCoupons(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("delete all coupons failed")
			writeFail(w, http.StatusInternalServerError, "failed to delete coupons", err.Error())
			return
		}
		writeOK(w, http.StatusOK, models.DeleteAllData{Deleted: deleted}, "all coupons deleted")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeFail(w, http.StatusBadRequest, "id is required", "")
		return
	}

	ok, err := h.svc.DeleteCoupon(r.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("delete coupon failed")
		writeFail(w, http.StatusInternalServerError, "failed to delete coupon", err.Error())
		return
	}
	if !ok {
		writeFail(w, http.StatusNotFound, "coupon not found", "")
		return
	}
	writeOK(w, http.StatusOK, nil, "coupon deleted")
}

// UpdateUsedStatus handles PATCH /api/coupons?id= with {"isUsed": bool}
func (h *CouponHandler) UpdateUsedStatus(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeFail(w, http.StatusBadRequest, "id is required", "")
		return
	}

	var req models.UpdateUsedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeFail(w, http.StatusBadRequest, "isUsed is required", "")
		return
	}

	ok, err := h.svc.UpdateCouponUsedStatus(r.Context(), id, *req.IsUsed)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("update used status failed")
		writeFail(w, http.StatusInternalServerError, "failed to update coupon", err.Error())
		return
	}
	if !ok {
		writeFail(w, http.StatusNotFound, "coupon not found", "")
		return
	}
	writeOK(w, http.StatusOK, nil, "coupon updated")
}

// GetStats handles GET /api/coupons/stats
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetCouponStats(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("coupon stats failed")
		writeFail(w, http.StatusInternalServerError, "failed to compute stats", err.Error())
		return
	}
	writeOK(w, http.StatusOK, stats, "coupon stats retrieved")
}
