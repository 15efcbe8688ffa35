package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/avvvet/palletscan-services/internal/scansvc/service"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type ScanAPI interface {
	StartScan(ctx context.Context) (*models.Scan, error)
	GetScan(ctx context.Context, id int64) (*models.Scan, error)
	ListScans(ctx context.Context, status string, from, to *time.Time) ([]models.Scan, error)
	FinishScan(ctx context.Context, id int64) (*models.Scan, error)
	ReopenScan(ctx context.Context, id int64) (*models.Scan, error)
	DeleteScan(ctx context.Context, id int64) error
	GetScanSummary(ctx context.Context, id int64) (*models.ScanResults, error)
	ListPallets(ctx context.Context, scanID int64) ([]models.PalletSummary, error)
	GetSkuTotals(ctx context.Context, scanID int64) ([]models.SkuTotal, error)
}

type PalletAPI interface {
	CreatePallet(ctx context.Context, scanID int64, number *string) (*models.Pallet, error)
	GetPallet(ctx context.Context, id int64) (*models.Pallet, error)
	RenamePallet(ctx context.Context, id int64, number string) (*models.Pallet, error)
	DeletePallet(ctx context.Context, id int64) error
}

type SkuAPI interface {
	RecordScan(ctx context.Context, palletID int64, raw string) (scanning.MergeResult, error)
	RecordFields(ctx context.Context, palletID int64, skuCode, quantity string) (scanning.MergeResult, error)
	GetSkuLine(ctx context.Context, id int64) (*models.SkuLine, error)
	ListSkuLines(ctx context.Context, palletID int64) ([]models.SkuLine, error)
	DeleteSkuLine(ctx context.Context, id int64) error
}

type AuthAPI interface {
	Authenticate(ctx context.Context, userName, password string) (*models.User, error)
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	tokenTTL  time.Duration

	scans   ScanAPI
	pallets PalletAPI
	skus    SkuAPI
	users   AuthAPI
}

func NewHandler(scans ScanAPI, pallets PalletAPI, skus SkuAPI, users AuthAPI) *Handler {
	return &Handler{
		scans:   scans,
		pallets: pallets,
		skus:    skus,
		users:   users,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("unable to encode response: %s", err)
	}
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: http.StatusOK, Data: data})
}

func (h *Handler) fail(w http.ResponseWriter, code int, message string) {
	h.CreateResponse(w, Response{Message: http.StatusText(code), Code: code, Error: message})
}

// writeError maps the error taxonomy to a status. Infrastructure details stay in the log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.fail(w, http.StatusUnauthorized, err.Error())
		return
	}

	switch scanning.KindOf(err) {
	case scanning.KindValidation:
		h.fail(w, http.StatusBadRequest, scanning.ReasonOf(err))
	case scanning.KindNotFound:
		h.fail(w, http.StatusNotFound, scanning.ReasonOf(err))
	case scanning.KindConflict:
		h.fail(w, http.StatusConflict, scanning.ReasonOf(err))
	default:
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
		h.fail(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, http.StatusBadRequest, "id must be a positive number")
		return 0, false
	}
	return id, true
}

// dateParam accepts 2006-01-02 or RFC 3339. An absent parameter is nil.
func dateParam(r *http.Request, key string) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, scanning.Validation("%s must be a date like 2006-01-02", key)
	}
	return &t, nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "scan service is running", nil)
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	UserName    string `json:"userName"`
	Role        string `json:"role"`
	ExpiresAt   int64  `json:"expiresAt"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.UserName, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	exp := time.Now().Add(h.tokenTTL).Unix()
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"name": user.UserName,
		"role": user.Role,
		"exp":  exp,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.ok(w, "login successful", loginResponse{
		AccessToken: tokenString,
		UserName:    user.UserName,
		Role:        user.Role,
		ExpiresAt:   exp,
	})
}
