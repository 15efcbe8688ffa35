package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/avvvet/palletscan-services/internal/scansvc/service"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ServiceMock stands in for every service the handler talks to.
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) StartScan(ctx context.Context) (*models.Scan, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.Scan)
	return s, args.Error(1)
}

func (m *ServiceMock) GetScan(ctx context.Context, id int64) (*models.Scan, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Scan)
	return s, args.Error(1)
}

func (m *ServiceMock) ListScans(ctx context.Context, status string, from, to *time.Time) ([]models.Scan, error) {
	args := m.Called(ctx, status, from, to)
	s, _ := args.Get(0).([]models.Scan)
	return s, args.Error(1)
}

func (m *ServiceMock) FinishScan(ctx context.Context, id int64) (*models.Scan, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Scan)
	return s, args.Error(1)
}

func (m *ServiceMock) ReopenScan(ctx context.Context, id int64) (*models.Scan, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.Scan)
	return s, args.Error(1)
}

func (m *ServiceMock) DeleteScan(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ServiceMock) GetScanSummary(ctx context.Context, id int64) (*models.ScanResults, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*models.ScanResults)
	return s, args.Error(1)
}

func (m *ServiceMock) ListPallets(ctx context.Context, scanID int64) ([]models.PalletSummary, error) {
	args := m.Called(ctx, scanID)
	s, _ := args.Get(0).([]models.PalletSummary)
	return s, args.Error(1)
}

func (m *ServiceMock) GetSkuTotals(ctx context.Context, scanID int64) ([]models.SkuTotal, error) {
	args := m.Called(ctx, scanID)
	s, _ := args.Get(0).([]models.SkuTotal)
	return s, args.Error(1)
}

func (m *ServiceMock) CreatePallet(ctx context.Context, scanID int64, number *string) (*models.Pallet, error) {
	args := m.Called(ctx, scanID, number)
	p, _ := args.Get(0).(*models.Pallet)
	return p, args.Error(1)
}

func (m *ServiceMock) GetPallet(ctx context.Context, id int64) (*models.Pallet, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Pallet)
	return p, args.Error(1)
}

func (m *ServiceMock) RenamePallet(ctx context.Context, id int64, number string) (*models.Pallet, error) {
	args := m.Called(ctx, id, number)
	p, _ := args.Get(0).(*models.Pallet)
	return p, args.Error(1)
}

func (m *ServiceMock) DeletePallet(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ServiceMock) RecordScan(ctx context.Context, palletID int64, raw string) (scanning.MergeResult, error) {
	args := m.Called(ctx, palletID, raw)
	return args.Get(0).(scanning.MergeResult), args.Error(1)
}

func (m *ServiceMock) RecordFields(ctx context.Context, palletID int64, skuCode, quantity string) (scanning.MergeResult, error) {
	args := m.Called(ctx, palletID, skuCode, quantity)
	return args.Get(0).(scanning.MergeResult), args.Error(1)
}

func (m *ServiceMock) GetSkuLine(ctx context.Context, id int64) (*models.SkuLine, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.SkuLine)
	return l, args.Error(1)
}

func (m *ServiceMock) ListSkuLines(ctx context.Context, palletID int64) ([]models.SkuLine, error) {
	args := m.Called(ctx, palletID)
	l, _ := args.Get(0).([]models.SkuLine)
	return l, args.Error(1)
}

func (m *ServiceMock) DeleteSkuLine(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ServiceMock) Authenticate(ctx context.Context, userName, password string) (*models.User, error) {
	args := m.Called(ctx, userName, password)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type testServer struct {
	h      *Handler
	router *chi.Mux
	svc    *ServiceMock
}

func newTestServer() *testServer {
	svc := new(ServiceMock)
	h := NewHandler(svc, svc, svc, svc)
	h.InitAuth("test-secret", time.Hour)
	r := chi.NewRouter()
	h.SetRoutes(r)
	return &testServer{h: h, router: r, svc: svc}
}

func (ts *testServer) token(t *testing.T, role string) string {
	t.Helper()
	_, token, err := ts.h.tokenAuth.Encode(map[string]interface{}{
		"name": "tester",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, role, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token(t, role))
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var rsp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	}
	return rec, rsp
}

func TestAuth(t *testing.T) {
	t.Run("should reject requests without a token", func(t *testing.T) {
		ts := newTestServer()
		rec, _ := ts.do(t, http.MethodGet, "/v1/scans", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should keep admin routes for administrators", func(t *testing.T) {
		ts := newTestServer()
		rec, _ := ts.do(t, http.MethodPost, "/v1/scans", models.RoleUser, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = ts.do(t, http.MethodDelete, "/v1/scans/3", models.RoleUser, "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		ts.svc.AssertNotCalled(t, "DeleteScan", mock.Anything, mock.Anything)

		ts.svc.On("StartScan", mock.Anything).
			Return(&models.Scan{ID: 1, ControlNumber: "SC00000000012026"}, nil)
		rec, rsp := ts.do(t, http.MethodPost, "/v1/scans", models.RoleAdministrator, "")
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "scan started", rsp.Message)
	})

	t.Run("should issue a token on login", func(t *testing.T) {
		ts := newTestServer()
		ts.svc.On("Authenticate", mock.Anything, "admin", "pw").
			Return(&models.User{UserName: "admin", Role: models.RoleAdministrator}, nil)
		ts.svc.On("Authenticate", mock.Anything, "admin", "bad").
			Return(nil, service.ErrInvalidCredentials)

		rec, rsp := ts.do(t, http.MethodPost, "/v1/login", "", `{"userName":"admin","password":"pw"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		data := rsp.Data.(map[string]interface{})
		assert.Equal(t, models.RoleAdministrator, data["role"])
		token := data["accessToken"].(string)

		_, err := ts.h.tokenAuth.Decode(token)
		assert.NoError(t, err)

		rec, _ = ts.do(t, http.MethodPost, "/v1/login", "", `{"userName":"admin","password":"bad"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", scanning.Validation("quantity after 'Q' is required"), http.StatusBadRequest, "quantity after 'Q' is required"},
		{"not found", scanning.NotFound("pallet", 8), http.StatusNotFound, "pallet 8 not found"},
		{"conflict", scanning.Conflict("too many pieces"), http.StatusConflict, "too many pieces"},
		{"infrastructure", scanning.Infrastructure("lock pallet", errors.New("pq: password for user scan")), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run("should map "+tc.name, func(t *testing.T) {
			ts := newTestServer()
			ts.svc.On("RecordScan", mock.Anything, int64(8), "P1Q1").Return(scanning.MergeResult{}, tc.err)

			rec, rsp := ts.do(t, http.MethodPost, "/v1/skus", models.RoleUser, `{"palletId":8,"scanField":"P1Q1"}`)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.code, rsp.Code)
			assert.Equal(t, tc.msg, rsp.Error)
		})
	}
}

func TestRecordScan(t *testing.T) {
	t.Run("should answer 201 for a new line and 200 for a merge", func(t *testing.T) {
		ts := newTestServer()
		ts.svc.On("RecordScan", mock.Anything, int64(8), "P100Q5").
			Return(scanning.MergeResult{Line: models.SkuLine{ID: 1, PalletID: 8, Code: "100", Quantity: 5, ScanCount: 1}, Outcome: scanning.Created}, nil)
		ts.svc.On("RecordScan", mock.Anything, int64(8), "Q3P100").
			Return(scanning.MergeResult{Line: models.SkuLine{ID: 1, PalletID: 8, Code: "100", Quantity: 8, ScanCount: 2}, Outcome: scanning.Merged}, nil)

		rec, rsp := ts.do(t, http.MethodPost, "/v1/skus", models.RoleUser, `{"palletId":8,"scanField":"P100Q5"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "created", rsp.Data.(map[string]interface{})["outcome"])

		rec, rsp = ts.do(t, http.MethodPost, "/v1/skus", models.RoleUser, `{"palletId":8,"scanField":"Q3P100"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "merged", rsp.Data.(map[string]interface{})["outcome"])
	})

	t.Run("should route the two field form", func(t *testing.T) {
		ts := newTestServer()
		ts.svc.On("RecordFields", mock.Anything, int64(8), "P100", "Q4").
			Return(scanning.MergeResult{Line: models.SkuLine{ID: 2}, Outcome: scanning.Created}, nil)

		rec, _ := ts.do(t, http.MethodPost, "/v1/skus", models.RoleUser, `{"palletId":8,"skuCode":"P100","quantity":"Q4"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		ts.svc.AssertExpectations(t)
	})

	t.Run("should refuse a broken body", func(t *testing.T) {
		ts := newTestServer()
		rec, rsp := ts.do(t, http.MethodPost, "/v1/skus", models.RoleUser, `{"palletId":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid request body", rsp.Error)
	})
}

func TestListScans(t *testing.T) {
	t.Run("should pass status and dates through", func(t *testing.T) {
		ts := newTestServer()
		from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		ts.svc.On("ListScans", mock.Anything, "finished", &from, (*time.Time)(nil)).
			Return([]models.Scan{{ID: 1}}, nil)

		rec, rsp := ts.do(t, http.MethodGet, "/v1/scans?status=finished&from=2026-10-01", models.RoleUser, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, rsp.Data, 1)
	})

	t.Run("should reject a malformed date", func(t *testing.T) {
		ts := newTestServer()
		rec, _ := ts.do(t, http.MethodGet, "/v1/scans?from=yesterday", models.RoleUser, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ts.svc.AssertNotCalled(t, "ListScans", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestScanRoutes(t *testing.T) {
	ts := newTestServer()
	finishedAt := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	ts.svc.On("FinishScan", mock.Anything, int64(4)).Return(&models.Scan{ID: 4, Finished: true, FinishedAt: &finishedAt}, nil)
	ts.svc.On("ReopenScan", mock.Anything, int64(4)).Return(&models.Scan{ID: 4}, nil)
	ts.svc.On("GetScanSummary", mock.Anything, int64(4)).Return(&models.ScanResults{ScanID: 4, PalletCount: 2, TotalPieces: 30}, nil)
	ts.svc.On("DeleteScan", mock.Anything, int64(4)).Return(nil)

	rec, _ := ts.do(t, http.MethodPut, "/v1/scans/4/finish", models.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodPut, "/v1/scans/4/continue", models.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, rsp := ts.do(t, http.MethodGet, "/v1/scans/4/results", models.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(30), rsp.Data.(map[string]interface{})["totalPieces"])

	rec, _ = ts.do(t, http.MethodDelete, "/v1/scans/4", models.RoleAdministrator, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/v1/scans/abc", models.RoleUser, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.svc.AssertExpectations(t)
}

func TestPalletRoutes(t *testing.T) {
	ts := newTestServer()
	number := "P000001"
	ts.svc.On("CreatePallet", mock.Anything, int64(4), (*string)(nil)).Return(&models.Pallet{ID: 9, ScanID: 4, PalletNumber: &number}, nil)
	ts.svc.On("RenamePallet", mock.Anything, int64(9), "DOCK-1").Return(&models.Pallet{ID: 9, ScanID: 4}, nil)
	ts.svc.On("ListSkuLines", mock.Anything, int64(9)).Return([]models.SkuLine{}, nil)
	ts.svc.On("DeletePallet", mock.Anything, int64(9)).Return(scanning.NotFound("pallet", 9))

	rec, rsp := ts.do(t, http.MethodPost, "/v1/pallets", models.RoleUser, `{"scanId":4}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "P000001", rsp.Data.(map[string]interface{})["palletNumber"])

	rec, _ = ts.do(t, http.MethodPut, "/v1/pallets/9", models.RoleUser, `{"palletNumber":"DOCK-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/v1/pallets/9/skus", models.RoleUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodDelete, "/v1/pallets/9", models.RoleUser, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.svc.AssertExpectations(t)
}
