package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

const (
	testStudentID = "6f1c2d1e-8a4b-4c3d-9e2f-1a2b3c4d5e6f"
	testCompanyID = "0b7e4c52-2f7a-4d8e-a1c9-5e3f2d1b0a99"
)

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	signInResult  *dto.TokenResponse
	signInErr     error
	signUpResult  *dto.UserResponse
	signUpErr     error
	refreshResult *dto.TokenResponse
	refreshErr    error
	signOutErr    error
	meResult      *dto.UserResponse
	meErr         error

	signedOutJTI string
	signUpSess   service.Session
}

func (m *mockAuthService) SignIn(_ context.Context, _ *dto.SignInRequest) (*dto.TokenResponse, error) {
	return m.signInResult, m.signInErr
}
func (m *mockAuthService) SignUp(_ context.Context, sess service.Session, _ *dto.SignUpRequest) (*dto.UserResponse, error) {
	m.signUpSess = sess
	return m.signUpResult, m.signUpErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) SignOut(_ context.Context, jti string, _ time.Time) error {
	m.signedOutJTI = jti
	return m.signOutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}
func (m *mockAuthService) CreateAdmin(_ context.Context, _, _, _ string) (*dto.UserResponse, error) {
	return nil, nil
}

// ── Mock CompanyService ──

type mockCompanyService struct {
	createResult *dto.CompanyResponse
	createErr    error
	listResult   []dto.CompanyResponse
	listTotal    int64
}

func (m *mockCompanyService) Create(_ context.Context, _ service.Session, _ *dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockCompanyService) GetByID(_ context.Context, _ service.Session, _ string) (*dto.CompanyResponse, error) {
	return nil, service.ErrCompanyNotFound
}
func (m *mockCompanyService) List(_ context.Context, _ service.Session, _ *dto.CompanyListRequest) ([]dto.CompanyResponse, int64, error) {
	return m.listResult, m.listTotal, nil
}
func (m *mockCompanyService) Update(_ context.Context, _ service.Session, _ string, _ *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	return nil, nil
}
func (m *mockCompanyService) Delete(_ context.Context, _ service.Session, _ string) error {
	return nil
}

// ── Mock LifecycleService ──

type mockLifecycleService struct {
	changeResult *dto.ChangePhaseResponse
	changeErr    error
	batchResult  *dto.BatchChangePhaseResponse
	batchErr     error
	deactivateFn func(reason string) (*dto.StudentResponse, error)
}

func (m *mockLifecycleService) ChangePhase(_ context.Context, _ service.Session, _ string, _ *dto.ChangePhaseRequest) (*dto.ChangePhaseResponse, error) {
	return m.changeResult, m.changeErr
}
func (m *mockLifecycleService) BatchChangePhase(_ context.Context, _ service.Session, _ *dto.BatchChangePhaseRequest) (*dto.BatchChangePhaseResponse, error) {
	return m.batchResult, m.batchErr
}
func (m *mockLifecycleService) Deactivate(_ context.Context, _ service.Session, _ string, reason string) (*dto.StudentResponse, error) {
	return m.deactivateFn(reason)
}
func (m *mockLifecycleService) Reactivate(_ context.Context, _ service.Session, _ string) (*dto.StudentResponse, error) {
	return nil, service.ErrStudentAlreadyActive
}
func (m *mockLifecycleService) History(_ context.Context, _ service.Session, _ string) ([]dto.PhaseHistoryResponse, error) {
	return nil, nil
}

// ── Mock AssignmentService ──

type mockAssignmentService struct {
	assignResult *dto.AssignmentResponse
	assignErr    error
	checks       []service.NumberingCheck
	batchResult  *dto.BatchAssignResponse
	batchErr     error
	releaseErr   error
}

func (m *mockAssignmentService) Assign(_ context.Context, _ service.Session, _ string, _ *dto.AssignFrameRequest) (*dto.AssignmentResponse, error) {
	return m.assignResult, m.assignErr
}
func (m *mockAssignmentService) ValidateNumberings(_ context.Context, _ []string) ([]service.NumberingCheck, error) {
	return m.checks, nil
}
func (m *mockAssignmentService) BatchAssign(_ context.Context, _ service.Session, _ *dto.BatchAssignRequest) (*dto.BatchAssignResponse, error) {
	return m.batchResult, m.batchErr
}
func (m *mockAssignmentService) PlanAutoAssign(_ context.Context, _ *dto.AutoAssignRequest) (*dto.AutoAssignResponse, error) {
	return &dto.AutoAssignResponse{}, nil
}
func (m *mockAssignmentService) Release(_ context.Context, _ service.Session, _, _ string) (*dto.FrameReleaseResponse, error) {
	return &dto.FrameReleaseResponse{}, m.releaseErr
}
func (m *mockAssignmentService) ReleaseCurrentForStudent(_ context.Context, _ service.Session, _, _ string) (*dto.FrameReleaseResponse, error) {
	return nil, nil
}
func (m *mockAssignmentService) CurrentForStudent(_ context.Context, _ service.Session, _ string) (*dto.FrameResponse, error) {
	return nil, nil
}
func (m *mockAssignmentService) StudentFrameHistory(_ context.Context, _ service.Session, _ string) ([]dto.FrameHistoryResponse, error) {
	return nil, nil
}

// ── Mock FrameService ──

type mockFrameService struct {
	parsed       []service.FrameImportRow
	parseErr     error
	importResult *dto.FrameImportResponse
	importedRows []service.FrameImportRow
}

func (m *mockFrameService) Create(_ context.Context, _ service.Session, _ *dto.CreateFrameRequest) (*dto.FrameResponse, error) {
	return nil, nil
}
func (m *mockFrameService) GetByID(_ context.Context, _ string) (*dto.FrameResponse, error) {
	return nil, service.ErrFrameNotFound
}
func (m *mockFrameService) List(_ context.Context, _ *dto.FrameListRequest) ([]dto.FrameResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockFrameService) Update(_ context.Context, _ service.Session, _ string, _ *dto.UpdateFrameRequest) (*dto.FrameResponse, error) {
	return nil, nil
}
func (m *mockFrameService) Delete(_ context.Context, _ service.Session, _ string) error {
	return service.ErrFrameInUse
}
func (m *mockFrameService) History(_ context.Context, _ string) ([]dto.FrameHistoryResponse, error) {
	return nil, nil
}
func (m *mockFrameService) CreateSize(_ context.Context, _ service.Session, _ *dto.CreateFrameSizeRequest) (*dto.FrameSizeResponse, error) {
	return nil, nil
}
func (m *mockFrameService) ListSizes(_ context.Context) ([]dto.FrameSizeResponse, error) {
	return nil, nil
}
func (m *mockFrameService) UpdateSize(_ context.Context, _ service.Session, _ string, _ *dto.UpdateFrameSizeRequest) (*dto.FrameSizeResponse, error) {
	return nil, nil
}
func (m *mockFrameService) DeleteSize(_ context.Context, _ service.Session, _ string) error {
	return nil
}
func (m *mockFrameService) ParseImportFile(reader io.Reader) ([]service.FrameImportRow, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return nil, err
	}
	return m.parsed, m.parseErr
}
func (m *mockFrameService) Import(_ context.Context, _ service.Session, rows []service.FrameImportRow) (*dto.FrameImportResponse, error) {
	m.importedRows = rows
	return m.importResult, nil
}
func (m *mockFrameService) ImportTemplate() (*bytes.Buffer, error) {
	return bytes.NewBufferString("xlsx"), nil
}

// ── Mock ReportService / ExportService ──

type mockReportService struct {
	dashboardErr error
}

func (m *mockReportService) Dashboard(_ context.Context, _ service.Session, _ *dto.ReportFilterRequest) (*dto.DashboardResponse, error) {
	return &dto.DashboardResponse{Total: 3}, m.dashboardErr
}
func (m *mockReportService) InventorySummary(_ context.Context) (*dto.InventorySummaryResponse, error) {
	return &dto.InventorySummaryResponse{}, nil
}

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportStudents(_ context.Context, _ service.Session, _ *dto.ReportFilterRequest) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set(CtxUserID, "test-user-id")
	c.Set(CtxRole, model.RoleGestor)
	c.Set(CtxCompanyID, testCompanyID)
	c.Set(CtxTokenID, "test-jti")
	c.Set(CtxTokenExp, time.Now().Add(15*time.Minute))
}

func withAuth(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c)
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// serve runs one request through a fresh engine holding a single route
func serve(method, path, route string, h gin.HandlerFunc, body io.Reader) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, h)

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type rawResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) rawResponse {
	t.Helper()
	var resp rawResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// Session extraction
// ═══════════════════════════════════════════════════════════

func TestMustGetSession(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	setAuth(c)

	sess, ok := MustGetSession(c)
	if !ok {
		t.Fatal("expected a session")
	}
	want := service.Session{UserID: "test-user-id", Role: model.RoleGestor, CompanyID: testCompanyID}
	if sess != want {
		t.Errorf("session = %+v, want %+v", sess, want)
	}
}

func TestMustGetSession_Missing(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	if _, ok := MustGetSession(c); ok {
		t.Fatal("expected no session")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_SignIn_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		signInResult: &dto.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
	})

	w := serve("POST", "/auth/sign-in", "/auth/sign-in", h.SignIn, jsonBody(dto.SignInRequest{
		Email:    "ana@example.com",
		Password: "secret123",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data dto.TokenResponse
	if err := json.Unmarshal(parseResponse(t, w).Data, &data); err != nil {
		t.Fatalf("bad data: %v", err)
	}
	if data.AccessToken != "access" {
		t.Errorf("expected access token, got %q", data.AccessToken)
	}
}

func TestAuthHandler_SignIn_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/sign-in", "/auth/sign-in", h.SignIn, strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 10001 {
		t.Errorf("expected code 10001, got %d", resp.Code)
	}
}

func TestAuthHandler_SignIn_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{signInErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/sign-in", "/auth/sign-in", h.SignIn, jsonBody(dto.SignInRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 11001 {
		t.Errorf("expected code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_SignUp_RequiresSession(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/sign-up", "/auth/sign-up", h.SignUp, jsonBody(dto.SignUpRequest{}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_SignUp_ForbiddenRole(t *testing.T) {
	mock := &mockAuthService{signUpErr: service.ErrForbiddenRole}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/sign-up", "/auth/sign-up", withAuth(h.SignUp), jsonBody(dto.SignUpRequest{
		Email:    "new@example.com",
		Password: "longenough",
		FullName: "New User",
		Role:     model.RoleOperador,
	}))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if mock.signUpSess.CompanyID != testCompanyID {
		t.Errorf("session not passed through: %+v", mock.signUpSess)
	}
}

func TestAuthHandler_SignOut_RevokesJTI(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/sign-out", "/auth/sign-out", withAuth(h.SignOut), nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.signedOutJTI != "test-jti" {
		t.Errorf("expected jti test-jti, got %q", mock.signedOutJTI)
	}
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidRefreshToken})

	w := serve("POST", "/auth/refresh", "/auth/refresh", h.Refresh, jsonBody(dto.RefreshTokenRequest{RefreshToken: "old"}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 11004 {
		t.Errorf("expected code 11004, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// CompanyHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCompanyHandler_Create_InvalidTaxID(t *testing.T) {
	h := NewCompanyHandler(&mockCompanyService{})

	w := serve("POST", "/companies", "/companies", withAuth(h.CreateCompany), jsonBody(dto.CreateCompanyRequest{
		LegalName: "Ótica Norte",
		TaxID:     "11.222.333/0001-00",
	}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 from the cnpj tag, got %d", w.Code)
	}
}

func TestCompanyHandler_Create_Success(t *testing.T) {
	h := NewCompanyHandler(&mockCompanyService{createResult: &dto.CompanyResponse{ID: testCompanyID, TaxID: "11222333000181"}})

	w := serve("POST", "/companies", "/companies", withAuth(h.CreateCompany), jsonBody(dto.CreateCompanyRequest{
		LegalName: "Ótica Norte",
		TaxID:     "11.222.333/0001-81",
	}))

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestCompanyHandler_Create_Conflict(t *testing.T) {
	h := NewCompanyHandler(&mockCompanyService{createErr: service.ErrTaxIDExists})

	w := serve("POST", "/companies", "/companies", withAuth(h.CreateCompany), jsonBody(dto.CreateCompanyRequest{
		LegalName: "Ótica Norte",
		TaxID:     "11222333000181",
	}))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestCompanyHandler_List_Paginates(t *testing.T) {
	h := NewCompanyHandler(&mockCompanyService{
		listResult: []dto.CompanyResponse{{ID: "a"}, {ID: "b"}},
		listTotal:  5,
	})

	w := serve("GET", "/companies?page=2&page_size=2", "/companies", withAuth(h.ListCompanies), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var page response.PageData
	if err := json.Unmarshal(parseResponse(t, w).Data, &page); err != nil {
		t.Fatalf("bad page: %v", err)
	}
	if page.Pagination.Page != 2 || page.Pagination.TotalPages != 3 || page.Pagination.Total != 5 {
		t.Errorf("unexpected pagination %+v", page.Pagination)
	}
}

func TestCompanyHandler_Get_NotFound(t *testing.T) {
	h := NewCompanyHandler(&mockCompanyService{})

	w := serve("GET", "/companies/x", "/companies/:id", withAuth(h.GetCompany), nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 12001 {
		t.Errorf("expected code 12001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StudentHandler Tests
// ═══════════════════════════════════════════════════════════

func newStudentHandler(lc *mockLifecycleService) *StudentHandler {
	return NewStudentHandler(nil, lc, &mockAssignmentService{})
}

func TestStudentHandler_ChangePhase_InvalidPhaseTag(t *testing.T) {
	h := newStudentHandler(&mockLifecycleService{})

	w := serve("POST", "/students/x/phase", "/students/:id/phase", withAuth(h.ChangePhase),
		jsonBody(map[string]string{"phase": "shipping"}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestStudentHandler_ChangePhase_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"inactive", service.ErrStudentInactive, http.StatusConflict, 17002},
		{"forbidden", service.ErrForbiddenCompany, http.StatusForbidden, 10003},
		{"not found", service.ErrStudentNotFound, http.StatusNotFound, 17001},
		{"validation", pkgerrors.NewValidation(pkgerrors.KindInvalidField, "interruption reason is required"), http.StatusUnprocessableEntity, 10001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newStudentHandler(&mockLifecycleService{changeErr: tt.err})

			w := serve("POST", "/students/x/phase", "/students/:id/phase", withAuth(h.ChangePhase),
				jsonBody(dto.ChangePhaseRequest{Phase: string(model.PhaseConsultation)}))

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestStudentHandler_ChangePhase_ReleaseFailedAfterCommit(t *testing.T) {
	h := newStudentHandler(&mockLifecycleService{
		changeResult: &dto.ChangePhaseResponse{Student: dto.StudentResponse{ID: "s1", Phase: string(model.PhaseScreening)}},
		changeErr:    service.ErrFrameNotInUse,
	})

	w := serve("POST", "/students/s1/phase", "/students/:id/phase", withAuth(h.ChangePhase),
		jsonBody(dto.ChangePhaseRequest{Phase: string(model.PhaseScreening), ReleaseFrame: true}))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var details dto.ChangePhaseResponse
	if err := json.Unmarshal(parseResponse(t, w).Details, &details); err != nil {
		t.Fatalf("bad details: %v", err)
	}
	if details.Student.Phase != string(model.PhaseScreening) {
		t.Errorf("details should carry the committed student, got %+v", details.Student)
	}
}

func TestStudentHandler_BatchChangePhase_Partial(t *testing.T) {
	h := newStudentHandler(&mockLifecycleService{
		batchResult: &dto.BatchChangePhaseResponse{Processed: []string{testStudentID}, FailedID: testCompanyID},
		batchErr:    service.ErrStudentInactive,
	})

	w := serve("POST", "/students/phase/batch", "/students/phase/batch", withAuth(h.BatchChangePhase),
		jsonBody(dto.BatchChangePhaseRequest{
			StudentIDs:         []string{testStudentID, testCompanyID},
			ChangePhaseRequest: dto.ChangePhaseRequest{Phase: string(model.PhaseProduction)},
		}))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var details dto.BatchChangePhaseResponse
	if err := json.Unmarshal(parseResponse(t, w).Details, &details); err != nil {
		t.Fatalf("bad details: %v", err)
	}
	if len(details.Processed) != 1 || details.FailedID != testCompanyID {
		t.Errorf("unexpected details %+v", details)
	}
}

func TestStudentHandler_Deactivate_EmptyBody(t *testing.T) {
	var gotReason = "unset"
	h := newStudentHandler(&mockLifecycleService{
		deactivateFn: func(reason string) (*dto.StudentResponse, error) {
			gotReason = reason
			return &dto.StudentResponse{ID: "s1"}, nil
		},
	})

	w := serve("POST", "/students/s1/deactivate", "/students/:id/deactivate", withAuth(h.Deactivate), nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if gotReason != "" {
		t.Errorf("expected empty reason, got %q", gotReason)
	}
}

func TestStudentHandler_Reactivate_AlreadyActive(t *testing.T) {
	h := newStudentHandler(&mockLifecycleService{})

	w := serve("POST", "/students/s1/reactivate", "/students/:id/reactivate", withAuth(h.Reactivate), nil)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 17003 {
		t.Errorf("expected code 17003, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// FrameHandler Tests
// ═══════════════════════════════════════════════════════════

func TestFrameHandler_Assign_NotAvailable(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{assignErr: service.ErrFrameNotAvailable})

	w := serve("POST", "/frames/f1/assign", "/frames/:id/assign", withAuth(h.Assign),
		jsonBody(dto.AssignFrameRequest{StudentID: testStudentID}))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 18009 {
		t.Errorf("expected code 18009, got %d", resp.Code)
	}
}

func TestFrameHandler_Release_WithoutBody(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{releaseErr: service.ErrFrameNotInUse})

	w := serve("POST", "/frames/f1/release", "/frames/:id/release", withAuth(h.Release), nil)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestFrameHandler_BatchAssign_ValidationListsItems(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{
		batchErr: pkgerrors.NewValidation(pkgerrors.KindDuplicateNumbering, "numberings used for more than one student", "0001"),
	})

	w := serve("POST", "/frames/assign/batch", "/frames/assign/batch", withAuth(h.BatchAssign),
		jsonBody(dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
			{StudentID: testStudentID, Numbering: "0001"},
			{StudentID: testCompanyID, Numbering: "0001"},
		}}))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var details response.ValidationDetails
	if err := json.Unmarshal(parseResponse(t, w).Details, &details); err != nil {
		t.Fatalf("bad details: %v", err)
	}
	if details.Kind != pkgerrors.KindDuplicateNumbering || len(details.Items) != 1 || details.Items[0] != "0001" {
		t.Errorf("unexpected details %+v", details)
	}
}

func TestFrameHandler_BatchAssign_PartialCommit(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{
		batchResult: &dto.BatchAssignResponse{Assigned: []dto.AssignmentResponse{{Numbering: "0001"}}},
		batchErr:    service.ErrFrameNotAvailable,
	})

	w := serve("POST", "/frames/assign/batch", "/frames/assign/batch", withAuth(h.BatchAssign),
		jsonBody(dto.BatchAssignRequest{Items: []dto.BatchAssignItem{
			{StudentID: testStudentID, Numbering: "0001"},
			{StudentID: testCompanyID, Numbering: "0002"},
		}}))

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var details dto.BatchAssignResponse
	if err := json.Unmarshal(parseResponse(t, w).Details, &details); err != nil {
		t.Fatalf("bad details: %v", err)
	}
	if len(details.Assigned) != 1 {
		t.Errorf("expected the committed item in details, got %+v", details)
	}
}

func TestFrameHandler_ValidateNumberings(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{
		checks: []service.NumberingCheck{
			service.ValidNumbering{Code: "0001", Frame: model.Frame{FrameID: "f1", Numbering: "0001", Status: model.FrameAvailable}},
			service.InvalidNumbering{Code: "9999", Reason: "no frame with this numbering"},
		},
	})

	w := serve("POST", "/frames/numberings/validate", "/frames/numberings/validate", withAuth(h.ValidateNumberings),
		jsonBody(dto.ValidateNumberingsRequest{Numberings: []string{"0001", "9999"}}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var data struct {
		List []dto.NumberingValidationResponse `json:"list"`
	}
	if err := json.Unmarshal(parseResponse(t, w).Data, &data); err != nil {
		t.Fatalf("bad data: %v", err)
	}
	if len(data.List) != 2 {
		t.Fatalf("expected 2 results, got %d", len(data.List))
	}
	if !data.List[0].Valid || data.List[0].Frame == nil || data.List[0].Frame.ID != "f1" {
		t.Errorf("unexpected valid result %+v", data.List[0])
	}
	if data.List[1].Valid || data.List[1].Reason == "" {
		t.Errorf("unexpected invalid result %+v", data.List[1])
	}
}

func TestFrameHandler_Delete_InUse(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{})

	w := serve("DELETE", "/frames/f1", "/frames/:id", withAuth(h.DeleteFrame), nil)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func multipartFile(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()
	return body, mw.FormDataContentType()
}

func serveUpload(h gin.HandlerFunc, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/frames/import", withAuth(h))
	req := httptest.NewRequest("POST", "/frames/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestFrameHandler_Import_MissingFile(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{})

	body, ct := multipartFile(t, "", "", nil)
	w := serveUpload(h.Import, body, ct)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFrameHandler_Import_RowErrors(t *testing.T) {
	frames := &mockFrameService{
		parsed: []service.FrameImportRow{{Row: 2, Numbering: "0001"}},
		importResult: &dto.FrameImportResponse{
			Errors: []dto.FrameImportRowError{{Row: 2, Numbering: "0001", Reason: "numbering already registered"}},
		},
	}
	h := NewFrameHandler(frames, &mockAssignmentService{})

	body, ct := multipartFile(t, "file", "frames.xlsx", []byte("xlsx"))
	w := serveUpload(h.Import, body, ct)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	if len(frames.importedRows) != 1 {
		t.Errorf("parsed rows should reach Import, got %d", len(frames.importedRows))
	}
}

func TestFrameHandler_Import_BadHeader(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{parseErr: service.ErrImportBadHeader}, &mockAssignmentService{})

	body, ct := multipartFile(t, "file", "frames.xlsx", []byte("xlsx"))
	w := serveUpload(h.Import, body, ct)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 18008 {
		t.Errorf("expected code 18008, got %d", resp.Code)
	}
}

func TestFrameHandler_ImportTemplate(t *testing.T) {
	h := NewFrameHandler(&mockFrameService{}, &mockAssignmentService{})

	w := serve("GET", "/frames/import/template", "/frames/import/template", h.ImportTemplate, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "frames_template.xlsx") {
		t.Errorf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
	}
}

// ═══════════════════════════════════════════════════════════
// Report / Export Tests
// ═══════════════════════════════════════════════════════════

func TestReportHandler_Dashboard(t *testing.T) {
	h := NewReportHandler(&mockReportService{})

	w := serve("GET", "/reports/dashboard?phases=screening&phases=delivered", "/reports/dashboard", withAuth(h.Dashboard), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestReportHandler_Dashboard_BadPhase(t *testing.T) {
	h := NewReportHandler(&mockReportService{})

	w := serve("GET", "/reports/dashboard?phases=shipping", "/reports/dashboard", withAuth(h.Dashboard), nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestReportHandler_Dashboard_Forbidden(t *testing.T) {
	h := NewReportHandler(&mockReportService{dashboardErr: service.ErrForbiddenCompany})

	w := serve("GET", "/reports/dashboard", "/reports/dashboard", withAuth(h.Dashboard), nil)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestExportHandler_ExportStudents_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		buf:      bytes.NewBufferString("fake-xlsx-content"),
		filename: "students_20260601.xlsx",
	})

	w := serve("GET", "/export/students", "/export/students", withAuth(h.ExportStudents), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "students_20260601.xlsx") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if w.Body.String() != "fake-xlsx-content" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestExportHandler_ExportStudents_GenerateFail(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportGenerateFail})

	w := serve("GET", "/export/students", "/export/students", withAuth(h.ExportStudents), nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
