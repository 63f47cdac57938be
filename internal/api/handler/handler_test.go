package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	pkgerrors "capstone-hub/backend/pkg/errors"
	"capstone-hub/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerResult   *dto.RegisterResponse
	registerErr      error
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	logoutErr        error
	getCurrentResult *dto.UserResponse
	getCurrentErr    error
	changePassErr    error
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string, _ time.Time) error {
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── Mock TopicService ──

type mockTopicService struct {
	createResult     *dto.TopicResponse
	createErr        error
	getResult        *dto.TopicResponse
	getErr           error
	listResult       []*dto.TopicResponse
	listTotal        int64
	listErr          error
	updateResult     *dto.TopicResponse
	updateErr        error
	deleteErr        error
	setStatusResult  *dto.TopicResponse
	setStatusErr     error
	assignResult     *dto.TopicResponse
	assignErr        error
	autoAssignResult *dto.AutoAssignResponse
	autoAssignErr    error
	resetResult      *dto.ResetCountersResponse
	resetErr         error
}

func (m *mockTopicService) CreateTopic(_ context.Context, _, _ string, _ *dto.CreateTopicRequest) (*dto.TopicResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockTopicService) GetTopic(_ context.Context, _ string) (*dto.TopicResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockTopicService) ListTopics(_ context.Context, _ *dto.TopicListRequest) ([]*dto.TopicResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockTopicService) UpdateTopic(_ context.Context, _, _, _ string, _ *dto.UpdateTopicRequest) (*dto.TopicResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockTopicService) DeleteTopic(_ context.Context, _, _, _ string) error {
	return m.deleteErr
}
func (m *mockTopicService) SetTopicStatus(_ context.Context, _, _ string, _ *dto.SetTopicStatusRequest) (*dto.TopicResponse, error) {
	return m.setStatusResult, m.setStatusErr
}
func (m *mockTopicService) AssignReviewer(_ context.Context, _, _ string, _ *dto.AssignReviewerRequest) (*dto.TopicResponse, error) {
	return m.assignResult, m.assignErr
}
func (m *mockTopicService) AutoAssignReviewers(_ context.Context, _ string) (*dto.AutoAssignResponse, error) {
	return m.autoAssignResult, m.autoAssignErr
}
func (m *mockTopicService) ResetCounters(_ context.Context) (*dto.ResetCountersResponse, error) {
	return m.resetResult, m.resetErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportGrades(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("token_jti", "test-jti")
	c.Set("token_expires_at", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "student@example.edu",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "student@example.edu",
		Password: "wrong-pass",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10101 {
		t.Errorf("expected error code 10101, got %d", resp.Code)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrEmailTaken})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "张三",
		Email:    "taken@example.edu",
		Password: "Test12345",
		Code:     "2022010101",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_RefreshToken_Success(t *testing.T) {
	mock := &mockAuthService{
		refreshResult: &dto.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(dto.RefreshRequest{
		RefreshToken: "old-refresh",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(map[string]string{}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Me_Success(t *testing.T) {
	mock := &mockAuthService{
		getCurrentResult: &dto.UserResponse{
			ID:   "test-user-id",
			Name: "Test User",
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", func(c *gin.Context) {
		setAuth(c)
		h.Me(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.Me)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/auth/password", jsonBody(dto.ChangePasswordRequest{
		OldPassword: "Old12345",
		NewPassword: "New12345",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/auth/password", func(c *gin.Context) {
		setAuth(c)
		h.ChangePassword(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_ChangePassword_OldWrong(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{changePassErr: service.ErrOldPasswordWrong})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/auth/password", jsonBody(dto.ChangePasswordRequest{
		OldPassword: "Wrong123",
		NewPassword: "New12345",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/auth/password", func(c *gin.Context) {
		setAuth(c)
		h.ChangePassword(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10104 {
		t.Errorf("expected error code 10104, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_WithoutTokenContext(t *testing.T) {
	// 无 jti 上下文时直接返回成功，不调用服务
	h := NewAuthHandler(&mockAuthService{logoutErr: errors.New("should not be called")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_Logout_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		setAuth(c)
		h.Logout(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TopicHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTopicHandler_CreateTopic_Success(t *testing.T) {
	mock := &mockTopicService{
		createResult: &dto.TopicResponse{
			ID:     "topic-1",
			Title:  "基于知识图谱的智能问答系统",
			Status: "pending",
		},
	}
	h := NewTopicHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/topics", jsonBody(dto.CreateTopicRequest{
		Title:       "基于知识图谱的智能问答系统",
		Description: "构建领域知识图谱并实现问答",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/topics", func(c *gin.Context) {
		setAuth(c)
		h.CreateTopic(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestTopicHandler_CreateTopic_BadJSON(t *testing.T) {
	h := NewTopicHandler(&mockTopicService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/topics", bytes.NewReader([]byte("bad")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/topics", func(c *gin.Context) {
		setAuth(c)
		h.CreateTopic(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTopicHandler_GetTopic_NotFound(t *testing.T) {
	h := NewTopicHandler(&mockTopicService{getErr: service.ErrTopicNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/topics/missing", nil)

	r := gin.New()
	r.GET("/topics/:id", h.GetTopic)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 12001 {
		t.Errorf("expected error code 12001, got %d", resp.Code)
	}
}

func TestTopicHandler_SetTopicStatus_Success(t *testing.T) {
	mock := &mockTopicService{
		setStatusResult: &dto.TopicResponse{
			ID:     "topic-1",
			Status: "approved",
		},
	}
	h := NewTopicHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/topics/topic-1/status", jsonBody(dto.SetTopicStatusRequest{
		Status: "approved",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/topics/:id/status", func(c *gin.Context) {
		setAuth(c)
		h.SetTopicStatus(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestTopicHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrTopicNotFound, 404, 12001},
		{"Forbidden", service.ErrTopicForbidden, 403, 12002},
		{"InvalidTransition", service.ErrInvalidTopicTransition, 409, 12003},
		{"HasProjects", service.ErrTopicHasProjects, 409, 12005},
		{"NotApproved", service.ErrTopicNotApproved, 409, 12006},
		{"ReviewerIsSupervisor", service.ErrReviewerIsSupervisor, 400, 12007},
		{"ReviewerNotEligible", service.ErrReviewerNotEligible, 400, 12008},
		{"TeacherNotFound", service.ErrTeacherNotFound, 404, 11007},
		{"StaleWrite", pkgerrors.ErrStaleWrite, 409, 12010},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTopicHandler(&mockTopicService{getErr: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/topics/topic-1", nil)

			r := gin.New()
			r.GET("/topics/:id", h.GetTopic)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestTopicHandler_ListTopics_Pagination(t *testing.T) {
	mock := &mockTopicService{
		listResult: []*dto.TopicResponse{{ID: "topic-1"}, {ID: "topic-2"}},
		listTotal:  42,
	}
	h := NewTopicHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/topics?page=2&page_size=10", nil)

	r := gin.New()
	r.GET("/topics", h.ListTopics)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Code int `json:"code"`
		Data struct {
			Pagination response.Pagination `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v", err)
	}
	if resp.Data.Pagination.Total != 42 {
		t.Errorf("expected total 42, got %d", resp.Data.Pagination.Total)
	}
	if resp.Data.Pagination.Page != 2 || resp.Data.Pagination.PageSize != 10 {
		t.Errorf("unexpected pagination: %+v", resp.Data.Pagination)
	}
	if resp.Data.Pagination.TotalPages != 5 {
		t.Errorf("expected 5 pages, got %d", resp.Data.Pagination.TotalPages)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "成绩单_2026春.xlsx",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/grades?semester=2026春", nil)

	r := gin.New()
	r.GET("/export/grades", h.ExportGrades)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_MissingSemester(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/grades", nil)

	r := gin.New()
	r.GET("/export/grades", h.ExportGrades)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_NoProjects(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoProjects})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/grades?semester=2026春", nil)

	r := gin.New()
	r.GET("/export/grades", h.ExportGrades)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 17001 {
		t.Errorf("expected error code 17001, got %d", resp.Code)
	}
}
