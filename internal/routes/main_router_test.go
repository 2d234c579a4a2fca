package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/entities"
	"school-system/internal/repositories"
	"school-system/internal/testutil"
	"school-system/pkg/config"
	"school-system/pkg/eventbus"
	"school-system/pkg/filestorage"
	"school-system/pkg/mailer"
	"school-system/pkg/service"
	"school-system/pkg/utils"
	"school-system/pkg/validation"
)

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

type SchoolAPITestSuite struct {
	suite.Suite
	Echo        *echo.Echo
	Store       *testutil.Store
	AdminID     uint64
	ViewerID    uint64
	AdminToken  string
	ViewerToken string
}

func (s *SchoolAPITestSuite) SetupTest() {
	logger := zap.NewNop()
	cfg := &config.Config{
		Settings:     config.SettingsConfig{CacheTTL: time.Hour},
		Translations: config.TranslationsConfig{DefaultLanguage: "en"},
		Authz:        config.AuthzConfig{PermissionCacheTTL: time.Minute},
	}

	store := testutil.NewStore()
	store.RolePerms[authz.RoleAdmin] = authz.AllPermissions
	store.RolePerms[authz.RoleViewer] = authz.RolePermissions[authz.RoleViewer]
	hash, err := utils.HashPassword("password123")
	s.Require().NoError(err)
	admin := store.AddUser("Admin", "admin@school.edu", hash, authz.RoleAdmin)
	viewer := store.AddUser("Viewer", "viewer@school.edu", hash, authz.RoleViewer)

	e := echo.New()
	e.Validator = validation.New()
	jwtSvc := service.NewJWTService("route-test-secret", time.Hour)

	InitRouter(e, Dependencies{
		Config: cfg,
		Repos: Repositories{
			School:       testutil.SchoolRepo{S: store},
			Branch:       testutil.BranchRepo{S: store},
			Department:   testutil.DepartmentRepo{S: store},
			User:         testutil.UserRepo{S: store},
			Permission:   testutil.PermissionRepo{S: store},
			Notification: testutil.NotificationRepo{S: store},
			Setting:      testutil.SettingRepo{S: store},
			Translation:  repositories.NewTranslationRepository(filestorage.NewLocalFileStorage(s.T().TempDir()), logger),
			Cache:        repositories.NewMemoryCacheRepository(),
			Tx:           testutil.TxManager{},
		},
		Bus:     eventbus.New(logger),
		Mailer:  mailer.New(config.MailConfig{}, logger),
		JWT:     jwtSvc,
		Loggers: NewLoggers(logger),
	})

	s.Echo = e
	s.Store = store
	s.AdminID, s.ViewerID = admin.ID, viewer.ID
	s.AdminToken, err = jwtSvc.GenerateAccessToken(admin.ID)
	s.Require().NoError(err)
	s.ViewerToken, err = jwtSvc.GenerateAccessToken(viewer.ID)
	s.Require().NoError(err)
}

func (s *SchoolAPITestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get(echo.HeaderContentType) != xlsxContentType {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *SchoolAPITestSuite) createSchool(name, email, code string) uint64 {
	rec, env := s.do(http.MethodPost, "/api/schools", s.AdminToken, map[string]interface{}{
		"name": name, "code": code, "address": "1 Main St", "email": email, "phone_number": "555-1000",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	s.Contains(string(env.Body), `"branches":[]`)
	var school entities.School
	s.Require().NoError(json.Unmarshal(env.Body, &school))
	return school.ID
}

func (s *SchoolAPITestSuite) TestLoginAndMe() {
	rec, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@school.edu", "password": "password123"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	s.Require().NoError(json.Unmarshal(env.Body, &auth))
	s.NotEmpty(auth.AccessToken)

	rec, _ = s.do(http.MethodGet, "/api/auth/me", auth.AccessToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@school.edu", "password": "wrong-password"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *SchoolAPITestSuite) TestRequiresToken() {
	rec, env := s.do(http.MethodGet, "/api/schools", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.False(env.Status)

	rec, _ = s.do(http.MethodGet, "/api/schools", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *SchoolAPITestSuite) TestSchoolLifecycle() {
	id := s.createSchool("Lincoln High", "office@lincoln.edu", "LHS")

	rec, env := s.do(http.MethodGet, "/api/schools?search=lincoln", s.AdminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list struct {
		List       []entities.School `json:"list"`
		Pagination struct {
			Total uint64 `json:"total"`
		} `json:"pagination"`
		Filters map[string]string `json:"filters"`
	}
	s.Require().NoError(json.Unmarshal(env.Body, &list))
	s.Len(list.List, 1)
	s.Equal(uint64(1), list.Pagination.Total)
	s.Equal("lincoln", list.Filters["search"])

	path := "/api/schools/" + itoa(id)
	rec, _ = s.do(http.MethodDelete, path, s.AdminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodGet, path, s.AdminToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodPost, path+"/restore", s.AdminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	rec, _ = s.do(http.MethodDelete, path+"/force", s.AdminToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(s.Store.Schools)

	// уведомление на каждое из четырёх событий для обоих пользователей
	s.Len(s.Store.UserNotifications(s.AdminID), 4)
	s.Len(s.Store.UserNotifications(s.ViewerID), 4)
}

func (s *SchoolAPITestSuite) TestValidationReturnsAllFields() {
	rec, env := s.do(http.MethodPost, "/api/schools", s.AdminToken, map[string]string{"email": "bad"})
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	s.Require().NoError(json.Unmarshal(env.Body, &body))
	for _, field := range []string{"name", "address", "email", "phone_number"} {
		s.Contains(body.Errors, field)
	}
}

func (s *SchoolAPITestSuite) TestBlankFieldsAreNotStored() {
	rec, env := s.do(http.MethodPost, "/api/schools", s.AdminToken, map[string]string{
		"name": "   ", "address": "   ", "email": "b@lh.edu", "phone_number": "555-1000",
	})
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	s.Require().NoError(json.Unmarshal(env.Body, &body))
	s.Contains(body.Errors, "name")
	s.Contains(body.Errors, "address")
	s.Empty(s.Store.Schools)
}

func (s *SchoolAPITestSuite) TestViewerIsForbiddenToWrite() {
	rec, _ := s.do(http.MethodPost, "/api/schools", s.ViewerToken, map[string]string{"name": "X"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/schools", s.ViewerToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/settings", s.ViewerToken, nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *SchoolAPITestSuite) TestNestedBranchesAndDepartments() {
	schoolID := s.createSchool("Lincoln High", "office@lincoln.edu", "LHS")

	rec, env := s.do(http.MethodPost, "/api/schools/"+itoa(schoolID)+"/branches", s.AdminToken, map[string]interface{}{
		"school_id": 999, "name": "North", "address": "2 North Rd", "phone_number": "555-2000",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var branch entities.Branch
	s.Require().NoError(json.Unmarshal(env.Body, &branch))
	s.Equal(schoolID, branch.SchoolID, "school_id берётся из пути")

	rec, _ = s.do(http.MethodPost, "/api/branches/"+itoa(branch.ID)+"/departments", s.AdminToken, map[string]interface{}{
		"name": "Math", "code": "MATH",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = s.do(http.MethodGet, "/api/departments?school_id="+itoa(schoolID)+"&sort_by=branch_name&sort_order=asc", s.AdminToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/departments?branch_id=abc", s.AdminToken, nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *SchoolAPITestSuite) TestXLSXExport() {
	s.createSchool("Lincoln High", "office@lincoln.edu", "LHS")

	rec, _ := s.do(http.MethodGet, "/api/schools?format=xlsx", s.AdminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	s.Contains(rec.Header().Get(echo.HeaderContentDisposition), "schools_")
	s.True(bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx - это zip-архив")
}

func (s *SchoolAPITestSuite) TestSettingsAndTranslations() {
	s.Store.PutSetting("app_name", "School", entities.SettingTypeString, "general", true)

	rec, env := s.do(http.MethodGet, "/api/settings/public", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"app_name":"School"}`, string(env.Body))

	rec, _ = s.do(http.MethodPut, "/api/settings/max_login_attempts", s.AdminToken, map[string]string{"value": "7", "type": "integer"})
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/languages/translations?language=de", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/languages/translations", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code, "язык обязателен")

	rec, _ = s.do(http.MethodPost, "/api/languages/translations/add", s.ViewerToken, map[string]string{"language": "en", "key": "k", "value": "v"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/languages/translations/add", s.AdminToken, map[string]string{"language": "ps", "key": "hello", "value": "سلام"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodGet, "/api/languages/translations?language=ps", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"hello":"سلام"}`, string(env.Body))

	rec, _ = s.do(http.MethodDelete, "/api/languages/translations", s.AdminToken, map[string]string{"language": "ps", "key": "missing"})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *SchoolAPITestSuite) TestNotificationsScopedToUser() {
	s.createSchool("Lincoln High", "office@lincoln.edu", "LHS")

	rec, env := s.do(http.MethodGet, "/api/notifications", s.ViewerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list struct {
		Notifications []struct {
			ID    uint64 `json:"id"`
			Title string `json:"title"`
			Time  string `json:"time"`
		} `json:"notifications"`
		UnreadCount uint64 `json:"unread_count"`
	}
	s.Require().NoError(json.Unmarshal(env.Body, &list))
	s.Require().Len(list.Notifications, 1)
	s.Equal("New School Registered", list.Notifications[0].Title)
	s.Equal("Just now", list.Notifications[0].Time)
	s.Equal(uint64(1), list.UnreadCount)

	adminOwn := s.Store.UserNotifications(s.AdminID)[0].ID
	rec, _ = s.do(http.MethodPost, "/api/notifications/"+itoa(adminOwn)+"/read", s.ViewerToken, nil)
	s.Equal(http.StatusNotFound, rec.Code, "чужое уведомление")

	rec, _ = s.do(http.MethodPost, "/api/notifications/read-all", s.ViewerToken, nil)
	s.Equal(http.StatusOK, rec.Code)
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func TestSchoolAPITestSuite(t *testing.T) {
	suite.Run(t, new(SchoolAPITestSuite))
}
