package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"refurbstock/internal/database/dbtest"
	"refurbstock/internal/logger"
	"refurbstock/internal/media"
	"refurbstock/internal/middleware"
	"refurbstock/internal/repository"
	"refurbstock/internal/service"
	"refurbstock/internal/storage/storagetest"
	"refurbstock/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router  *gin.Engine
	roles   service.RoleService
	perms   service.PermissionService
	users   service.UserService
	adminID string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	log := logger.Nop()

	tx := repository.NewTransactionManager(db)
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	activity := service.NewActivityService(repository.NewActivityRepository(db))
	assets := storagetest.NewRecorder()
	normalizer := media.NewNormalizer(200, 1<<20)

	auth, err := service.NewAuthService(userRepo, permRepo, service.NewTokenManager("secret", time.Hour), "Admin", bcrypt.MinCost, log)
	require.NoError(t, err)
	roles := service.NewRoleService(tx, roleRepo, userRepo, permRepo, activity, "Admin", log)
	perms := service.NewPermissionService(tx, roleRepo, permRepo, activity, log)
	users := service.NewUserService(tx, userRepo, roleRepo, assets, normalizer, activity, bcrypt.MinCost, log)
	products := service.NewProductService(tx, productRepo, movementRepo, assets, normalizer, activity, nil, log)

	admin, err := roles.EnsurePrivilegedRole(context.Background())
	require.NoError(t, err)

	gate := middleware.NewGate(auth, log)
	r := gin.New()
	api := r.Group("/api")
	NewAuthHandler(auth, gate).RegisterRoutes(api)
	NewRoleHandler(roles, gate).RegisterRoutes(api)
	NewPermissionHandler(perms, gate).RegisterRoutes(api)
	NewUserHandler(users, gate).RegisterRoutes(api)
	NewProductHandler(products, gate).RegisterRoutes(api)
	NewActivityHandler(activity, gate).RegisterRoutes(api)

	return &testServer{router: r, roles: roles, perms: perms, users: users, adminID: admin.ID.String()}
}

func (s *testServer) call(t *testing.T, method, path, token string, body interface{}) (int, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	status, resp := s.call(t, http.MethodPost, "/api/auth/login", "", service.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, status, resp.Error)
	data := resp.Data.(map[string]interface{})
	return data["token"].(string)
}

func (s *testServer) seedUser(t *testing.T, username, roleID string) {
	t.Helper()
	admin := service.WithIdentity(context.Background(), &service.Identity{Username: "seed", Privileged: true})
	_, err := s.users.CreateUser(admin, service.CreateUserRequest{
		FirstName: "F", LastName: "L", Username: username, Contact: "c",
		EmployeeID: "E-" + username, Password: "secret1", RoleID: roleID,
	})
	require.NoError(t, err)
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	role, err := s.roles.CreateRole(context.Background(), service.CreateRoleRequest{Name: "Intern"})
	require.NoError(t, err)
	s.seedUser(t, "intern", role.ID)

	status, resp := s.call(t, http.MethodPost, "/api/auth/login", "", service.LoginRequest{Username: "nobody", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, response.CodeInvalidCredentials, resp.Code)
	assert.Nil(t, resp.Data)

	status, resp = s.call(t, http.MethodPost, "/api/auth/login", "", service.LoginRequest{Username: "intern", Password: "secret1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, response.CodePermissionsNotConfigured, resp.Code)
	assert.Nil(t, resp.Data)

	status, resp = s.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "intern"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, response.CodeValidationFailed, resp.Code)
}

func TestTechnicianAccess(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	role, err := s.roles.CreateRole(ctx, service.CreateRoleRequest{Name: "Technician"})
	require.NoError(t, err)
	_, err = s.perms.SetMatrix(ctx, role.ID, map[string]interface{}{
		"product": map[string]interface{}{"list": true, "create": true},
		"checkIn": map[string]interface{}{"checkin": true},
	})
	require.NoError(t, err)
	s.seedUser(t, "tech", role.ID)
	token := s.login(t, "tech", "secret1")

	status, _ := s.call(t, http.MethodPost, "/api/products", token, map[string]string{"serial_number": "C02X1"})
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.call(t, http.MethodGet, "/api/products", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp := s.call(t, http.MethodDelete, "/api/products/C02X1", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, response.CodeForbidden, resp.Code)

	status, resp = s.call(t, http.MethodPatch, "/api/products/C02X1/status", token, map[string]string{"status": "checkedout"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, response.CodeForbidden, resp.Code)

	status, _ = s.call(t, http.MethodPatch, "/api/products/C02X1/status", token, map[string]string{"status": "checkin"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.call(t, http.MethodGet, "/api/permissions/"+role.ID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.call(t, http.MethodGet, "/api/permissions", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = s.call(t, http.MethodGet, "/api/activity-logs", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAdminManagesPermissions(t *testing.T) {
	s := newTestServer(t)
	s.seedUser(t, "root", s.adminID)
	token := s.login(t, "root", "secret1")

	status, resp := s.call(t, http.MethodPost, "/api/roles", token, service.CreateRoleRequest{Name: "Manager"})
	require.Equal(t, http.StatusCreated, status)
	roleID := resp.Data.(map[string]interface{})["id"].(string)

	status, resp = s.call(t, http.MethodGet, "/api/permissions/"+roleID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, resp.Data.(map[string]interface{})["configured"])

	status, _ = s.call(t, http.MethodPost, "/api/permissions/assign", token, map[string]interface{}{
		"role_id":     roleID,
		"permissions": map[string]interface{}{"user": map[string]bool{"list": true}},
	})
	require.Equal(t, http.StatusOK, status)

	status, resp = s.call(t, http.MethodPut, "/api/permissions/"+roleID+"/all", token, map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp.Data.(map[string]interface{})["configured"])

	status, resp = s.call(t, http.MethodDelete, "/api/roles/"+s.adminID, token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, response.CodeConflict, resp.Code)

	status, _ = s.call(t, http.MethodGet, "/api/activity-logs", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, resp = s.call(t, http.MethodGet, "/api/users/00000000-0000-0000-0000-000000000001", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, response.CodeNotFound, resp.Code)
}
