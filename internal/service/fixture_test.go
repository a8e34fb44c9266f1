package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"refurbstock/internal/database/dbtest"
	"refurbstock/internal/logger"
	"refurbstock/internal/media"
	"refurbstock/internal/model"
	"refurbstock/internal/permission"
	"refurbstock/internal/repository"
	"refurbstock/internal/storage/storagetest"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPrivilegedRole = "Admin"

type fixture struct {
	db        *gorm.DB
	assets    *storagetest.Recorder
	tokens    *TokenManager
	userRepo  repository.UserRepository
	permRepo  repository.PermissionRepository
	products  repository.ProductRepository
	movements repository.MovementRepository

	roleSvc    RoleService
	permSvc    PermissionService
	userSvc    UserService
	authSvc    AuthService
	productSvc ProductService
	events     *eventRecorder
	adminRole  *model.Role
}

type eventRecorder struct {
	names []string
}

func (e *eventRecorder) Publish(event string, data interface{}) {
	e.names = append(e.names, event)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := logger.Nop()

	tx := repository.NewTransactionManager(db)
	roles := repository.NewRoleRepository(db)
	users := repository.NewUserRepository(db)
	perms := repository.NewPermissionRepository(db)
	products := repository.NewProductRepository(db)
	movements := repository.NewMovementRepository(db)
	activity := NewActivityService(repository.NewActivityRepository(db))
	assets := storagetest.NewRecorder()
	normalizer := media.NewNormalizer(200, 1<<20)
	tokens := NewTokenManager("test-secret", time.Hour)
	events := &eventRecorder{}

	auth, err := NewAuthService(users, perms, tokens, testPrivilegedRole, bcrypt.MinCost, log)
	require.NoError(t, err)

	f := &fixture{
		db:         db,
		assets:     assets,
		tokens:     tokens,
		userRepo:   users,
		permRepo:   perms,
		products:   products,
		movements:  movements,
		roleSvc:    NewRoleService(tx, roles, users, perms, activity, testPrivilegedRole, log),
		permSvc:    NewPermissionService(tx, roles, perms, activity, log),
		userSvc:    NewUserService(tx, users, roles, assets, normalizer, activity, bcrypt.MinCost, log),
		authSvc:    auth,
		productSvc: NewProductService(tx, products, movements, assets, normalizer, activity, events, log),
		events:     events,
	}

	f.adminRole, err = f.roleSvc.EnsurePrivilegedRole(context.Background())
	require.NoError(t, err)
	return f
}

// adminCtx carries a privileged caller.
func adminCtx() context.Context {
	return WithIdentity(context.Background(), &Identity{Username: "admin", RoleName: testPrivilegedRole, Privileged: true})
}

// callerWith carries a non-privileged caller holding exactly the given grants.
func callerWith(grants ...[2]string) context.Context {
	m := permission.All(false)
	for _, g := range grants {
		m[g[0]][g[1]] = true
	}
	return WithIdentity(context.Background(), &Identity{
		Username:              "tech",
		RoleName:              "Technician",
		Permissions:           m,
		PermissionsConfigured: true,
	})
}

func (f *fixture) createRole(t *testing.T, name string) *RoleResponse {
	t.Helper()
	r, err := f.roleSvc.CreateRole(adminCtx(), CreateRoleRequest{Name: name})
	require.NoError(t, err)
	return r
}

func (f *fixture) createUser(t *testing.T, username, password, roleID string) *UserResponse {
	t.Helper()
	u, err := f.userSvc.CreateUser(adminCtx(), CreateUserRequest{
		FirstName:  "Test",
		LastName:   "User",
		Username:   username,
		Contact:    "555-0100",
		EmployeeID: "EMP-" + username,
		Password:   password,
		RoleID:     roleID,
	})
	require.NoError(t, err)
	return u
}

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
