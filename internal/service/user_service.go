package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"refurbstock/internal/logger"
	"refurbstock/internal/media"
	"refurbstock/internal/model"
	"refurbstock/internal/repository"
	"refurbstock/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	Username       string `json:"username" binding:"required"`
	Contact        string `json:"contact" binding:"required"`
	EmployeeID     string `json:"employee_id" binding:"required"`
	Password       string `json:"password" binding:"required,min=6"`
	RoleID         string `json:"role_id" binding:"required"`
	ImageURL       string `json:"image_url"`
	ImageStorageID string `json:"image_storage_id"`
}

// UpdateUserRequest is partial: nil fields are left untouched.
type UpdateUserRequest struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Username       *string `json:"username"`
	Contact        *string `json:"contact"`
	EmployeeID     *string `json:"employee_id"`
	Password       *string `json:"password" binding:"omitempty,min=6"`
	RoleID         *string `json:"role_id"`
	ImageURL       *string `json:"image_url"`
	ImageStorageID *string `json:"image_storage_id"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Username       string    `json:"username"`
	EmployeeID     string    `json:"employee_id"`
	Contact        string    `json:"contact"`
	RoleID         uuid.UUID `json:"role_id"`
	Role           string    `json:"role"`
	ImageURL       string    `json:"image_url"`
	ImageStorageID string    `json:"image_storage_id"`
	CreatedAt      string    `json:"created_at"`
	UpdatedAt      string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int, search string) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
	UploadAvatar(ctx context.Context, id string, filename string, data io.Reader) (*UserResponse, error)
	// EnsureBootstrapAdmin creates the first user under the privileged role when no users exist.
	EnsureBootstrapAdmin(ctx context.Context, username, password string, roleID uuid.UUID) error
}

type userService struct {
	txManager  repository.TransactionManager
	users      repository.UserRepository
	roles      repository.RoleRepository
	assets     storage.AssetHost
	normalizer *media.Normalizer
	activity   ActivityService
	bcryptCost int
	log        *logger.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(
	txManager repository.TransactionManager,
	users repository.UserRepository,
	roles repository.RoleRepository,
	assets storage.AssetHost,
	normalizer *media.Normalizer,
	activity ActivityService,
	bcryptCost int,
	log *logger.Logger,
) UserService {
	return &userService{
		txManager:  txManager,
		users:      users,
		roles:      roles,
		assets:     assets,
		normalizer: normalizer,
		activity:   activity,
		bcryptCost: bcryptCost,
		log:        log.With("service", "UserService"),
	}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:             user.ID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Username:       user.Username,
		EmployeeID:     user.EmployeeID,
		Contact:        user.Contact,
		RoleID:         user.RoleID,
		Role:           user.Role.Name,
		ImageURL:       user.ImageURL,
		ImageStorageID: user.ImageStorageID,
		CreatedAt:      user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", validationf("%s is required", field)
	}
	return v, nil
}

func (s *userService) hash(password string) (string, error) {
	if len(password) < 6 {
		return "", validationf("password must be at least 6 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *userService) loadRole(ctx context.Context, raw string) (*model.Role, error) {
	roleID, err := parseID(raw, "role")
	if err != nil {
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationf("role %s does not exist", roleID)
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return role, nil
}

// guardPrivilegedRole keeps the privileged role, and the accounts holding it, in privileged hands.
func guardPrivilegedRole(ctx context.Context, role *model.Role) error {
	if role == nil || !role.IsSystem {
		return nil
	}
	return requirePrivileged(ctx)
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	return s.create(ctx, req, true)
}

func (s *userService) create(ctx context.Context, req CreateUserRequest, checkCaller bool) (*UserResponse, error) {
	user := &model.User{ImageURL: req.ImageURL, ImageStorageID: req.ImageStorageID}
	var err error
	for _, f := range []struct {
		name  string
		value string
		dst   *string
	}{
		{"first_name", req.FirstName, &user.FirstName},
		{"last_name", req.LastName, &user.LastName},
		{"username", req.Username, &user.Username},
		{"contact", req.Contact, &user.Contact},
		{"employee_id", req.EmployeeID, &user.EmployeeID},
	} {
		if *f.dst, err = required(f.name, f.value); err != nil {
			return nil, err
		}
	}

	if user.Password, err = s.hash(req.Password); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		role, err := s.loadRole(txCtx, req.RoleID)
		if err != nil {
			return err
		}
		if checkCaller {
			if err := guardPrivilegedRole(txCtx, role); err != nil {
				return err
			}
		}
		user.RoleID = role.ID
		user.Role = *role

		if err := s.users.Create(txCtx, user); err != nil {
			return mapRepoErr(err, "username or employee id")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionCreateUser,
			EntityType: model.EntityUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    map[string]string{"role": role.Name},
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("User created", "user_id", user.ID, "username", user.Username)
	return mapToResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int, search string) ([]UserResponse, int64, error) {
	users, total, err := s.users.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}

	var user *model.User
	var discarded string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err = s.users.GetByID(txCtx, userID)
		if err != nil {
			return mapRepoErr(err, "user")
		}
		if err := guardPrivilegedRole(txCtx, &user.Role); err != nil {
			return err
		}

		for _, f := range []struct {
			name  string
			value *string
			dst   *string
		}{
			{"first_name", req.FirstName, &user.FirstName},
			{"last_name", req.LastName, &user.LastName},
			{"username", req.Username, &user.Username},
			{"contact", req.Contact, &user.Contact},
			{"employee_id", req.EmployeeID, &user.EmployeeID},
		} {
			if f.value == nil {
				continue
			}
			v, err := required(f.name, *f.value)
			if err != nil {
				return err
			}
			*f.dst = v
		}

		if req.Password != nil && *req.Password != "" {
			hashed, err := s.hash(*req.Password)
			if err != nil {
				return err
			}
			user.Password = hashed
		}

		if req.RoleID != nil {
			role, err := s.loadRole(txCtx, *req.RoleID)
			if err != nil {
				return err
			}
			if err := guardPrivilegedRole(txCtx, role); err != nil {
				return err
			}
			user.RoleID = role.ID
			user.Role = *role
		}

		if req.ImageURL != nil {
			user.ImageURL = *req.ImageURL
		}
		if req.ImageStorageID != nil && *req.ImageStorageID != user.ImageStorageID {
			discarded = user.ImageStorageID
			user.ImageStorageID = *req.ImageStorageID
		}

		if err := s.users.Update(txCtx, user); err != nil {
			return mapRepoErr(err, "username or employee id")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionUpdateUser,
			EntityType: model.EntityUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
		})
	})
	if err != nil {
		return nil, err
	}

	s.discardAsset(ctx, discarded)
	return mapToResponse(user), nil
}

// DeleteUser removes the record, then the stored avatar exactly once.
func (s *userService) DeleteUser(ctx context.Context, id string) error {
	userID, err := parseID(id, "user")
	if err != nil {
		return err
	}

	var storageID string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return mapRepoErr(err, "user")
		}
		if err := guardPrivilegedRole(txCtx, &user.Role); err != nil {
			return err
		}
		storageID = user.ImageStorageID

		if err := s.users.Delete(txCtx, userID); err != nil {
			return mapRepoErr(err, "user")
		}
		return s.activity.Record(txCtx, Activity{
			Action:     model.ActionDeleteUser,
			EntityType: model.EntityUser,
			EntityID:   userID.String(),
			EntityName: user.Username,
		})
	})
	if err != nil {
		return err
	}

	s.discardAsset(ctx, storageID)
	s.log.Info("User deleted", "user_id", userID)
	return nil
}

// UploadAvatar stores a new picture first and only then points the user at it.
func (s *userService) UploadAvatar(ctx context.Context, id string, filename string, data io.Reader) (*UserResponse, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	if err := guardPrivilegedRole(ctx, &user.Role); err != nil {
		return nil, err
	}

	img, err := s.normalizer.Normalize(filename, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	asset, err := s.assets.Upload(ctx, img.Name, img.Data, img.ContentType)
	if err != nil {
		s.log.Error("Avatar upload failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamAsset, err)
	}

	url, storageID := asset.URL, asset.ID
	resp, err := s.UpdateUser(ctx, id, UpdateUserRequest{ImageURL: &url, ImageStorageID: &storageID})
	if err != nil {
		s.discardAsset(ctx, asset.ID)
		return nil, err
	}
	return resp, nil
}

func (s *userService) EnsureBootstrapAdmin(ctx context.Context, username, password string, roleID uuid.UUID) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	_, err = s.create(ctx, CreateUserRequest{
		FirstName:  "System",
		LastName:   "Administrator",
		Username:   username,
		Contact:    "-",
		EmployeeID: "ADMIN-0001",
		Password:   password,
		RoleID:     roleID.String(),
	}, false)
	if err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	s.log.Info("Bootstrap admin created", "username", username)
	return nil
}

// discardAsset deletes a no-longer-referenced asset. Failures are logged; the record change stands.
func (s *userService) discardAsset(ctx context.Context, storageID string) {
	if storageID == "" {
		return
	}
	if err := s.assets.Delete(ctx, storageID); err != nil {
		s.log.Error("Failed to delete asset", "storage_id", storageID, "error", err)
	}
}
