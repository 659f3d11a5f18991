package services

import (
	"errors"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/model"
	"github.com/lac-hong-legacy/lms_api/services/repositories"
	"github.com/lac-hong-legacy/lms_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	context.DefaultService

	dbSvc    Database
	userRepo *repositories.UserRepository
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *context.Context) error {
	svc.dbSvc = ctx.Service(DATABASE_SVC).(Database)
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.useDB(svc.dbSvc.Db())
	return nil
}

func (svc *UserService) useDB(db *gorm.DB) {
	svc.userRepo = repositories.NewUserRepository(db)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (svc *UserService) CreateUser(req dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := svc.userRepo.GetByEmail(email); err == nil {
		return nil, shared.NewConflictError(nil, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dbError(svc.dbSvc, err, "User not found")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	role := req.Role
	if role == "" {
		role = shared.RoleStudent
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := svc.userRepo.Create(user); err != nil {
		return nil, dbError(svc.dbSvc, err, "User not found")
	}

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("User created")
	resp := toUserResponse(user)
	return &resp, nil
}

func (svc *UserService) GetUser(id string) (*model.User, error) {
	user, err := svc.userRepo.GetByID(id)
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "User not found")
	}
	return user, nil
}

func (svc *UserService) GetProfile(id string) (*dto.UserResponse, error) {
	user, err := svc.GetUser(id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (svc *UserService) ListUsers() (*dto.UserListResponse, error) {
	users, err := svc.userRepo.List()
	if err != nil {
		return nil, dbError(svc.dbSvc, err, "Users not found")
	}

	resp := &dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users)), Total: len(users)}
	for i := range users {
		resp.Users = append(resp.Users, toUserResponse(&users[i]))
	}
	return resp, nil
}

func (svc *UserService) UpdateUser(id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if req.Empty() {
		return nil, shared.NewBadRequestError(nil, "No fields to update")
	}

	updates := map[string]interface{}{}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if existing, err := svc.userRepo.GetByEmail(email); err == nil && existing.ID != id {
			return nil, shared.NewConflictError(nil, "Email already registered")
		}
		updates["email"] = email
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := svc.userRepo.Update(id, updates); err != nil {
		return nil, dbError(svc.dbSvc, err, "User not found")
	}
	return svc.GetProfile(id)
}

func (svc *UserService) UpdateRole(id string, req dto.UpdateRoleRequest) (*dto.UserResponse, error) {
	if err := svc.userRepo.Update(id, map[string]interface{}{"role": req.Role}); err != nil {
		return nil, dbError(svc.dbSvc, err, "User not found")
	}
	return svc.GetProfile(id)
}

// UpdatePassword changes a password. Callers changing their own password must present the
// current one; admins resetting someone else's do not.
func (svc *UserService) UpdatePassword(actorID string, actorIsAdmin bool, targetID string, req dto.UpdatePasswordRequest) error {
	if actorID != targetID && !actorIsAdmin {
		return shared.NewForbiddenError(nil, "Cannot change another user's password")
	}

	user, err := svc.GetUser(targetID)
	if err != nil {
		return err
	}

	if actorID == targetID {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return shared.NewUnauthorizedError(nil, "Current password is incorrect")
		}
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return shared.NewInternalError(err, "Failed to hash password")
	}
	if err := svc.userRepo.Update(targetID, map[string]interface{}{"password_hash": hash}); err != nil {
		return dbError(svc.dbSvc, err, "User not found")
	}
	return nil
}

func (svc *UserService) DeleteUser(actorID, id string) error {
	if actorID == id {
		return shared.NewBadRequestError(nil, "Cannot delete your own account")
	}
	if err := svc.userRepo.Delete(id); err != nil {
		return dbError(svc.dbSvc, err, "User not found")
	}
	log.WithField("user_id", id).Info("User deleted")
	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
