package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/lms_api/dto"
	"github.com/lac-hong-legacy/lms_api/shared"
)

type UserHandler struct {
	userSvc  UserServiceInterface
	auditSvc AuditServiceInterface
}

func NewUserHandler(userSvc UserServiceInterface, auditSvc AuditServiceInterface) *UserHandler {
	return &UserHandler{
		userSvc:  userSvc,
		auditSvc: auditSvc,
	}
}

// @Summary List or get users
// @Description Admins list every user or fetch one by id
// @Tags users
// @Produce json
// @Security Bearer
// @Param id query string false "User ID"
// @Success 200 {object} shared.Response{data=dto.UserListResponse}
// @Router /api/v1/users [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)

	if id := c.Query("id"); id != "" {
		if id != actor.UserID {
			if err := requireAdmin(actor); err != nil {
				return err
			}
		}
		user, err := h.userSvc.GetProfile(id)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, user)
	}

	if err := requireAdmin(actor); err != nil {
		return err
	}
	users, err := h.userSvc.ListUsers()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, users)
}

// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body dto.CreateUserRequest true "User"
// @Success 201 {object} shared.Response{data=dto.UserResponse}
// @Router /api/v1/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	if err := requireAdmin(shared.ActorFromCtx(c)); err != nil {
		return err
	}

	var req dto.CreateUserRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	user, err := h.userSvc.CreateUser(req)
	if err != nil {
		return err
	}

	h.auditSvc.LogRequest(c, shared.LogLevelInfo, "user.create", "User created", map[string]interface{}{"userId": user.ID})
	return shared.ResponseJSON(c, http.StatusCreated, "User created successfully", user)
}

// @Summary Update user
// @Description Patch a user; action=role changes the role, action=password the password
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id query string true "User ID"
// @Param action query string false "role | password"
// @Param request body dto.UpdateUserRequest true "Patch"
// @Success 200 {object} shared.Response{data=dto.UserResponse}
// @Router /api/v1/users [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	switch action := c.Query("action"); action {
	case "password":
		var req dto.UpdatePasswordRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		if err := h.userSvc.UpdatePassword(actor.UserID, actor.IsAdmin(), id, req); err != nil {
			return err
		}
		h.auditSvc.LogRequest(c, shared.LogLevelInfo, "user.password", "Password changed", map[string]interface{}{"userId": id})
		return shared.ResponseOK(c, dto.MessageResponse{Message: "Password updated"})

	case "role":
		if err := requireAdmin(actor); err != nil {
			return err
		}
		var req dto.UpdateRoleRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		user, err := h.userSvc.UpdateRole(id, req)
		if err != nil {
			return err
		}
		h.auditSvc.LogRequest(c, shared.LogLevelWarning, "user.role", "Role changed", map[string]interface{}{"userId": id, "role": req.Role})
		return shared.ResponseOK(c, user)

	case "":
		if err := requireAdmin(actor); err != nil {
			return err
		}
		var req dto.UpdateUserRequest
		if ok, err := bind(c, &req); !ok {
			return err
		}
		user, err := h.userSvc.UpdateUser(id, req)
		if err != nil {
			return err
		}
		return shared.ResponseOK(c, user)

	default:
		return unknownAction(action)
	}
}

// @Summary Delete user
// @Tags users
// @Produce json
// @Security Bearer
// @Param id query string true "User ID"
// @Success 200 {object} shared.Response{data=dto.MessageResponse}
// @Router /api/v1/users [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	actor := shared.ActorFromCtx(c)
	if err := requireAdmin(actor); err != nil {
		return err
	}
	id, err := requireQuery(c, "id")
	if err != nil {
		return err
	}

	if err := h.userSvc.DeleteUser(actor.UserID, id); err != nil {
		return err
	}

	h.auditSvc.LogRequest(c, shared.LogLevelWarning, "user.delete", "User deleted", map[string]interface{}{"userId": id})
	return shared.ResponseOK(c, dto.MessageResponse{Message: "User deleted"})
}
