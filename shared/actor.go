package shared

import "github.com/gofiber/fiber/v2"

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorFromCtx reads the caller set by the auth middleware.
func ActorFromCtx(c *fiber.Ctx) Actor {
	userID, _ := c.Locals(UserID).(string)
	role, _ := c.Locals(UserRole).(string)
	return Actor{UserID: userID, Role: role}
}
