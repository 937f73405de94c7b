package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pln-care/complaint-service/internal/domain"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}

// RequireAdmin is shorthand for the admin-only gate.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdminUtama)
}

// RequireOfficerOrAdmin gates endpoints shared by field officers and admins.
func RequireOfficerOrAdmin() fiber.Handler {
	return RequireRole(domain.RolePetugasLapangan, domain.RoleAdminUtama)
}
