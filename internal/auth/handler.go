package auth

import (
	"strings"

	"pdv-backend/internal/config"
	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Corpo da requisição inválido")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := database.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email ou senha incorretos")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Email ou senha incorretos")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível gerar o token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user": fiber.Map{
				"id":        user.ID,
				"name":      user.Name,
				"email":     user.Email,
				"role":      user.Role,
				"tenant_id": user.TenantID,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDVal := c.Locals(CtxUserIDKey)
		roleVal := c.Locals(CtxUserRoleKey)
		tenantIDVal := c.Locals(CtxTenantIDKey)

		var user models.User
		if userID, ok := userIDVal.(uint); ok {
			if err := database.DB.First(&user, userID).Error; err == nil {
				response := fiber.Map{
					"user_id":   user.ID,
					"name":      user.Name,
					"email":     user.Email,
					"role":      user.Role,
					"tenant_id": user.TenantID,
				}

				// Usuário de tenant traz os dados do tenant junto
				if user.TenantID != nil {
					var tenant models.Tenant
					if err := database.DB.First(&tenant, *user.TenantID).Error; err == nil {
						response["tenant"] = fiber.Map{
							"id":       tenant.ID,
							"name":     tenant.Name,
							"document": tenant.Document,
							"phone":    tenant.Phone,
						}
					}
				}

				return c.JSON(response)
			}
		}

		// Fallback: se não der para buscar no banco, devolve o que tem nos locals
		return c.JSON(fiber.Map{
			"user_id":   userIDVal,
			"role":      roleVal,
			"tenant_id": tenantIDVal,
		})
	}
}
