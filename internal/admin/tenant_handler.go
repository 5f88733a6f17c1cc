package admin

import (
	"strings"

	"pdv-backend/internal/database"
	"pdv-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type TenantResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
}

type CreateTenantRequest struct {
	Name     string  `json:"name"`
	Document string  `json:"document"`
	Phone    *string `json:"phone"` // opcional
}

type UpdateTenantRequest struct {
	Name     *string `json:"name"`
	Document *string `json:"document"`
	Phone    *string `json:"phone"` // opcional
}

type CreateTenantAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TenantUserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  *uint  `json:"tenant_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ----------------------------------------
// CRUD DE TENANT
// ----------------------------------------

func CreateTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTenantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome do tenant não pode ser vazio")
		}

		tenant := models.Tenant{
			Name:     body.Name,
			Document: strings.TrimSpace(body.Document),
		}
		if body.Phone != nil {
			tenant.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&tenant).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o tenant")
		}

		return c.Status(fiber.StatusCreated).JSON(TenantResponse{
			ID:        tenant.ID,
			Name:      tenant.Name,
			Document:  tenant.Document,
			Phone:     tenant.Phone,
			CreatedAt: tenant.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func ListTenantsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {

		var tenants []models.Tenant
		if err := database.DB.Find(&tenants).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os tenants")
		}

		res := make([]TenantResponse, 0, len(tenants))
		for _, t := range tenants {
			res = append(res, TenantResponse{
				ID:        t.ID,
				Name:      t.Name,
				Document:  t.Document,
				Phone:     t.Phone,
				CreatedAt: t.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}

func GetTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var tenant models.Tenant
		if err := database.DB.First(&tenant, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tenant não encontrado")
		}

		return c.JSON(TenantResponse{
			ID:        tenant.ID,
			Name:      tenant.Name,
			Document:  tenant.Document,
			Phone:     tenant.Phone,
			CreatedAt: tenant.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func UpdateTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var tenant models.Tenant
		if err := database.DB.First(&tenant, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tenant não encontrado")
		}

		var body UpdateTenantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Nome do tenant não pode ser vazio")
			}
			tenant.Name = name
		}

		if body.Document != nil {
			tenant.Document = strings.TrimSpace(*body.Document)
		}

		if body.Phone != nil {
			tenant.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Save(&tenant).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível atualizar o tenant")
		}

		return c.JSON(TenantResponse{
			ID:        tenant.ID,
			Name:      tenant.Name,
			Document:  tenant.Document,
			Phone:     tenant.Phone,
			CreatedAt: tenant.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

func DeleteTenantHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {

		id := c.Params("id")

		if err := database.DB.Delete(&models.Tenant{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível remover o tenant")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// ADMIN DO TENANT
// ----------------------------------------

// POST /api/admin/tenants/:id/admin
func CreateTenantAdminHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {

		tenantID := c.Params("id")

		// tenant precisa existir
		var tenant models.Tenant
		if err := database.DB.First(&tenant, "id = ?", tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tenant não encontrado")
		}

		var body CreateTenantAdminRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		body.Name = strings.TrimSpace(body.Name)

		if body.Name == "" || body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome, email e senha são obrigatórios")
		}

		// email único
		var exist models.User
		if err := database.DB.Where("email = ?", body.Email).First(&exist).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Este email já está cadastrado")
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

		user := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleTenantAdmin,
			TenantID:     &tenant.ID,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o admin do tenant")
		}

		// A senha só aparece na resposta de criação, uma única vez.
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"tenant_id": user.TenantID,
			"password":  body.Password,
		})
	}
}

// GET /api/admin/tenants/:id/users
func ListTenantUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID := c.Params("id")

		var users []models.User
		if err := database.DB.
			Where("tenant_id = ?", tenantID).
			Order("created_at DESC").
			Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os usuários")
		}

		res := make([]TenantUserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, TenantUserResponse{
				ID:        u.ID,
				Name:      u.Name,
				Email:     u.Email,
				Role:      string(u.Role),
				TenantID:  u.TenantID,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
				UpdatedAt: u.UpdatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(res)
	}
}
