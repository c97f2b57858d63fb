package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-stocktrack/internal/apperr"
	"go-stocktrack/internal/inventory"
	"go-stocktrack/internal/service"
)

type CategoryHandler struct {
	service service.CategoryService
}

func NewCategoryHandler(s service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: s}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, aerr := h.service.GetAllCategories()
	return envelope(c, 200, categories, aerr)
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var input inventory.CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return envelope(c, 0, nil, apperr.New(apperr.CodeCreate, "Invalid JSON body"))
	}
	category, aerr := h.service.CreateCategory(input)
	return envelope(c, 201, category, aerr)
}

func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	ok, aerr := h.service.DeleteCategory(c.Params("id"))
	status := 200
	if aerr != nil {
		status = apperr.HTTPStatus(aerr)
	}
	return c.Status(status).JSON(fiber.Map{"success": ok, "error": aerr})
}
