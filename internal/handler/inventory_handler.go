package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-stocktrack/internal/apperr"
	"go-stocktrack/internal/inventory"
	"go-stocktrack/internal/service"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// envelope renders the uniform {data, error} response.
func envelope(c *fiber.Ctx, okStatus int, data interface{}, err *apperr.Error) error {
	if err != nil {
		return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{"data": data, "error": err})
	}
	return c.Status(okStatus).JSON(fiber.Map{"data": data, "error": nil})
}

func listQuery(c *fiber.Ctx) service.ListQuery {
	return service.ListQuery{
		SortBy:    c.Query("sort_by"),
		Ascending: c.QueryBool("ascending", false),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
}

func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.service.GetAllItems(listQuery(c))
	return envelope(c, 200, items, err)
}

func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.Params("id"))
	return envelope(c, 200, item, err)
}

func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	var input inventory.ItemInput
	if err := c.BodyParser(&input); err != nil {
		return envelope(c, 0, nil, apperr.New(apperr.CodeCreate, "Invalid JSON body"))
	}
	item, aerr := h.service.CreateItem(input)
	return envelope(c, 201, item, aerr)
}

func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	var patch inventory.ItemPatch
	if err := c.BodyParser(&patch); err != nil {
		return envelope(c, 0, nil, apperr.New(apperr.CodeUpdate, "Invalid JSON body"))
	}
	item, aerr := h.service.UpdateItem(c.Params("id"), patch)
	return envelope(c, 200, item, aerr)
}

// DeleteItem responds with {success, error} instead of the data
// envelope.
func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	ok, aerr := h.service.DeleteItem(c.Params("id"))
	status := 200
	if aerr != nil {
		status = apperr.HTTPStatus(aerr)
	}
	return c.Status(status).JSON(fiber.Map{"success": ok, "error": aerr})
}

func (h *InventoryHandler) SearchItems(c *fiber.Ctx) error {
	q := service.SearchQuery{
		Search:       c.Query("q"),
		Category:     c.Query("category"),
		LowStockOnly: c.QueryBool("low_stock_only", false),
		SortBy:       c.Query("sort_by"),
		Ascending:    c.QueryBool("ascending", false),
		Limit:        c.QueryInt("limit", 0),
		Offset:       c.QueryInt("offset", 0),
	}
	if v := strings.TrimSpace(c.Query("min_quantity")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.MinQuantity = &n
		}
	}
	if v := strings.TrimSpace(c.Query("max_quantity")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.MaxQuantity = &n
		}
	}
	items, aerr := h.service.SearchItems(q)
	return envelope(c, 200, items, aerr)
}

func (h *InventoryHandler) GetLowStockItems(c *fiber.Ctx) error {
	items, aerr := h.service.GetLowStockItems(listQuery(c))
	return envelope(c, 200, items, aerr)
}

func (h *InventoryHandler) CreateItems(c *fiber.Ctx) error {
	var inputs []inventory.ItemInput
	if err := c.BodyParser(&inputs); err != nil {
		return envelope(c, 0, nil, apperr.New(apperr.CodeBatchCreate, "Invalid JSON body"))
	}
	items, aerr := h.service.CreateMultipleItems(inputs)
	return envelope(c, 201, items, aerr)
}

// UpdateItems returns successes alongside the partial-error envelope, so
// a partial failure still carries data.
func (h *InventoryHandler) UpdateItems(c *fiber.Ctx) error {
	var updates []service.BatchUpdate
	if err := c.BodyParser(&updates); err != nil {
		return envelope(c, 0, nil, apperr.New(apperr.CodeBatchUpdate, "Invalid JSON body"))
	}
	items, aerr := h.service.UpdateMultipleItems(updates)
	return envelope(c, 200, items, aerr)
}

func (h *InventoryHandler) GetStatistics(c *fiber.Ctx) error {
	stats, aerr := h.service.GetStatistics()
	return envelope(c, 200, stats, aerr)
}
