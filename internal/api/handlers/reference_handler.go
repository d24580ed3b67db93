package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Infinitspace1/Infinitspace-datawarehouse/internal/refs"
	"github.com/Infinitspace1/Infinitspace-datawarehouse/pkg/logger"
)

// ReferenceHandler serves the lazy soft-reference resolutions between
// contracts, products and extra services.
type ReferenceHandler struct {
	resolver *refs.Resolver
}

func NewReferenceHandler(resolver *refs.Resolver) *ReferenceHandler {
	return &ReferenceHandler{
		resolver: resolver,
	}
}

// GetContractProducts resolves a contract's floor plan desk ids into
// products. Dangling ids are dropped, never errors.
func (h *ReferenceHandler) GetContractProducts(c *fiber.Ctx) error {
	contractID, err := pathID(c)
	if err != nil {
		return err
	}

	products, err := h.resolver.ContractProducts(contractID)
	if err != nil {
		logger.Error("Failed to resolve contract products", zap.Int64("contract_id", contractID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve contract products",
		})
	}

	out := make([]fiber.Map, 0, len(products))
	for i := range products {
		out = append(out, productView(&products[i]))
	}

	return c.JSON(fiber.Map{
		"contract_id": contractID,
		"products":    out,
		"count":       len(out),
	})
}

// GetServiceProducts resolves an extra service's resource type names
// into the room products they apply to.
func (h *ReferenceHandler) GetServiceProducts(c *fiber.Ctx) error {
	serviceID, err := pathID(c)
	if err != nil {
		return err
	}

	products, err := h.resolver.ServiceProducts(serviceID)
	if err != nil {
		logger.Error("Failed to resolve service products", zap.Int64("service_id", serviceID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve service products",
		})
	}

	out := make([]fiber.Map, 0, len(products))
	for i := range products {
		out = append(out, productView(&products[i]))
	}

	return c.JSON(fiber.Map{
		"extra_service_id": serviceID,
		"products":         out,
		"count":            len(out),
	})
}

// GetProductServices is the reverse resolution: the extra services
// applicable to one room product.
func (h *ReferenceHandler) GetProductServices(c *fiber.Ctx) error {
	productID, err := pathID(c)
	if err != nil {
		return err
	}

	services, err := h.resolver.ProductServices(productID)
	if err != nil {
		logger.Error("Failed to resolve product services", zap.Int64("product_id", productID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve product services",
		})
	}

	out := make([]fiber.Map, 0, len(services))
	for i := range services {
		out = append(out, serviceView(&services[i]))
	}

	return c.JSON(fiber.Map{
		"product_id": productID,
		"services":   out,
		"count":      len(out),
	})
}
