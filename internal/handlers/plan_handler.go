package handlers

import (
	"nutrifit/internal/services"
	"nutrifit/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler handles HTTP requests for nutrition plans.
type PlanHandler struct {
	service *services.PlanService
	schema  *validation.Schema
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(service *services.PlanService) *PlanHandler {
	return &PlanHandler{
		service: service,
		schema:  validation.NewSchema(),
	}
}

// RegisterRoutes registers the plan routes on router.
func (h *PlanHandler) RegisterRoutes(router fiber.Router) {
	planRoutes := router.Group("/plans")
	planRoutes.Get("/", h.HandleGetPlans)
	planRoutes.Post("/", h.HandleCreatePlan)
	// Registered before /:id so "user" is never parsed as a plan id.
	planRoutes.Get("/user/:userId", h.HandleGetPlansByUser)
	planRoutes.Get("/:id", h.HandleGetPlanByID)
	planRoutes.Put("/:id", h.HandleUpdatePlan)
	planRoutes.Delete("/:id", h.HandleDeletePlan)
}

// HandleGetPlans returns every plan with its user and meals.
func (h *PlanHandler) HandleGetPlans(c *fiber.Ctx) error {
	plans, err := h.service.GetAllPlans()
	if err != nil {
		return respondError(c, err, "Error interno del servidor al obtener los planes.")
	}
	return c.JSON(plans)
}

// HandleGetPlanByID returns a single plan.
func (h *PlanHandler) HandleGetPlanByID(c *fiber.Ctx) error {
	id, err := validation.ParsePlanID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "")
	}
	plan, err := h.service.GetPlanByID(id)
	if err != nil {
		return respondError(c, err, "Error interno del servidor al obtener el plan.")
	}
	return c.JSON(plan)
}

// HandleCreatePlan creates a plan together with its meals.
func (h *PlanHandler) HandleCreatePlan(c *fiber.Ctx) error {
	req, err := h.schema.DecodeCreatePlan(c.Body())
	if err != nil {
		return respondError(c, err, "")
	}
	plan, err := h.service.CreatePlan(req)
	if err != nil {
		return respondError(c, err, "Error interno del servidor al crear el plan.")
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleUpdatePlan applies a partial update. Meals are not touched.
func (h *PlanHandler) HandleUpdatePlan(c *fiber.Ctx) error {
	id, err := validation.ParsePlanID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "")
	}
	req, err := h.schema.DecodeUpdatePlan(c.Body())
	if err != nil {
		return respondError(c, err, "")
	}
	plan, err := h.service.UpdatePlan(id, req)
	if err != nil {
		return respondError(c, err, "Error interno del servidor al actualizar el plan.")
	}
	return c.JSON(plan)
}

// HandleDeletePlan deletes a plan and its meals.
func (h *PlanHandler) HandleDeletePlan(c *fiber.Ctx) error {
	id, err := validation.ParsePlanID(c.Params("id"))
	if err != nil {
		return respondError(c, err, "")
	}
	if err := h.service.DeletePlan(id); err != nil {
		return respondError(c, err, "Error interno del servidor al eliminar el plan.")
	}
	return c.JSON(fiber.Map{"message": "Plan eliminado"})
}

// HandleGetPlansByUser lists the plans of one user. A user without plans gets [].
func (h *PlanHandler) HandleGetPlansByUser(c *fiber.Ctx) error {
	plans, err := h.service.GetPlansByUser(c.Params("userId"))
	if err != nil {
		return respondError(c, err, "Error interno del servidor al obtener los planes del usuario.")
	}
	return c.JSON(plans)
}
