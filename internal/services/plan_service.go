package services

import (
	"log"

	"nutrifit/internal/apperror"
	"nutrifit/internal/models"
	"nutrifit/internal/repositories"
	"nutrifit/internal/validation"
	"nutrifit/pkg/rabbitmq"
)

// EventPublisher publishes plan events after a write commits.
type EventPublisher interface {
	PublishPlanEvent(event rabbitmq.PlanEvent) error
}

// PlanService handles business logic related to plans and their meals.
type PlanService struct {
	plans  repositories.PlanRepository
	users  repositories.UserRepository
	schema *validation.Schema
	events EventPublisher // nil disables events
}

// NewPlanService creates a new PlanService. events may be nil.
func NewPlanService(plans repositories.PlanRepository, users repositories.UserRepository, events EventPublisher) *PlanService {
	return &PlanService{
		plans:  plans,
		users:  users,
		schema: validation.NewSchema(),
		events: events,
	}
}

// CreatePlan validates req, checks that the owner exists and stores the plan
// with its meals in one transaction.
func (s *PlanService) CreatePlan(req *validation.CreatePlanRequest) (*models.Plan, error) {
	if err := s.schema.ValidateCreatePlan(req); err != nil {
		return nil, err
	}

	plan := req.Plan()
	if err := s.ensureUser(plan.UserID); err != nil {
		return nil, err
	}
	if err := s.plans.Create(plan); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.EventPlanCreated, plan)
	return plan, nil
}

// GetAllPlans retrieves all plans.
func (s *PlanService) GetAllPlans() ([]models.Plan, error) {
	return s.plans.GetAll()
}

// GetPlanByID retrieves a single plan by its ID.
func (s *PlanService) GetPlanByID(id uint) (*models.Plan, error) {
	return s.plans.GetByID(id)
}

// UpdatePlan applies the supplied fields of req to the plan. The resulting date
// range is checked against the stored values, so sending only one date is
// still validated.
func (s *PlanService) UpdatePlan(id uint, req *validation.UpdatePlanRequest) (*models.Plan, error) {
	if err := s.schema.ValidateUpdatePlan(req); err != nil {
		return nil, err
	}
	if req.UserID != nil {
		if err := s.ensureUser(uint(*req.UserID)); err != nil {
			return nil, err
		}
	}

	plan, err := s.plans.Update(id, func(p *models.Plan) error {
		return applyUpdate(p, req)
	})
	if err != nil {
		return nil, err
	}

	s.publish(rabbitmq.EventPlanUpdated, plan)
	return plan, nil
}

func applyUpdate(p *models.Plan, req *validation.UpdatePlanRequest) error {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description.Set {
		p.Description = req.Description.Value
	}
	if req.StartDate != nil {
		start, err := models.ParseDate(*req.StartDate)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		p.StartDate = start
	}
	if req.EndDate != nil {
		end, err := models.ParseDate(*req.EndDate)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		p.EndDate = end
	}
	if req.UserID != nil {
		p.UserID = uint(*req.UserID)
	}
	if !p.EndDate.After(p.StartDate) {
		return validation.DateOrderError()
	}
	return nil
}

// DeletePlan deletes a plan and its meals.
func (s *PlanService) DeletePlan(id uint) error {
	if err := s.plans.Delete(id); err != nil {
		return err
	}
	s.publish(rabbitmq.EventPlanDeleted, &models.Plan{ID: id})
	return nil
}

// GetPlansByUser returns the plans of the user identified by rawUserID. A user
// without plans gets an empty list, not an error.
func (s *PlanService) GetPlansByUser(rawUserID string) ([]models.Plan, error) {
	userID, err := validation.ParseUserID(rawUserID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUser(userID); err != nil {
		return nil, err
	}
	return s.plans.GetByUserID(userID)
}

func (s *PlanService) ensureUser(id uint) error {
	ok, err := s.users.Exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.UserNotFound(id)
	}
	return nil
}

func (s *PlanService) publish(eventType string, plan *models.Plan) {
	if s.events == nil {
		return
	}
	event := rabbitmq.NewPlanEvent(eventType, plan.ID, plan.UserID, len(plan.Meals))
	if err := s.events.PublishPlanEvent(event); err != nil {
		log.Printf("Warning: Failed to publish %s event for plan %d: %v", eventType, plan.ID, err)
	}
}
