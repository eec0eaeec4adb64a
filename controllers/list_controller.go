package controller

import (
	"context"

	"mailcast/models"
	"mailcast/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ListStore is the list persistence used by ListController
type ListStore interface {
	Create(ctx context.Context, list *models.EmailList) error
	List(ctx context.Context) ([]models.EmailList, error)
	GetByID(ctx context.Context, id uint, withContacts bool) (*models.EmailList, error)
	Delete(ctx context.Context, id uint) (bool, error)
	Unsubscribe(ctx context.Context, listID uint, email string) (int64, error)
}

type ListController struct {
	Store  ListStore
	Logger *logrus.Entry
}

func NewListController(store ListStore) *ListController {
	return &ListController{
		Store:  store,
		Logger: logrus.WithField("controller", "list"),
	}
}

type contactInput struct {
	Email string `json:"email" validate:"required,max=320"`
	Name  string `json:"name" validate:"max=255"`
}

type createListInput struct {
	Name        string         `json:"name" validate:"required,max=255"`
	Description string         `json:"description"`
	Contacts    []contactInput `json:"contacts" validate:"required,min=1,dive"`
}

// CreateList stores an uploaded list. Every address is kept; those failing
// verification are flagged invalid and never receive email. Repeated
// addresses within one upload are dropped.
func (lc *ListController) CreateList(c *fiber.Ctx) error {
	var input createListInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	list := &models.EmailList{
		Name:        input.Name,
		Description: input.Description,
	}
	seen := make(map[string]struct{}, len(input.Contacts))
	for _, in := range input.Contacts {
		email := utils.NormalizeEmail(in.Email)
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}

		list.Contacts = append(list.Contacts, models.ListContact{
			Email:   email,
			Name:    in.Name,
			IsValid: utils.VerifyContactEmail(email) == nil,
		})
	}

	if err := lc.Store.Create(c.UserContext(), list); err != nil {
		utils.LogError("list_create", err, map[string]interface{}{"contacts": len(list.Contacts)})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create list", nil)
	}

	lc.Logger.WithFields(logrus.Fields{
		"list_id": list.ID,
		"valid":   list.ValidCount,
		"invalid": list.InvalidCount,
	}).Info("List created")

	// The contacts are not echoed back
	list.Contacts = nil
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(list))
}

func (lc *ListController) GetLists(c *fiber.Ctx) error {
	lists, err := lc.Store.List(c.UserContext())
	if err != nil {
		utils.LogError("list_list", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch lists", nil)
	}
	return c.JSON(utils.SuccessResponse(lists))
}

// GetList returns a list, with its contacts when ?contacts=true
func (lc *ListController) GetList(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid list ID", nil)
	}
	list, err := lc.Store.GetByID(c.UserContext(), id, c.QueryBool("contacts", false))
	if err != nil {
		utils.LogError("list_get", err, map[string]interface{}{"list_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch list", nil)
	}
	if list == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "List not found", nil)
	}
	return c.JSON(utils.SuccessResponse(list))
}

func (lc *ListController) DeleteList(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid list ID", nil)
	}
	deleted, err := lc.Store.Delete(c.UserContext(), id)
	if err != nil {
		utils.LogError("list_delete", err, map[string]interface{}{"list_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete list", nil)
	}
	if !deleted {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "List not found", nil)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "List deleted",
	})
}

// Unsubscribe flags an address so campaigns started later skip it
func (lc *ListController) Unsubscribe(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid list ID", nil)
	}

	var input struct {
		Email string `json:"email" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	updated, err := lc.Store.Unsubscribe(c.UserContext(), id, input.Email)
	if err != nil {
		utils.LogError("list_unsubscribe", err, map[string]interface{}{"list_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unsubscribe contact", nil)
	}
	if updated == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", nil)
	}

	utils.LogEvent("contact_unsubscribed", map[string]interface{}{"list_id": id})
	return c.JSON(fiber.Map{
		"success": true,
		"updated": updated,
	})
}
