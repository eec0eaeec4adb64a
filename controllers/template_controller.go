package controller

import (
	"context"

	"mailcast/models"
	"mailcast/utils"

	"github.com/gofiber/fiber/v2"
)

// TemplateStore is the template persistence used by TemplateController
type TemplateStore interface {
	Create(ctx context.Context, tmpl *models.Template) error
	List(ctx context.Context) ([]models.Template, error)
	GetByID(ctx context.Context, id uint) (*models.Template, error)
	Save(ctx context.Context, tmpl *models.Template) error
	Delete(ctx context.Context, id uint) (bool, error)
}

type TemplateController struct {
	Store TemplateStore
}

func NewTemplateController(store TemplateStore) *TemplateController {
	return &TemplateController{Store: store}
}

type templateInput struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Subject     string            `json:"subject" validate:"required,max=998"`
	HTMLContent string            `json:"html_content"`
	TextContent string            `json:"text_content"`
	Variables   map[string]string `json:"variables"`
}

func (tc *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	input, ok := parseTemplateInput(c)
	if !ok {
		return nil
	}

	tmpl := &models.Template{
		Name:        input.Name,
		Subject:     input.Subject,
		HTMLContent: input.HTMLContent,
		TextContent: input.TextContent,
		Variables:   input.Variables,
	}
	if err := tc.Store.Create(c.UserContext(), tmpl); err != nil {
		utils.LogError("template_create", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create template", nil)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(tmpl))
}

func (tc *TemplateController) GetTemplates(c *fiber.Ctx) error {
	templates, err := tc.Store.List(c.UserContext())
	if err != nil {
		utils.LogError("template_list", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch templates", nil)
	}
	return c.JSON(utils.SuccessResponse(templates))
}

func (tc *TemplateController) GetTemplate(c *fiber.Ctx) error {
	tmpl, ok := tc.find(c)
	if !ok {
		return nil
	}
	return c.JSON(utils.SuccessResponse(tmpl))
}

func (tc *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	tmpl, ok := tc.find(c)
	if !ok {
		return nil
	}
	input, ok := parseTemplateInput(c)
	if !ok {
		return nil
	}

	tmpl.Name = input.Name
	tmpl.Subject = input.Subject
	tmpl.HTMLContent = input.HTMLContent
	tmpl.TextContent = input.TextContent
	tmpl.Variables = input.Variables

	if err := tc.Store.Save(c.UserContext(), tmpl); err != nil {
		utils.LogError("template_update", err, map[string]interface{}{"template_id": tmpl.ID})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update template", nil)
	}
	return c.JSON(utils.SuccessResponse(tmpl))
}

func (tc *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid template ID", nil)
	}
	deleted, err := tc.Store.Delete(c.UserContext(), id)
	if err != nil {
		utils.LogError("template_delete", err, map[string]interface{}{"template_id": id})
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete template", nil)
	}
	if !deleted {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Template deleted",
	})
}

// find loads the :id template, writing the error response itself on failure
func (tc *TemplateController) find(c *fiber.Ctx) (*models.Template, bool) {
	id, ok := paramID(c)
	if !ok {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid template ID", nil)
		return nil, false
	}
	tmpl, err := tc.Store.GetByID(c.UserContext(), id)
	if err != nil {
		utils.LogError("template_get", err, map[string]interface{}{"template_id": id})
		_ = utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch template", nil)
		return nil, false
	}
	if tmpl == nil {
		_ = utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
		return nil, false
	}
	return tmpl, true
}

func parseTemplateInput(c *fiber.Ctx) (templateInput, bool) {
	var input templateInput
	if err := c.BodyParser(&input); err != nil {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
		return input, false
	}
	if err := utils.ValidateStruct(input); err != nil {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
		return input, false
	}
	if input.HTMLContent == "" && input.TextContent == "" {
		_ = utils.ErrorResponse(c, fiber.StatusBadRequest, "Template needs an HTML or text body", nil)
		return input, false
	}
	return input, true
}
