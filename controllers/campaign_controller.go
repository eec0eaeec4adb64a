package controller

import (
	"errors"

	"mailcast/services"
	"mailcast/utils"

	"github.com/gofiber/fiber/v2"
)

type CampaignController struct {
	Service *services.CampaignService
}

func NewCampaignController(service *services.CampaignService) *CampaignController {
	return &CampaignController{
		Service: service,
	}
}

func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	var input services.CreateCampaignInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	campaign, err := cc.Service.Create(c.UserContext(), input)
	if err != nil {
		return cc.fail(c, "create", err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

// GetCampaigns lists campaigns, optionally filtered with ?status=
func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	campaigns, err := cc.Service.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return cc.fail(c, "list", err)
	}
	return c.JSON(utils.SuccessResponse(campaigns))
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", nil)
	}
	details, err := cc.Service.Get(c.UserContext(), id)
	if err != nil {
		return cc.fail(c, "get", err)
	}
	return c.JSON(utils.SuccessResponse(details))
}

func (cc *CampaignController) StartCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", nil)
	}
	campaign, err := cc.Service.Start(c.UserContext(), id)
	if err != nil {
		return cc.fail(c, "start", err)
	}

	utils.LogEvent("campaign_started", map[string]interface{}{
		"campaign_id": id,
		"recipients":  campaign.TotalRecipients,
	})
	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) PauseCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", nil)
	}
	campaign, err := cc.Service.Pause(c.UserContext(), id)
	if err != nil {
		return cc.fail(c, "pause", err)
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) ResumeCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", nil)
	}
	campaign, err := cc.Service.Resume(c.UserContext(), id)
	if err != nil {
		return cc.fail(c, "resume", err)
	}
	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", nil)
	}
	if err := cc.Service.Delete(c.UserContext(), id); err != nil {
		return cc.fail(c, "delete", err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Campaign deleted",
	})
}

// fail maps service errors to responses
func (cc *CampaignController) fail(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrCampaignNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	case errors.Is(err, services.ErrTemplateNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Template not found", nil)
	case errors.Is(err, services.ErrListNotFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "List not found", nil)
	case errors.Is(err, services.ErrInvalidTransition):
		return utils.ErrorResponse(c, fiber.StatusConflict, "Invalid campaign status", err)
	case errors.Is(err, services.ErrInvalidStatus):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status filter", err)
	}

	utils.LogError("campaign_"+action, err, map[string]interface{}{
		"path": c.Path(),
	})
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to "+action+" campaign", nil)
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id := utils.ParseUint(c.Params("id"))
	return id, id != 0
}
