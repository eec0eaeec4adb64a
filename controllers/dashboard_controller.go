package controller

import (
	"time"

	"mailcast/models"
	"mailcast/repository"
	"mailcast/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct {
	Campaigns *repository.CampaignRepository
	Lists     *repository.ListRepository
	Templates *repository.TemplateRepository
	Quota     *repository.QuotaRepository
}

func NewDashboardController(campaigns *repository.CampaignRepository, lists *repository.ListRepository, templates *repository.TemplateRepository, quota *repository.QuotaRepository) *DashboardController {
	return &DashboardController{
		Campaigns: campaigns,
		Lists:     lists,
		Templates: templates,
		Quota:     quota,
	}
}

type DashboardStats struct {
	Campaigns       map[string]int64         `json:"campaigns"`
	Lists           int64                    `json:"lists"`
	Contacts        int64                    `json:"contacts"`
	ValidContacts   int64                    `json:"valid_contacts"`
	Templates       int64                    `json:"templates"`
	TodayQuota      *models.DailyQuota       `json:"today_quota"`
	QuotaHistory    []models.DailyQuota      `json:"quota_history"`
	RecentCampaigns []models.CampaignSummary `json:"recent_campaigns"`
}

// GetDashboardStats returns summary statistics for the dashboard cards
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	now := time.Now()

	var (
		stats DashboardStats
		err   error
	)

	if stats.Campaigns, err = dc.Campaigns.CountByStatus(ctx); err != nil {
		return dashboardError(c, "campaign counts", err)
	}
	if stats.Lists, stats.Contacts, stats.ValidContacts, err = dc.Lists.Totals(ctx); err != nil {
		return dashboardError(c, "list totals", err)
	}
	if stats.Templates, err = dc.Templates.Count(ctx); err != nil {
		return dashboardError(c, "template count", err)
	}
	if stats.TodayQuota, err = dc.Quota.Lookup(ctx, now); err != nil {
		return dashboardError(c, "quota", err)
	}
	if stats.QuotaHistory, err = dc.Quota.History(ctx, now, 7); err != nil {
		return dashboardError(c, "quota history", err)
	}
	if stats.RecentCampaigns, err = dc.Campaigns.List(ctx, "", 5); err != nil {
		return dashboardError(c, "recent campaigns", err)
	}

	return c.JSON(utils.SuccessResponse(stats))
}

func dashboardError(c *fiber.Ctx, what string, err error) error {
	utils.LogError("dashboard_stats", err, map[string]interface{}{"query": what})
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch dashboard stats", nil)
}
