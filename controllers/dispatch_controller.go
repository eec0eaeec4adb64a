package controller

import (
	"context"
	"time"

	"mailcast/models"
	"mailcast/utils"
	"mailcast/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// DispatchRunner is the part of the coordinator the API drives
type DispatchRunner interface {
	Trigger() bool
	Running() bool
	LastReport() (worker.RunReport, bool)
}

// QuotaReader reads the quota row of a day without creating it
type QuotaReader interface {
	Lookup(ctx context.Context, day time.Time) (*models.DailyQuota, error)
}

type DispatchController struct {
	Runner   DispatchRunner
	Quota    QuotaReader
	Progress *worker.ProgressHub
	Logger   *logrus.Entry
}

func NewDispatchController(runner DispatchRunner, quota QuotaReader, progress *worker.ProgressHub) *DispatchController {
	return &DispatchController{
		Runner:   runner,
		Quota:    quota,
		Progress: progress,
		Logger:   logrus.WithField("controller", "dispatch"),
	}
}

type runReportResponse struct {
	Passes       int       `json:"passes"`
	Sent         int       `json:"sent"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	QuotaReached bool      `json:"quota_reached"`
	Error        string    `json:"error,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Duration     string    `json:"duration"`
}

type passResponse struct {
	Sent         int    `json:"sent"`
	Failed       int    `json:"failed"`
	Skipped      int    `json:"skipped"`
	QuotaReached bool   `json:"quota_reached"`
	Error        string `json:"error,omitempty"`
}

// RunDispatch starts a dispatch run in the background. It is a no-op while
// another run is in flight.
func (dc *DispatchController) RunDispatch(c *fiber.Ctx) error {
	if !dc.Runner.Trigger() {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"success":         true,
			"already_running": true,
			"message":         "Dispatch already running",
		})
	}

	utils.LogEvent("dispatch_triggered", map[string]interface{}{
		"user_id": c.Locals("userID"),
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":         true,
		"already_running": false,
		"message":         "Dispatch started",
	})
}

func (dc *DispatchController) GetStatus(c *fiber.Ctx) error {
	quota, err := dc.Quota.Lookup(c.UserContext(), time.Now())
	if err != nil {
		utils.LogError("dispatch_status", err, nil)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read quota", nil)
	}

	status := fiber.Map{
		"running": dc.Runner.Running(),
		"quota": fiber.Map{
			"date":      quota.Date,
			"sent":      quota.EmailsSent,
			"limit":     quota.QuotaLimit,
			"remaining": max(quota.Remaining(), 0),
		},
	}
	if report, ok := dc.Runner.LastReport(); ok {
		status["last_run"] = newRunReportResponse(report)
	}
	return c.JSON(utils.SuccessResponse(status))
}

// StreamProgress streams every pass result to the client until it disconnects
func (dc *DispatchController) StreamProgress(conn *websocket.Conn) {
	defer conn.Close()

	updates, unsubscribe := dc.Progress.Subscribe()
	defer unsubscribe()

	// The client only ever closes the stream
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case res, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(newPassResponse(res)); err != nil {
				dc.Logger.WithError(err).Debug("Progress client went away")
				return
			}
		}
	}
}

func newPassResponse(res worker.PassResult) passResponse {
	out := passResponse{
		Sent:         res.Sent,
		Failed:       res.Failed,
		Skipped:      res.Skipped,
		QuotaReached: res.QuotaReached,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

func newRunReportResponse(report worker.RunReport) runReportResponse {
	out := runReportResponse{
		Passes:       report.Passes,
		Sent:         report.Sent,
		Failed:       report.Failed,
		Skipped:      report.Skipped,
		QuotaReached: report.QuotaReached,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		Duration:     utils.FormatDuration(report.FinishedAt.Sub(report.StartedAt)),
	}
	if report.Err != nil {
		out.Error = report.Err.Error()
	}
	return out
}
