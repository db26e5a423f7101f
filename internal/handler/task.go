package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/tiaochao/YouTubeRadar-sub001/internal/lease"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/middleware"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/model"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/repository"
	"github.com/tiaochao/YouTubeRadar-sub001/internal/service"
)

const defaultTaskLogLimit = 50

type TaskHandler struct {
	runner *service.TaskRunner
	logs   *repository.TaskLogRepo
	leases lease.Store
}

func NewTaskHandler(runner *service.TaskRunner, logs *repository.TaskLogRepo, leases lease.Store) *TaskHandler {
	return &TaskHandler{runner: runner, logs: logs, leases: leases}
}

// Run handles POST /api/tasks/:taskType/run — the manual trigger. The
// request blocks until the task finishes; clients that want fire-and-forget
// can drop the connection, the run keeps its lease either way.
func (h *TaskHandler) Run(c fiber.Ctx) error {
	taskType := model.TaskType(c.Params("taskType"))

	tl, err := h.runner.Run(c.Context(), taskType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownTask):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "UNKNOWN_TASK",
				"taskType must be one of VIDEO_SYNC, CHANNEL_HOURLY, CHANNEL_DAILY")
		case errors.Is(err, service.ErrAlreadyRunning):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_RUNNING",
				"Task is already running")
		default:
			return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to run task")
		}
	}

	success := tl.Success != nil && *tl.Success
	return c.JSON(model.TaskRunResponse{
		Success:  success,
		TaskType: taskType,
		Message:  tl.Message,
		Log:      tl,
	})
}

// List handles GET /api/tasks?limit=50 — the recent run history.
func (h *TaskHandler) List(c fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 200 {
		limit = defaultTaskLogLimit
	}

	logs, err := h.logs.Recent(c.Context(), limit)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list task logs")
	}
	if logs == nil {
		logs = []model.TaskLog{}
	}

	return c.JSON(fiber.Map{"tasks": logs})
}

// Locks handles GET /api/tasks/locks — currently held task leases, for
// operators debugging a stuck or skipped schedule.
func (h *TaskHandler) Locks(c fiber.Ctx) error {
	infos, err := h.leases.List(c.Context(), lease.KeyPrefix)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list task locks")
	}
	if infos == nil {
		infos = []lease.Info{}
	}

	return c.JSON(fiber.Map{"locks": infos})
}
