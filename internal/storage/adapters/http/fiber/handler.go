package fiber

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DatabaseChecker interface {
	Alive(ctx context.Context) error
}

type StatusResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message" example:"database seems fine"`
}

type StatusHandler struct {
	db     DatabaseChecker
	logger *zap.Logger
}

func NewStatusHandler(db DatabaseChecker, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{db: db, logger: logger}
}

// Status godoc
// @Summary Health check
// @Description Reports whether the backing database answers
// @Tags Status
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 500 {object} StatusResponse
// @Router /_status [get]
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	if err := h.db.Alive(c.UserContext()); err != nil {
		h.logger.Error("database health check failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(StatusResponse{
			Status:  "error",
			Message: "cannot connect to database",
		})
	}

	return c.Status(http.StatusOK).JSON(StatusResponse{
		Status:  "ok",
		Message: "database seems fine",
	})
}
