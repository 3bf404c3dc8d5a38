package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/service"
	"github.com/noah-isme/gema-grader/internal/utils"
)

// GradingHandler grades submitted source over HTTP.
type GradingHandler struct {
	service   service.GradingService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(service service.GradingService, validator *validator.Validate, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires the handler endpoints into the router group behind guards.
func (h *GradingHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/grade", append(guards, h.grade)...)
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "invalid grading request", validationDetails(err))
	}

	result := h.service.Grade(c.UserContext(), payload.Source, payload.CustomData)
	response := dto.NewGradeResponse(result.Report, result.SyntaxErr)

	logger := requestLogger(h.logger, c)
	logger.Info().
		Str("run_id", response.RunID).
		Bool("syntax_valid", response.SyntaxValid).
		Int("passed", response.Passed).
		Int("total", len(response.Cases)).
		Msg("source graded")

	return utils.SendSuccess(c, "submission graded", response)
}
