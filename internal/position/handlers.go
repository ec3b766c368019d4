package position

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type fixRequest struct {
	Lat        float64   `json:"lat" validate:"gte=-90,lte=90"`
	Lng        float64   `json:"lng" validate:"gte=-180,lte=180"`
	AccuracyM  float64   `json:"accuracy_m" validate:"gte=0"`
	RecordedAt time.Time `json:"recorded_at"`
}

type errorReport struct {
	Code    int    `json:"code" validate:"gte=1"`
	Message string `json:"message"`
}

func RegisterRoutes(r fiber.Router, src *Source, authMiddleware fiber.Handler) {
	r.Post("/:device/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var req fixRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.RecordedAt.IsZero() {
			req.RecordedAt = time.Now()
		}

		fix := Fix{Lat: req.Lat, Lng: req.Lng, AccuracyM: req.AccuracyM, RecordedAt: req.RecordedAt}
		src.Publish(c.Params("device"), fix)
		return c.Status(fiber.StatusAccepted).JSON(fix)
	})

	r.Post("/:device/errors", authMiddleware, func(c *fiber.Ctx) error {
		var req errorReport
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		src.PublishError(c.Params("device"), req.Code)
		return c.SendStatus(fiber.StatusAccepted)
	})
}
