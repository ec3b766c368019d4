package nav

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/kobadaidesu/shade-route-app/internal/position"
)

var validate = validator.New()

type startNavigationRequest struct {
	Destination *LatLng `json:"destination" validate:"required"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/:device/tracking/start", authMiddleware, func(c *fiber.Ctx) error {
		ctrl := svc.Controller(c.Params("device"))
		if err := ctrl.StartTracking(); err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		return c.JSON(ctrl.State())
	})

	r.Post("/:device/tracking/stop", authMiddleware, func(c *fiber.Ctx) error {
		ctrl := svc.Controller(c.Params("device"))
		ctrl.StopTracking()
		return c.JSON(ctrl.State())
	})

	r.Post("/:device/navigation/start", authMiddleware, func(c *fiber.Ctx) error {
		var req startNavigationRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctrl := svc.Controller(c.Params("device"))
		if err := ctrl.StartNavigation(req.Destination); err != nil {
			switch {
			case errors.Is(err, ErrNoDestination):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, ErrGeolocationUnsupported):
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			default:
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(ctrl.State())
	})

	r.Post("/:device/navigation/stop", authMiddleware, func(c *fiber.Ctx) error {
		ctrl := svc.Controller(c.Params("device"))
		ctrl.StopNavigation()
		return c.JSON(ctrl.State())
	})

	r.Get("/:device/state", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(svc.Controller(c.Params("device")).State())
	})

	r.Get("/:device/fix", authMiddleware, func(c *fiber.Ctx) error {
		fix, err := svc.Controller(c.Params("device")).CurrentFixOnce(c.Context())
		if err != nil {
			switch {
			case errors.Is(err, position.ErrTimeout):
				return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
			case errors.Is(err, position.ErrPermissionDenied):
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			default:
				return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
			}
		}
		return c.JSON(fix)
	})
}
