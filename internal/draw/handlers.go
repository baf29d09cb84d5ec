package draw

import (
	"errors"

	"backend-gravelatlas/internal/auth"
	"backend-gravelatlas/internal/segment"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
)

// RegisterRoutes mounts the drawing session API. Every route acts on the
// caller's own session.
func RegisterRoutes(r fiber.Router, reg *Registry, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/start", func(c *fiber.Ctx) error {
		_, snap := reg.Start(auth.UserID(c))
		return c.Status(fiber.StatusCreated).JSON(snap)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		s, err := reg.Get(auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(s.Snapshot())
	})

	r.Post("/clicks", func(c *fiber.Ctx) error {
		var body struct {
			Lng *float64 `json:"lng"`
			Lat *float64 `json:"lat"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.Lng == nil || body.Lat == nil || *body.Lat < -90 || *body.Lat > 90 || *body.Lng < -180 || *body.Lng > 180 {
			return fiber.NewError(fiber.StatusBadRequest, "lng and lat required")
		}
		s, err := reg.Get(auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		snap, err := s.HandleClick(c.UserContext(), orb.Point{*body.Lng, *body.Lat})
		if errors.Is(err, ErrSuperseded) {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"discarded": true})
		}
		if err != nil {
			return httpError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/undo", func(c *fiber.Ctx) error {
		s, err := reg.Get(auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		snap, err := s.Undo()
		if err != nil {
			return httpError(err)
		}
		return c.JSON(snap)
	})

	r.Put("/snap", func(c *fiber.Ctx) error {
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		s, err := reg.Get(auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(s.ToggleSnapToRoad(body.Enabled))
	})

	r.Post("/finish", func(c *fiber.Ctx) error {
		s, err := reg.Get(auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		f := s.Finish()
		if f == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(f)
	})

	r.Post("/save", func(c *fiber.Ctx) error {
		var body struct {
			Title string `json:"title"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		seg, err := reg.Save(c.UserContext(), auth.UserID(c), auth.UserName(c), body.Title)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(seg)
	})

	r.Delete("/", func(c *fiber.Ctx) error {
		if err := reg.Clear(auth.UserID(c)); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNoSession):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotDrawing), errors.Is(err, ErrAlreadySaved):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrTooFewPoints), errors.Is(err, segment.ErrMissingFields), errors.Is(err, segment.ErrInvalidGeometry),
		errors.Is(err, segment.ErrInvalidSurface), errors.Is(err, segment.ErrInvalidProfile):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
