package comment

import (
	"errors"

	"backend-gravelatlas/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts under a segment group, so :id is the segment id.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(comments)
	})

	r.Post("/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		comment, err := svc.AddComment(c.Context(), Comment{
			SegmentID: c.Params("id"),
			UserID:    auth.UserID(c),
			UserName:  auth.UserName(c),
			Content:   body.Content,
		})
		switch {
		case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrContentTooLong):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSegmentNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})
}
