package segment

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"backend-gravelatlas/internal/auth"
	"backend-gravelatlas/internal/chart"

	"github.com/gofiber/fiber/v2"
)

const maxImportBytes = 5 << 20

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		filter := ListFilter{
			Limit:  c.QueryInt("limit", defaultPageSize),
			Page:   c.QueryInt("page", 1),
			UserID: c.Query("user_id"),
		}
		if raw := c.Query("bounds"); raw != "" {
			b, err := ParseBounds(raw)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			filter.Bounds = &b
		}
		page, err := svc.List(c.Context(), filter)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(page)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.OwnerID = auth.UserID(c)
		req.OwnerName = auth.UserName(c)
		seg, err := svc.Create(c.Context(), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(seg)
	})

	// multipart upload: file, optional title
	r.Post("/import", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "gpx file is required")
		}
		if fh.Size > maxImportBytes {
			return fiber.NewError(fiber.StatusRequestEntityTooLarge, "gpx file too large")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		seg, err := svc.Import(c.Context(), ImportInput{
			Title:     c.FormValue("title"),
			GPXData:   string(data),
			OwnerID:   auth.UserID(c),
			OwnerName: auth.UserName(c),
		})
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(seg)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		seg, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(seg)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		seg, err := svc.Update(c.Context(), c.Params("id"), auth.UserID(c), req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(seg)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id"), auth.UserID(c)); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/vote", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Condition string `json:"condition"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		stats, err := svc.Vote(c.Context(), c.Params("id"), auth.UserID(c), auth.UserName(c), body.Condition)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{"stats": stats})
	})

	r.Get("/:id/stats", func(c *fiber.Ctx) error {
		summary, err := svc.Summary(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(summary)
	})

	r.Get("/:id/gpx", func(c *fiber.Ctx) error {
		seg, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		c.Set(fiber.HeaderContentType, "application/gpx+xml")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.gpx"`, fileName(seg.Metadata.Title)))
		return c.SendString(seg.GPXData)
	})

	r.Get("/:id/profile", func(c *fiber.Ctx) error {
		seg, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return chart.ElevationProfile(c, seg.Metadata.Title, seg.Metadata.ElevationProfile)
	})
}

// ParseBounds reads "minLng,minLat,maxLng,maxLat".
func ParseBounds(raw string) (Bounds, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Bounds{}, errors.New("bounds must be minLng,minLat,maxLng,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("bounds: %w", err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return Bounds{}, errors.New("bounds min must not exceed max")
	}
	return Bounds{MinLng: v[0], MinLat: v[1], MaxLng: v[2], MaxLat: v[3]}, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func fileName(title string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(title, "_"), "_")
	if name == "" {
		return "segment"
	}
	return name
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidCondition), errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidGeometry),
		errors.Is(err, ErrInvalidSurface), errors.Is(err, ErrInvalidProfile):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
