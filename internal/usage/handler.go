package usage

import (
	"context"
	"io"
	"time"

	"shiftcost-backend/internal/export"
	"shiftcost-backend/internal/shiftwindow"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Replacer stores an uploaded catalogue.
type Replacer interface {
	Replace(ctx context.Context, mappings []Mapping) error
}

// ProjectDate loads the catalogue and the items of date's window and
// projects them.
func ProjectDate(ctx context.Context, src ItemSource, prov Provider, date time.Time, loc *time.Location) (Projection, error) {
	w := shiftwindow.Resolve(date, loc)
	c, err := prov.Catalogue(ctx)
	if err != nil {
		return Projection{}, err
	}
	items, err := src.LineItems(ctx, w)
	if err != nil {
		return Projection{}, err
	}
	return Project(w, items, c), nil
}

// GET /api/usage?date=2025-03-14
func GetUsageHandler(src ItemSource, prov Provider, loc *time.Location, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.DateOrLast(c.Query("date"), time.Now(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := ProjectDate(c.UserContext(), src, prov, date, loc)
		if err != nil {
			log.Error("usage projection failed", zap.String("date", date.Format(shiftwindow.DateLayout)), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "Usage could not be computed")
		}
		if len(p.Unmapped) > 0 {
			log.Warn("unmapped POS items", zap.String("date", p.BusinessDate), zap.Strings("names", p.UnmappedNames()))
		}
		return c.JSON(p)
	}
}

// GET /api/usage/export.csv?date=2025-03-14
func ExportUsageCSVHandler(src ItemSource, prov Provider, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := shiftwindow.DateOrLast(c.Query("date"), time.Now(), loc)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := ProjectDate(c.UserContext(), src, prov, date, loc)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Usage could not be computed")
		}
		return export.Send(c, "burger-usage-"+p.BusinessDate+".csv", export.ContentTypeCSV, func(w io.Writer) error {
			return WriteCSV(w, p)
		})
	}
}

// PUT /api/usage/catalogue (multipart field "file", xlsx)
func UploadCatalogueHandler(store Replacer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "An xlsx file is required in field 'file'")
		}
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File could not be opened")
		}
		defer f.Close()

		mappings, skipped, err := ParseMappingsXLSX(f)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(mappings) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No product rows found")
		}
		if err := store.Replace(c.UserContext(), mappings); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"imported": len(mappings),
			"skipped":  skipped,
		})
	}
}
