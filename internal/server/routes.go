package server

import (
	"strings"

	"shiftcost-backend/internal/audit"
	"shiftcost-backend/internal/auth"
	"shiftcost-backend/internal/costing"
	"shiftcost-backend/internal/forms"
	"shiftcost-backend/internal/ledger"
	"shiftcost-backend/internal/logging"
	"shiftcost-backend/internal/models"
	"shiftcost-backend/internal/pos"
	"shiftcost-backend/internal/reconcile"
	"shiftcost-backend/internal/shiftwindow"
	"shiftcost-backend/internal/tally"
	"shiftcost-backend/internal/usage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// App builds the Fiber app with every route under /api.
func (s *Services) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: logging.ErrorHandler(s.Log),
		BodyLimit:    10 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logging.RequestLogger(s.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.Config.Origins(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")
	db, loc, log := s.DB, s.Location, s.Log

	// Public auth
	api.Post("/auth/register-owner", auth.RegisterOwnerHandler(db))
	api.Post("/auth/login", auth.LoginHandler(db, s.Config.JWTSecret))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(s.Config.JWTSecret))
	owner := auth.RequireRole(models.RoleOwner)

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Get("/users", owner, auth.ListUsersHandler(db))
	protected.Post("/users/managers", owner, auth.CreateManagerHandler(db))

	// Shift window and burger usage
	protected.Get("/shift-window", shiftwindow.Handler(loc))
	protected.Get("/usage", usage.GetUsageHandler(s.POS, s.Catalogue, loc, log))
	protected.Get("/usage/export.csv", usage.ExportUsageCSVHandler(s.POS, s.Catalogue, loc))
	protected.Put("/usage/catalogue", owner, usage.UploadCatalogueHandler(s.Catalogue))

	// POS
	posDeps := pos.Handlers{Store: s.POS, Ledger: s.Ledger, Location: loc, Log: log}
	protected.Post("/pos/receipts", pos.CreateReceiptsHandler(posDeps))
	protected.Post("/pos/receipts/import", pos.ImportReceiptsHandler(posDeps))
	protected.Put("/pos/shifts/:date", pos.PutShiftHandler(posDeps))
	protected.Post("/pos/shifts/:date/derive", pos.DeriveShiftHandler(posDeps))

	// Shift form and manager review
	protected.Put("/forms/:date", forms.SaveFormHandler(s.Forms, s.Ledger, log))
	protected.Get("/forms/:date", forms.GetFormHandler(s.Forms))
	protected.Put("/reviews/:date", forms.SaveReviewHandler(s.Forms))

	// Reconciliation
	protected.Get("/reconciliation", reconcile.MonthHandler(s.Reconcile))
	protected.Get("/reconciliation/:date", reconcile.GetComparisonHandler(s.Reconcile, log))
	protected.Get("/reconciliation/:date/export.csv", reconcile.ExportCSVHandler(s.Reconcile))

	// Purchase tally and stock counts
	protected.Post("/purchases", tally.CreatePurchaseHandler(s.Tally, s.Ledger, log))
	protected.Get("/purchases", tally.ListPurchasesHandler(s.Tally))
	protected.Post("/stock-counts", tally.SaveStockCountHandler(s.Tally, s.Ledger, log))

	// Consumable ledger
	protected.Post("/ledger/rebuild", owner, ledger.RebuildHandler(s.Ledger, loc))
	protected.Get("/ledger/export.xlsx", ledger.ExportXLSXHandler(s.Ledger))
	protected.Post("/ledger/:date/:kind/refresh", ledger.RefreshHandler(s.Ledger))
	protected.Put("/ledger/:date/:kind/actual", ledger.RecordActualHandler(s.Ledger, db))
	protected.Get("/ledger/:kind/history", ledger.HistoryHandler(s.Ledger))
	protected.Get("/ledger/:kind/export.csv", ledger.ExportCSVHandler(s.Ledger))

	// Ingredients and recipes
	protected.Get("/ingredients", costing.ListIngredientsHandler(s.Costing))
	protected.Post("/ingredients", owner, costing.CreateIngredientHandler(s.Costing))
	protected.Put("/ingredients/:id", owner, costing.UpdateIngredientHandler(s.Costing))
	protected.Get("/recipes", costing.ListRecipesHandler(s.Costing))
	protected.Post("/recipes", owner, costing.CreateRecipeHandler(s.Costing))
	protected.Put("/recipes/:id", owner, costing.UpdateRecipeHandler(s.Costing))
	protected.Get("/recipes/:id/cost", costing.RecipeCostHandler(s.Costing))

	// Audit
	protected.Get("/audit-logs", audit.ListAuditLogsHandler(db))
	protected.Post("/audit-logs/:id/undo", owner, audit.UndoAuditLogHandler(db, tally.AfterUndo(s.Tally, s.Ledger), log))

	return app
}
