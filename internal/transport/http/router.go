package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wieeerzbickim/community-feast/internal/auth"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/handler"
	"github.com/wieeerzbickim/community-feast/internal/transport/http/middleware"
	"github.com/wieeerzbickim/community-feast/pkg/identity"
)

type Handlers struct {
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Review   *handler.ReviewHandler
	Producer *handler.ProducerHandler
	Settings *handler.SettingsHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, verifier *identity.Verifier) {
	// Public catalog reads.
	app.Get("/products", h.Catalog.List)
	app.Get("/products/:id", h.Catalog.FindByID)
	app.Get("/producers/:producerId", h.Producer.GetProfile)
	app.Get("/producers/:producerId/reviews", h.Review.ListByProducer)

	api := app.Group("/api", middleware.NewAuthMiddleware(verifier))

	cart := api.Group("/cart", middleware.RequireAction(auth.ActionUseCart))
	cart.Get("", h.Cart.Get)
	cart.Post("/items", h.Cart.AddItem)
	cart.Put("/items/:productId", h.Cart.SetQuantity)
	cart.Delete("/items/:productId", h.Cart.RemoveItem)
	cart.Delete("", h.Cart.Clear)

	orders := api.Group("/orders")
	orders.Post("", middleware.RequireAction(auth.ActionPlaceOrder), h.Order.Checkout)
	orders.Get("", middleware.RequireAction(auth.ActionViewOwnOrders), h.Order.ListMine)
	orders.Get("/:id", h.Order.GetByID)
	orders.Post("/:id/confirm", middleware.RequireAction(auth.ActionFulfillOrders), h.Order.Confirm)
	orders.Post("/:id/decline", middleware.RequireAction(auth.ActionFulfillOrders), h.Order.Decline)
	orders.Post("/:id/complete", middleware.RequireAction(auth.ActionFulfillOrders), h.Order.Complete)

	reviews := api.Group("/reviews", middleware.RequireAction(auth.ActionSubmitReview))
	reviews.Post("", h.Review.Submit)

	producer := api.Group("/producer", middleware.RequireAction(auth.ActionViewProducerOps))
	producer.Get("/dashboard", h.Producer.GetDashboard)

	products := api.Group("/products", middleware.RequireAction(auth.ActionManageProducts))
	products.Post("", h.Catalog.Create)
	products.Get("/mine", h.Catalog.ListMine)
	products.Patch("/:id", h.Catalog.Update)
	products.Delete("/:id", h.Catalog.Delete)
	products.Post("/:id/images", middleware.RequireAction(auth.ActionUploadImages), h.Producer.UploadImage)

	admin := api.Group("/admin", middleware.RequireAction(auth.ActionManagePlatform))
	admin.Get("/settings", h.Settings.Get)
	admin.Put("/settings", h.Settings.Update)
}
