package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	authsvc "github.com/arjunmehta/tradejournal/internal/services/auth"
	ordersvc "github.com/arjunmehta/tradejournal/internal/services/orders"
	subsvc "github.com/arjunmehta/tradejournal/internal/services/subscriptions"
	tradesvc "github.com/arjunmehta/tradejournal/internal/services/trades"
	"github.com/arjunmehta/tradejournal/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService         *authsvc.Service
	SubscriptionService *subsvc.Service
	OrderService        *ordersvc.Service
	TradeService        *tradesvc.Service
	UserStore           subsvc.UserStore
	ReviewPublisher     handlers.ReviewPublisher
	Logger              *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	tradeHandler := handlers.NewTradeHandler(deps.TradeService)
	orderHandler := handlers.NewOrderHandler(deps.OrderService, deps.ReviewPublisher, deps.Logger)
	webhookHandler := handlers.NewWebhookHandler(deps.OrderService, deps.Logger)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.SubscriptionService, deps.UserStore)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
	})

	r.Post("/webhooks/{provider}", webhookHandler.Handle)

	r.Group(func(r chi.Router) {
		r.Use(authMW)

		r.Route("/trades", func(r chi.Router) {
			r.Post("/", tradeHandler.Create)
			r.Get("/", tradeHandler.List)
			r.Get("/{tradeID}", tradeHandler.Get)
			r.Put("/{tradeID}", tradeHandler.Update)
			r.Delete("/{tradeID}", tradeHandler.Delete)
			r.Post("/{tradeID}/screenshot", tradeHandler.UploadScreenshot)
		})

		r.Get("/dashboard", tradeHandler.Dashboard)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/checkout", orderHandler.Checkout)
			r.Get("/", orderHandler.List)
			r.Get("/{orderID}", orderHandler.Get)
		})

		r.Get("/me/subscription", subscriptionHandler.Me)
	})
}
