package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Availability *AvailabilityHandler
	Pricing      *PricingHandler
	Requests     *RequestHandler
	Offers       *OfferHandler
}

// RegisterRoutes mounts the API on v1. Every route requires a caller id;
// write routes additionally run the given middlewares (idempotency).
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers, auth gin.HandlerFunc, writes ...gin.HandlerFunc) {
	api := v1.Group("")
	api.Use(auth)

	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc(nil), writes...), handler)
	}

	api.POST("/availability/check", h.Availability.CheckAvailability)

	pricing := api.Group("/pricing")
	{
		pricing.POST("/calculate", h.Pricing.CalculatePrice)
		pricing.GET("/config", h.Pricing.GetPricingConfig)
		pricing.PUT("/config", write(h.Pricing.UpdatePricingConfig)...)
	}

	requests := api.Group("/requests")
	{
		requests.POST("", write(h.Requests.CreateRequest)...)
		requests.GET("/:id", h.Requests.GetRequest)

		requests.POST("/:id/offers", write(h.Offers.CreateOffer)...)
		requests.GET("/:id/offers", h.Offers.ListOffers)
		requests.POST("/:id/accept", write(h.Offers.AcceptRequest)...)

		requests.POST("/:id/start", write(h.Requests.StartEvent)...)
		requests.POST("/:id/complete", write(h.Requests.CompleteEvent)...)
		requests.GET("/:id/event-status", h.Requests.GetEventStatus)

		requests.POST("/:id/cancel", write(h.Requests.CancelRequest)...)
		requests.GET("/:id/penalty", h.Requests.PreviewPenalty)
	}

	offers := api.Group("/offers")
	{
		offers.POST("/:id/select", write(h.Offers.SelectOffer)...)
		offers.POST("/:id/reject", write(h.Offers.RejectOffer)...)
	}
}
