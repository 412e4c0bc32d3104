package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the gin router with all routes and
// middleware.
func SetupRouter(handler *Handler, ginMode string) *gin.Engine {
	gin.SetMode(ginMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(RequestIDMiddleware())

	router.GET("/health", handler.Health)

	// Gateway callback. No auth: security is the secure-hash check.
	router.GET("/payment/vnpay-return", handler.VNPayReturn)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/checkout", handler.CreateCheckout)
		v1.GET("/payments/:userId", handler.ListPayments)
		v1.GET("/revenue/:month", handler.Revenue)
	}

	return router
}
