package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitledger/splitledger/internal/auth"
	"github.com/splitledger/splitledger/internal/middleware"
	"github.com/splitledger/splitledger/internal/storage"
)

// Router assembles the HTTP API.
func Router(store storage.Store, authenticator *auth.PasswordAuthenticator, jwtManager *auth.JWTManager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := NewAuthHandler(authenticator, jwtManager)
	activityHandler := NewActivityHandler(store)
	expenseHandler := NewExpenseHandler(store)
	balanceHandler := NewBalanceHandler(store)

	api := r.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("", middleware.RequireAuth(jwtManager))

	protected.POST("/activities", activityHandler.Create)
	protected.GET("/activities", activityHandler.List)
	protected.GET("/activities/:activityID", activityHandler.Get)
	protected.DELETE("/activities/:activityID", activityHandler.Delete)
	protected.POST("/activities/:activityID/participants", activityHandler.AddParticipant)
	protected.GET("/activities/:activityID/participants", activityHandler.ListParticipants)
	protected.DELETE("/activities/:activityID/participants/:userID", activityHandler.RemoveParticipant)

	protected.POST("/activities/:activityID/expenses", expenseHandler.Create)
	protected.GET("/activities/:activityID/expenses", expenseHandler.List)
	protected.GET("/expenses/:expenseID", expenseHandler.Detail)
	protected.PATCH("/expenses/:expenseID", expenseHandler.Update)
	protected.PUT("/expenses/:expenseID/payer", expenseHandler.SetPayer)
	protected.POST("/expenses/:expenseID/payments", expenseHandler.MarkPayment)
	protected.DELETE("/expenses/:expenseID", expenseHandler.Delete)

	protected.GET("/activities/:activityID/balance", balanceHandler.Activity)
	protected.GET("/balance", balanceHandler.Detailed)
	protected.GET("/balance/with/:userID", balanceHandler.With)
	protected.GET("/balance/global", balanceHandler.Global)

	return r
}
