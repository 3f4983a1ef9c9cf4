package loanserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
)

// Handlers groups the endpoint implementations mounted by NewRouter.
type Handlers struct {
	Applications ApplicationAPI
	Users        UserAPI
}

// NewRouter registers every route under /v1. authn guards all routes except
// registration, token issuance and the health probe. middleware runs first on
// every route.
func NewRouter(handlers Handlers, authn gin.HandlerFunc, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware...)
	router.MaxMultipartMemory = application.MaxDocumentBytes

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.POST("/users", handlers.Users.RegisterUser)
	v1.POST("/auth/token", handlers.Users.IssueToken)

	secured := v1.Group("")
	secured.Use(authn)
	secured.POST("/auth/logout", handlers.Users.Logout)
	secured.GET("/users", handlers.Users.ListUsers)
	secured.GET("/users/:id", handlers.Users.GetUser)
	secured.DELETE("/users/:id", handlers.Users.DeleteUser)

	apps := secured.Group("/applications")
	apps.POST("", handlers.Applications.CreateApplication)
	apps.GET("", handlers.Applications.ListApplications)
	apps.GET("/:id", handlers.Applications.GetApplication)
	apps.PATCH("/:id", handlers.Applications.UpdateApplication)
	apps.DELETE("/:id", handlers.Applications.DeleteApplication)
	apps.POST("/:id/submit", handlers.Applications.SubmitApplication)
	apps.GET("/:id/review", handlers.Applications.GetReview)
	apps.PUT("/:id/review/completeness", handlers.Applications.SetReviewCompleteness)
	apps.PUT("/:id/review/notes", handlers.Applications.SetReviewNotes)
	apps.POST("/:id/request-documents", handlers.Applications.RequestDocuments)
	apps.POST("/:id/decision", handlers.Applications.DecideApplication)
	apps.POST("/:id/documents", handlers.Applications.UploadDocument)
	apps.DELETE("/:id/documents/:documentId", handlers.Applications.RemoveDocument)

	return router
}
