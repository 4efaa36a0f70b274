package http

import (
	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/auth"
	"github.com/clipshelf/clipshelf/internal/books"
	"github.com/clipshelf/clipshelf/internal/kvstore"
	"github.com/clipshelf/clipshelf/internal/migration"
	"github.com/clipshelf/clipshelf/internal/storage"
)

// RouterConfig receives all handler dependencies, improving testability and
// reducing parameter count.
type RouterConfig struct {
	Store        *storage.Service
	BooksService *books.Service
	Extractor    TextExtractor
	AuthProvider *auth.Provider
	Coordinator  *migration.Coordinator
	KV           *kvstore.Store
	Version      string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.KV, cfg.Version)
	router.GET("/health", healthController.Status)

	api := router.Group("/api")

	booksController := NewBooksController(cfg.Store, cfg.BooksService)
	api.GET("/books", booksController.GetAllBooks)
	api.POST("/books", booksController.CreateBook)
	api.POST("/books/lookup", booksController.LookupBook)
	api.GET("/books/last-clipped", booksController.GetLastClipBook)
	api.GET("/books/:id", booksController.GetBook)
	api.PATCH("/books/:id", booksController.UpdateBook)
	api.DELETE("/books/:id", booksController.DeleteBook)

	clipsController := NewClipsController(cfg.Store, cfg.BooksService)
	api.GET("/clips", clipsController.GetClips)
	api.POST("/clips", clipsController.CreateClip)
	api.GET("/clips/:id", clipsController.GetClip)
	api.PUT("/clips/:id", clipsController.UpdateClip)
	api.DELETE("/clips/:id", clipsController.DeleteClip)

	if cfg.Extractor != nil {
		captureController := NewCaptureController(cfg.Extractor)
		api.POST("/capture", captureController.Extract)
	}

	if cfg.AuthProvider != nil && cfg.Coordinator != nil {
		accountController := NewAccountController(cfg.AuthProvider, cfg.Coordinator)
		api.GET("/auth/session", accountController.GetSession)
		api.POST("/auth/sign-in", accountController.SignIn)
		api.POST("/auth/anonymous", accountController.SignInAnonymously)
		api.POST("/auth/sign-out", accountController.SignOut)
		api.POST("/migrate", accountController.Migrate)
		api.POST("/local-data/clear", accountController.ClearLocalData)
	}

	return router
}
