package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/books"
	"github.com/clipshelf/clipshelf/internal/storage"
)

// BooksController serves the library screens' book operations.
type BooksController struct {
	store   *storage.Service
	service *books.Service
}

func NewBooksController(store *storage.Service, service *books.Service) *BooksController {
	return &BooksController{store: store, service: service}
}

func (bc *BooksController) GetAllBooks(c *gin.Context) {
	list, err := bc.store.GetAllBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, "list books", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (bc *BooksController) GetBook(c *gin.Context) {
	book, err := bc.store.GetBookByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondInternalError(c, "load book", err)
		return
	}
	if book == nil {
		respondNotFound(c, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

type createBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// CreateBook adds a manually entered book.
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.service.AddManualBook(c.Request.Context(), req.Title, req.Author)
	if err != nil {
		if errors.Is(err, books.ErrEmptyTitle) {
			respondBadRequest(c, "title must not be empty")
			return
		}
		respondInternalError(c, "save book", err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

type lookupBookRequest struct {
	ISBN string `json:"isbn"`
}

// LookupBook resolves an ISBN (from a barcode scan or manual entry) to a
// saved book, deduplicating through the active backend.
func (bc *BooksController) LookupBook(c *gin.Context) {
	var req lookupBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := bc.service.SearchAndSaveBook(c.Request.Context(), req.ISBN)
	if err != nil {
		if errors.Is(err, books.ErrInvalidISBN) {
			respondBadRequest(c, "invalid ISBN")
			return
		}
		respondInternalError(c, "look up book", err)
		return
	}
	status := http.StatusCreated
	if result.IsExisting {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

type updateBookRequest struct {
	Title      *string `json:"title"`
	Author     *string `json:"author"`
	CoverImage *string `json:"coverImage"`
	ISBN       *string `json:"isbn"`
}

// UpdateBook patches the named fields of an existing book.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.service.EditBook(c.Request.Context(), c.Param("id"), storage.BookPatch{
		Title:      req.Title,
		Author:     req.Author,
		CoverImage: req.CoverImage,
		ISBN:       req.ISBN,
	})
	if err != nil {
		if errors.Is(err, books.ErrEmptyTitle) {
			respondBadRequest(c, "title must not be empty")
			return
		}
		respondInternalError(c, "update book", err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook removes the book and cascades deletion of its clips.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	if err := bc.store.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		respondInternalError(c, "delete book", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "book deleted"})
}

// GetLastClipBook returns the most recently clipped book, used to
// pre-populate the add-clip flow. 404 when no clip was ever saved.
func (bc *BooksController) GetLastClipBook(c *gin.Context) {
	book, err := bc.store.GetLastClipBook(c.Request.Context())
	if err != nil {
		respondInternalError(c, "load last clipped book", err)
		return
	}
	if book == nil {
		respondNotFound(c, "last clipped book")
		return
	}
	c.JSON(http.StatusOK, book)
}
