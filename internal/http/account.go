package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/auth"
	"github.com/clipshelf/clipshelf/internal/migration"
)

// AccountController exposes session state and the migration hooks.
type AccountController struct {
	provider    *auth.Provider
	coordinator *migration.Coordinator
}

func NewAccountController(provider *auth.Provider, coordinator *migration.Coordinator) *AccountController {
	return &AccountController{provider: provider, coordinator: coordinator}
}

type sessionResponse struct {
	UserID    string `json:"userId,omitempty"`
	Anonymous bool   `json:"anonymous,omitempty"`
	SignedIn  bool   `json:"signedIn"`
}

func (ac *AccountController) GetSession(c *gin.Context) {
	st := ac.provider.CurrentState()
	c.JSON(http.StatusOK, sessionResponse{
		UserID:    st.UserID,
		Anonymous: st.Anonymous,
		SignedIn:  st.SignedIn(),
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn authenticates with the hosted provider. The migration coordinator
// reacts to the resulting transition before this returns.
func (ac *AccountController) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if err := ac.provider.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		respondInternalError(c, "sign in", err)
		return
	}
	ac.GetSession(c)
}

func (ac *AccountController) SignInAnonymously(c *gin.Context) {
	if err := ac.provider.SignInAnonymously(c.Request.Context()); err != nil {
		respondInternalError(c, "sign in", err)
		return
	}
	ac.GetSession(c)
}

func (ac *AccountController) SignOut(c *gin.Context) {
	if err := ac.provider.SignOut(c.Request.Context()); err != nil {
		respondInternalError(c, "sign out", err)
		return
	}
	ac.GetSession(c)
}

type migrateResponse struct {
	Report   migration.Report     `json:"report"`
	Progress []migration.Progress `json:"progress"`
}

// Migrate runs the configured migration strategy on demand and returns the
// final report along with the progress snapshots it produced.
func (ac *AccountController) Migrate(c *gin.Context) {
	var snapshots []migration.Progress
	report, err := ac.coordinator.MigrateLocalToRemote(c.Request.Context(), func(p migration.Progress) {
		snapshots = append(snapshots, p)
	})
	if err != nil {
		respondInternalError(c, "migrate data", err)
		return
	}
	c.JSON(http.StatusOK, migrateResponse{Report: report, Progress: snapshots})
}

// ClearLocalData wipes the local store's keys.
func (ac *AccountController) ClearLocalData(c *gin.Context) {
	if err := ac.coordinator.ClearLocalData(c.Request.Context()); err != nil {
		respondInternalError(c, "clear local data", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "local data cleared"})
}
