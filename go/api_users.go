package loanserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/users/adapters/http/mapper"
	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	userports "github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

// UserAPI implements the user and token endpoints.
type UserAPI struct {
	service   userports.Service
	responder *apierrors.Responder
}

// NewUserAPI wires dependencies.
func NewUserAPI(service userports.Service, responder *apierrors.Responder) UserAPI {
	return UserAPI{service: service, responder: responder}
}

// Post /v1/users
// Register a customer account
func (api *UserAPI) RegisterUser(c *gin.Context) {
	var payload userhttpmapper.Registration
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	created, err := api.service.Register(c.Request.Context(), userhttpmapper.ToRegisterInput(payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, userhttpmapper.FromProjection(created))
}

// Post /v1/auth/token
// Exchange credentials for a bearer token
func (api *UserAPI) IssueToken(c *gin.Context) {
	var payload userhttpmapper.Credentials
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	token, err := api.service.Authenticate(c.Request.Context(), userhttpmapper.ToCredentials(payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromToken(token))
}

// Post /v1/auth/logout
// Revoke the token used for this request
func (api *UserAPI) Logout(c *gin.Context) {
	if err := api.service.Logout(c.Request.Context(), auth.ActorFrom(c), auth.TokenIDFrom(c)); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get /v1/users
// List users
func (api *UserAPI) ListUsers(c *gin.Context) {
	users, err := api.service.List(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromProjections(users))
}

// Get /v1/users/:id
// Get user by id
func (api *UserAPI) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	user, err := api.service.Get(c.Request.Context(), auth.ActorFrom(c), usertypes.UserIdentifier{ID: id})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userhttpmapper.FromProjection(user))
}

// Delete /v1/users/:id
// Delete a user together with their applications
func (api *UserAPI) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), auth.ActorFrom(c), usertypes.UserIdentifier{ID: id}); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
