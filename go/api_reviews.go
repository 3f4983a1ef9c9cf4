package loanserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apphttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/http/mapper"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
)

// Get /v1/applications/:id/review
// Read the reviewer checklist
func (api *ApplicationAPI) GetReview(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	review, err := api.service.GetReview(c.Request.Context(), auth.ActorFrom(c), apptypes.ApplicationIdentifier{ID: id})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromReviewProjection(review))
}

// Put /v1/applications/:id/review/completeness
// Set one completeness dimension
func (api *ApplicationAPI) SetReviewCompleteness(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	var payload apphttpmapper.SetCompleteness
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	review, err := api.service.SetReviewCompleteness(c.Request.Context(), auth.ActorFrom(c), apphttpmapper.ToCompletenessInput(id, payload))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromReviewProjection(review))
}

// Put /v1/applications/:id/review/notes
// Replace the reviewer notes
func (api *ApplicationAPI) SetReviewNotes(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	var payload apphttpmapper.Notes
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	review, err := api.service.SetReviewNotes(c.Request.Context(), auth.ActorFrom(c), apptypes.SetReviewNotesInput{
		ApplicationID: id,
		Notes:         payload.Notes,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromReviewProjection(review))
}

// Post /v1/applications/:id/request-documents
// Ask the applicant for more documents
func (api *ApplicationAPI) RequestDocuments(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	var payload apphttpmapper.Notes
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBindError(c, api.responder, err)
			return
		}
	}
	updated, err := api.service.RequestDocuments(c.Request.Context(), auth.ActorFrom(c), apptypes.RequestDocumentsInput{
		ApplicationID: id,
		Notes:         payload.Notes,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromProjection(updated))
}

// Post /v1/applications/:id/decision
// Record a reviewer disposition
func (api *ApplicationAPI) DecideApplication(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	var payload apphttpmapper.Decision
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	decided, err := api.service.DecideApplication(c.Request.Context(), auth.ActorFrom(c), apptypes.DecideApplicationInput{
		ApplicationID: id,
		Disposition:   payload.Disposition,
		Notes:         payload.Notes,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromProjection(decided))
}
