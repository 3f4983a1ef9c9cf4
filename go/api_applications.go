package loanserver

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apphttpmapper "github.com/Apurer/auto-loan-origination/internal/domains/applications/adapters/http/mapper"
	"github.com/Apurer/auto-loan-origination/internal/domains/applications/application"
	apptypes "github.com/Apurer/auto-loan-origination/internal/domains/applications/application/types"
	appports "github.com/Apurer/auto-loan-origination/internal/domains/applications/ports"
	"github.com/Apurer/auto-loan-origination/internal/platform/auth"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry a create without opening a second draft.
const IdempotencyKeyHeader = "Idempotency-Key"

// ApplicationAPI wires HTTP transport with the applications bounded context service and workflows.
type ApplicationAPI struct {
	service   appports.Service
	workflows appports.WorkflowOrchestrator
	responder *apierrors.Responder
}

// NewApplicationAPI creates an ApplicationAPI. Creation goes through the
// workflow orchestrator when one is provided.
func NewApplicationAPI(service appports.Service, workflows appports.WorkflowOrchestrator, responder *apierrors.Responder) ApplicationAPI {
	return ApplicationAPI{service: service, workflows: workflows, responder: responder}
}

// Post /v1/applications
// Open a draft application
func (api *ApplicationAPI) CreateApplication(c *gin.Context) {
	var payload apphttpmapper.CreateApplication
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	input, err := apphttpmapper.ToCreateInput(payload)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	input.IdempotencyKey = strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	created, err := api.createApplication(c.Request.Context(), auth.ActorFrom(c), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+strconv.FormatInt(created.Entity.ID, 10))
	c.JSON(http.StatusCreated, apphttpmapper.FromProjection(created))
}

func (api *ApplicationAPI) createApplication(ctx context.Context, actor authz.Actor, input apptypes.CreateApplicationInput) (*apptypes.ApplicationProjection, error) {
	if api.workflows != nil {
		return api.workflows.CreateApplication(ctx, actor, input)
	}
	return api.service.CreateApplication(ctx, actor, input)
}

// Get /v1/applications
// List applications visible to the caller
func (api *ApplicationAPI) ListApplications(c *gin.Context) {
	var (
		statuses []string
		progress string
		ownerID  *int64
		number   string
		sortBy   string
		order    string
		page     int
		perPage  int
	)
	if !bindQuery(c, api.responder, "status", &statuses) ||
		!bindQuery(c, api.responder, "progress", &progress) ||
		!bindQuery(c, api.responder, "owner_id", &ownerID) ||
		!bindQuery(c, api.responder, "number", &number) ||
		!bindQuery(c, api.responder, "sort", &sortBy) ||
		!bindQuery(c, api.responder, "order", &order) ||
		!bindQuery(c, api.responder, "page", &page) ||
		!bindQuery(c, api.responder, "per_page", &perPage) {
		return
	}
	query := apptypes.ListApplicationsQuery{
		Statuses:     splitValues(statuses),
		Progress:     progress,
		OwnerID:      ownerID,
		NumberPrefix: number,
		SortBy:       sortBy,
		Descending:   !strings.EqualFold(order, "asc"),
		Page:         page,
		PerPage:      perPage,
	}
	result, err := api.service.ListApplications(c.Request.Context(), auth.ActorFrom(c), query)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromPage(result))
}

// Get /v1/applications/:id
// Find an application by id
func (api *ApplicationAPI) GetApplication(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	found, err := api.service.GetApplication(c.Request.Context(), auth.ActorFrom(c), apptypes.ApplicationIdentifier{ID: id})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromProjection(found))
}

// Patch /v1/applications/:id
// Update the sections of a draft
func (api *ApplicationAPI) UpdateApplication(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	var payload apphttpmapper.UpdateApplication
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, api.responder, err)
		return
	}
	input, err := apphttpmapper.ToUpdateInput(id, payload)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	updated, err := api.service.UpdateApplication(c.Request.Context(), auth.ActorFrom(c), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromProjection(updated))
}

// Delete /v1/applications/:id
// Delete an application with its documents and review
func (api *ApplicationAPI) DeleteApplication(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	if err := api.service.DeleteApplication(c.Request.Context(), auth.ActorFrom(c), apptypes.ApplicationIdentifier{ID: id}); err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/applications/:id/submit
// Submit a complete draft for review
func (api *ApplicationAPI) SubmitApplication(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	submitted, err := api.service.SubmitApplication(c.Request.Context(), auth.ActorFrom(c), apptypes.ApplicationIdentifier{ID: id})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromProjection(submitted))
}

// Post /v1/applications/:id/documents
// Upload a supporting document
func (api *ApplicationAPI) UploadDocument(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		api.responder.BadRequest(c, "multipart field \"file\" is required")
		return
	}
	if file.Size > application.MaxDocumentBytes {
		api.responder.Respond(c, apierrors.ErrPayloadTooLarge.WithDetail("document exceeds the upload limit"))
		return
	}
	src, err := file.Open()
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, application.MaxDocumentBytes+1))
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = file.Filename
	}
	input := apptypes.AttachDocumentInput{
		ApplicationID: id,
		Name:          name,
		Description:   c.PostForm("description"),
		ContentType:   file.Header.Get("Content-Type"),
		Data:          data,
	}
	updated, err := api.service.AttachDocument(c.Request.Context(), auth.ActorFrom(c), input)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apphttpmapper.FromProjection(updated))
}

// Delete /v1/applications/:id/documents/:documentId
// Remove a document and its stored file
func (api *ApplicationAPI) RemoveDocument(c *gin.Context) {
	id, ok := parseIDParam(c, api.responder, "id")
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, api.responder, "documentId")
	if !ok {
		return
	}
	updated, err := api.service.RemoveDocument(c.Request.Context(), auth.ActorFrom(c), apptypes.RemoveDocumentInput{
		ApplicationID: id,
		DocumentID:    documentID,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apphttpmapper.FromProjection(updated))
}

func splitValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
