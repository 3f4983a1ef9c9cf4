package loanserver

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/Apurer/auto-loan-origination/internal/shared/errors"
)

// parseIDParam binds a required integer path parameter, answering 400 when it is malformed.
func parseIDParam(c *gin.Context, responder *apierrors.Responder, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Required:      true,
	})
	if err != nil || id <= 0 {
		responder.BadRequest(c, fmt.Sprintf("invalid %s path parameter", name))
		return 0, false
	}
	return id, true
}

// bindQuery binds an optional form-style query parameter.
func bindQuery(c *gin.Context, responder *apierrors.Responder, name string, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, false, name, c.Request.URL.Query(), dest); err != nil {
		responder.BadRequest(c, fmt.Sprintf("invalid %s query parameter", name))
		return false
	}
	return true
}

// respondBindError answers a payload that could not be decoded.
func respondBindError(c *gin.Context, responder *apierrors.Responder, err error) {
	responder.BadRequest(c, "malformed request body: "+err.Error())
}
