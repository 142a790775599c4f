// api/controller/attribute_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/util"
)

type AttributeController struct {
	attributeService service.IAttributeService
}

func NewAttributeController(attributeService service.IAttributeService) *AttributeController {
	return &AttributeController{
		attributeService: attributeService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AttributeController) RegisterRoutes(r *gin.RouterGroup) {
	attributes := r.Group("/subjects/:subject/attributes")
	{
		attributes.PUT("/:key", ac.AssignAttribute)
		attributes.DELETE("/:key", ac.RevokeAttribute)
		attributes.GET("/:key", ac.GetAttribute)
		attributes.GET("", ac.ListAttributes)
	}
}

type assignAttributeRequest struct {
	Value     []byte              `json:"value"`
	Type      model.AttributeType `json:"type"`
	ExpiresAt *uint64             `json:"expires_at,omitempty"`
}

// AssignAttribute endpoint
func (ac *AttributeController) AssignAttribute(c *gin.Context) {
	var req assignAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid attribute data", echo_errors.ErrInvalidAttributeData)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	attribute := model.Attribute{
		Subject:   c.Param("subject"),
		Key:       c.Param("key"),
		Value:     req.Value,
		Type:      req.Type,
		ExpiresAt: req.ExpiresAt,
	}

	assigned, err := ac.attributeService.AssignAttribute(c, attribute, callerID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to assign attribute")
		return
	}

	c.JSON(http.StatusOK, assigned)
}

// RevokeAttribute endpoint
func (ac *AttributeController) RevokeAttribute(c *gin.Context) {
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	if err := ac.attributeService.RevokeAttribute(c, c.Param("subject"), c.Param("key"), callerID); err != nil {
		respondWithMappedError(c, err, "Failed to revoke attribute")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAttribute endpoint
func (ac *AttributeController) GetAttribute(c *gin.Context) {
	attribute, err := ac.attributeService.GetAttribute(c, c.Param("subject"), c.Param("key"))
	if err != nil {
		respondWithMappedError(c, err, "Failed to retrieve attribute")
		return
	}

	c.JSON(http.StatusOK, attribute)
}

// ListAttributes endpoint
func (ac *AttributeController) ListAttributes(c *gin.Context) {
	attributes, err := ac.attributeService.ListAttributes(c, c.Param("subject"))
	if err != nil {
		respondWithMappedError(c, err, "Failed to list attributes")
		return
	}

	c.JSON(http.StatusOK, attributes)
}
