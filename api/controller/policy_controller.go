// api/controller/policy_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/util"
	helper_util "github.com/choiwab/patient-x/api/util/helper"
)

type PolicyController struct {
	policyService service.IPolicyService
}

func NewPolicyController(policyService service.IPolicyService) *PolicyController {
	return &PolicyController{
		policyService: policyService,
	}
}

// RegisterRoutes registers the API routes
func (pc *PolicyController) RegisterRoutes(r *gin.RouterGroup) {
	policies := r.Group("/policies")
	{
		policies.POST("", pc.CreatePolicy)
		policies.POST("/bulk", pc.BulkCreatePolicies)
		policies.PUT("/:id/status", pc.SetPolicyStatus)
		policies.DELETE("/:id", pc.DeletePolicy)
		policies.GET("/:id", pc.GetPolicy)
		policies.GET("", pc.ListPolicies)
	}
}

// CreatePolicy endpoint
func (pc *PolicyController) CreatePolicy(c *gin.Context) {
	var policy model.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", echo_errors.ErrInvalidPolicyData)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	createdPolicy, err := pc.policyService.CreatePolicy(c, policy, callerID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to create policy")
		return
	}

	c.JSON(http.StatusCreated, createdPolicy)
}

// BulkCreatePolicies endpoint
func (pc *PolicyController) BulkCreatePolicies(c *gin.Context) {
	var policies []model.Policy
	if err := c.ShouldBindJSON(&policies); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy data", echo_errors.ErrInvalidPolicyData)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	policyIDs, err := pc.policyService.BulkCreatePolicies(c, policies, callerID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to bulk create policies")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"policy_ids": policyIDs})
}

type policyStatusRequest struct {
	Active bool `json:"active"`
}

// SetPolicyStatus endpoint
func (pc *PolicyController) SetPolicyStatus(c *gin.Context) {
	policyID, err := model.ParsePolicyID(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy id", err)
		return
	}
	var req policyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid status data", echo_errors.ErrInvalidPolicyData)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	updatedPolicy, err := pc.policyService.SetPolicyStatus(c, policyID, req.Active, callerID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to update policy status")
		return
	}

	c.JSON(http.StatusOK, updatedPolicy)
}

// DeletePolicy endpoint
func (pc *PolicyController) DeletePolicy(c *gin.Context) {
	policyID, err := model.ParsePolicyID(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy id", err)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	if err := pc.policyService.DeletePolicy(c, policyID, callerID); err != nil {
		respondWithMappedError(c, err, "Failed to delete policy")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPolicy endpoint
func (pc *PolicyController) GetPolicy(c *gin.Context) {
	policyID, err := model.ParsePolicyID(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy id", err)
		return
	}

	policy, err := pc.policyService.GetPolicy(c, policyID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to retrieve policy")
		return
	}

	c.JSON(http.StatusOK, policy)
}

// ListPolicies endpoint
func (pc *PolicyController) ListPolicies(c *gin.Context) {
	limit, offset, err := helper_util.GetPaginationParams(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid pagination parameters", echo_errors.ErrInvalidPagination)
		return
	}

	policies, err := pc.policyService.ListPolicies(c, limit, offset)
	if err != nil {
		respondWithMappedError(c, err, "Failed to list policies")
		return
	}

	c.JSON(http.StatusOK, policies)
}
