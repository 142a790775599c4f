// api/controller/access_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/util"
)

type AccessController struct {
	accessService service.IAccessService
}

func NewAccessController(accessService service.IAccessService) *AccessController {
	return &AccessController{
		accessService: accessService,
	}
}

// RegisterRoutes registers the API routes
func (ac *AccessController) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records/:id")
	{
		records.POST("/policies/:policyId", ac.AttachPolicy)
		records.DELETE("/policies/:policyId", ac.DetachPolicy)
		records.GET("/policies", ac.AttachedPolicies)
		records.GET("/access", ac.CheckRecordAccess)
	}
	r.POST("/policies/:id/evaluate", ac.EvaluatePolicy)
}

// AttachPolicy endpoint
func (ac *AccessController) AttachPolicy(c *gin.Context) {
	policyID, err := model.ParsePolicyID(c.Param("policyId"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy id", err)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	recordID := model.RecordID(c.Param("id"))
	if err := ac.accessService.AttachPolicy(c, recordID, policyID, callerID); err != nil {
		respondWithMappedError(c, err, "Failed to attach policy")
		return
	}

	c.Status(http.StatusNoContent)
}

// DetachPolicy endpoint
func (ac *AccessController) DetachPolicy(c *gin.Context) {
	policyID, err := model.ParsePolicyID(c.Param("policyId"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy id", err)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	recordID := model.RecordID(c.Param("id"))
	if err := ac.accessService.DetachPolicy(c, recordID, policyID, callerID); err != nil {
		respondWithMappedError(c, err, "Failed to detach policy")
		return
	}

	c.Status(http.StatusNoContent)
}

// AttachedPolicies endpoint
func (ac *AccessController) AttachedPolicies(c *gin.Context) {
	recordID := model.RecordID(c.Param("id"))
	policyIDs, err := ac.accessService.AttachedPolicies(c, recordID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to list attached policies")
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy_ids": policyIDs})
}

type evaluatePolicyRequest struct {
	Subject string `json:"subject" binding:"required"`
}

// EvaluatePolicy endpoint runs a single policy against a subject without
// touching any record. Evaluation aborts surface as errors here, unlike the
// record-level check where they collapse into indeterminate outcomes.
func (ac *AccessController) EvaluatePolicy(c *gin.Context) {
	policyID, err := model.ParsePolicyID(c.Param("id"))
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid policy id", err)
		return
	}
	var req evaluatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid evaluation request", echo_errors.ErrInvalidPolicyData)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	result, err := ac.accessService.EvaluatePolicy(c, policyID, req.Subject, callerID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to evaluate policy")
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// CheckRecordAccess endpoint
func (ac *AccessController) CheckRecordAccess(c *gin.Context) {
	subject := c.Query("subject")
	if subject == "" {
		util.RespondWithError(c, http.StatusBadRequest, "Missing subject", echo_errors.ErrInvalidRecordData)
		return
	}

	recordID := model.RecordID(c.Param("id"))
	decision, err := ac.accessService.CheckRecordAccess(c, recordID, subject)
	if err != nil {
		respondWithMappedError(c, err, "Failed to check record access")
		return
	}

	c.JSON(http.StatusOK, decision)
}
