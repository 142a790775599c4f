// api/controller/record_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/util"
)

type RecordController struct {
	recordService service.IRecordService
}

func NewRecordController(recordService service.IRecordService) *RecordController {
	return &RecordController{
		recordService: recordService,
	}
}

// RegisterRoutes registers the API routes
func (rc *RecordController) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/records")
	{
		records.POST("", rc.RegisterRecord)
		records.GET("/:id", rc.GetRecord)
	}
}

// RegisterRecord endpoint
func (rc *RecordController) RegisterRecord(c *gin.Context) {
	var record model.HealthRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid record data", echo_errors.ErrInvalidRecordData)
		return
	}
	callerID, err := util.GetCallerIDFromContext(c)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Unauthorized", echo_errors.ErrUnauthorized)
		return
	}

	registered, err := rc.recordService.RegisterRecord(c, record, callerID)
	if err != nil {
		respondWithMappedError(c, err, "Failed to register record")
		return
	}

	c.JSON(http.StatusCreated, registered)
}

// GetRecord endpoint
func (rc *RecordController) GetRecord(c *gin.Context) {
	record, err := rc.recordService.GetRecord(c, model.RecordID(c.Param("id")))
	if err != nil {
		respondWithMappedError(c, err, "Failed to retrieve record")
		return
	}

	c.JSON(http.StatusOK, record)
}
