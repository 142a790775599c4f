// api/controller/controllers.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/util"
)

type Controllers struct {
	Policy    *PolicyController
	Attribute *AttributeController
	Access    *AccessController
	Record    *RecordController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Policy:    NewPolicyController(services.Policy),
		Attribute: NewAttributeController(services.Attribute),
		Access:    NewAccessController(services.Access),
		Record:    NewRecordController(services.Record),
	}
}

// respondWithMappedError translates domain errors into HTTP statuses. Every
// controller shares one mapping so a sentinel never means two different
// statuses depending on the route.
func respondWithMappedError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, echo_errors.ErrPolicyNotFound),
		errors.Is(err, echo_errors.ErrAttributeNotFound),
		errors.Is(err, echo_errors.ErrRecordNotFound):
		util.RespondWithError(c, http.StatusNotFound, message, err)
	case errors.Is(err, echo_errors.ErrPolicyAlreadyExists):
		util.RespondWithError(c, http.StatusConflict, message, err)
	case errors.Is(err, echo_errors.ErrTooManyConditions),
		errors.Is(err, echo_errors.ErrTooManyAttributes),
		errors.Is(err, echo_errors.ErrTooManyPolicies),
		errors.Is(err, echo_errors.ErrCapacityExceeded):
		util.RespondWithError(c, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, echo_errors.ErrNotAuthorized):
		util.RespondWithError(c, http.StatusForbidden, message, err)
	case errors.Is(err, echo_errors.ErrUnauthorized):
		util.RespondWithError(c, http.StatusUnauthorized, message, err)
	case errors.Is(err, echo_errors.ErrInvalidPolicyData),
		errors.Is(err, echo_errors.ErrInvalidAttributeData),
		errors.Is(err, echo_errors.ErrInvalidRecordData),
		errors.Is(err, echo_errors.ErrInvalidPolicyID),
		errors.Is(err, echo_errors.ErrInvalidEffect),
		errors.Is(err, echo_errors.ErrInvalidMode),
		errors.Is(err, echo_errors.ErrInvalidOperator),
		errors.Is(err, echo_errors.ErrInvalidAttributeType),
		errors.Is(err, echo_errors.ErrInvalidPagination):
		util.RespondWithError(c, http.StatusBadRequest, message, err)
	case errors.Is(err, echo_errors.ErrAttributeExpired):
		util.RespondWithError(c, http.StatusConflict, message, err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, message, err)
	}
}
