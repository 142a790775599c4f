// api/controller/access_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	testify_mock "github.com/stretchr/testify/mock"

	"github.com/choiwab/patient-x/api/controller"
	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	pdp_model "github.com/choiwab/patient-x/api/pdp/model"
	"github.com/choiwab/patient-x/api/test/mock"
)

func newAccessRouter(svc *mock.MockAccessService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("callerID", testCaller)
		c.Next()
	})
	group := r.Group("/api/v1")
	controller.NewAccessController(svc).RegisterRoutes(group)
	return r
}

func TestAttachPolicyEndpoint(t *testing.T) {
	svc := new(mock.MockAccessService)
	router := newAccessRouter(svc)
	id := mustPolicyID(t, "1")

	t.Run("Ok", func(t *testing.T) {
		svc.On("AttachPolicy", testify_mock.Anything, model.RecordID("rec-1"), id, testCaller).
			Return(nil).Once()
		w := performRequest(router, http.MethodPost,
			"/api/v1/records/rec-1/policies/"+testPolicyIDHex("1"), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("NonOwner", func(t *testing.T) {
		svc.On("AttachPolicy", testify_mock.Anything, model.RecordID("rec-1"), id, testCaller).
			Return(echo_errors.ErrNotAuthorized).Once()
		w := performRequest(router, http.MethodPost,
			"/api/v1/records/rec-1/policies/"+testPolicyIDHex("1"), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("RecordFull", func(t *testing.T) {
		svc.On("AttachPolicy", testify_mock.Anything, model.RecordID("rec-1"), id, testCaller).
			Return(echo_errors.ErrTooManyPolicies).Once()
		w := performRequest(router, http.MethodPost,
			"/api/v1/records/rec-1/policies/"+testPolicyIDHex("1"), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("MalformedPolicyID", func(t *testing.T) {
		w := performRequest(router, http.MethodPost,
			"/api/v1/records/rec-1/policies/xyz", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	svc.AssertExpectations(t)
}

func TestDetachPolicyEndpoint(t *testing.T) {
	svc := new(mock.MockAccessService)
	router := newAccessRouter(svc)
	id := mustPolicyID(t, "1")

	svc.On("DetachPolicy", testify_mock.Anything, model.RecordID("rec-1"), id, testCaller).
		Return(nil).Once()
	w := performRequest(router, http.MethodDelete,
		"/api/v1/records/rec-1/policies/"+testPolicyIDHex("1"), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestAttachedPoliciesEndpoint(t *testing.T) {
	svc := new(mock.MockAccessService)
	router := newAccessRouter(svc)
	ids := []model.PolicyID{mustPolicyID(t, "1"), mustPolicyID(t, "2")}

	svc.On("AttachedPolicies", testify_mock.Anything, model.RecordID("rec-1")).
		Return(ids, nil).Once()

	w := performRequest(router, http.MethodGet, "/api/v1/records/rec-1/policies", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		PolicyIDs []model.PolicyID `json:"policy_ids"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.PolicyIDs, 2)
	svc.AssertExpectations(t)
}

func TestEvaluatePolicyEndpoint(t *testing.T) {
	svc := new(mock.MockAccessService)
	router := newAccessRouter(svc)
	id := mustPolicyID(t, "1")

	t.Run("Allow", func(t *testing.T) {
		svc.On("EvaluatePolicy", testify_mock.Anything, id, "alice", testCaller).
			Return(pdp_model.ResultAllow, nil).Once()

		w := performRequest(router, http.MethodPost,
			"/api/v1/policies/"+testPolicyIDHex("1")+"/evaluate", gin.H{"subject": "alice"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "allow")
	})

	t.Run("MissingAttribute", func(t *testing.T) {
		svc.On("EvaluatePolicy", testify_mock.Anything, id, "bob", testCaller).
			Return(pdp_model.EvaluationResult(""), echo_errors.ErrAttributeNotFound).Once()

		w := performRequest(router, http.MethodPost,
			"/api/v1/policies/"+testPolicyIDHex("1")+"/evaluate", gin.H{"subject": "bob"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		w := performRequest(router, http.MethodPost,
			"/api/v1/policies/"+testPolicyIDHex("1")+"/evaluate", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	svc.AssertExpectations(t)
}

func TestCheckRecordAccessEndpoint(t *testing.T) {
	svc := new(mock.MockAccessService)
	router := newAccessRouter(svc)

	t.Run("Granted", func(t *testing.T) {
		svc.On("CheckRecordAccess", testify_mock.Anything, model.RecordID("rec-1"), "bob").
			Return(&pdp_model.AccessDecision{Granted: true, EvaluatedAt: 7}, nil).Once()

		w := performRequest(router, http.MethodGet, "/api/v1/records/rec-1/access?subject=bob", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var decision pdp_model.AccessDecision
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
		assert.True(t, decision.Granted)
		assert.Equal(t, uint64(7), decision.EvaluatedAt)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/records/rec-1/access", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CheckRecordAccess")
	})

	svc.AssertExpectations(t)
}
