// api/controller/policy_controller_test.go
package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testify_mock "github.com/stretchr/testify/mock"

	"github.com/choiwab/patient-x/api/controller"
	echo_errors "github.com/choiwab/patient-x/api/errors"
	"github.com/choiwab/patient-x/api/model"
	"github.com/choiwab/patient-x/api/test/mock"
)

const testCaller = "tester"

func testPolicyIDHex(suffix string) string {
	return strings.Repeat("0", 2*model.PolicyIDLength-len(suffix)) + suffix
}

func mustPolicyID(t *testing.T, suffix string) model.PolicyID {
	t.Helper()
	id, err := model.ParsePolicyID(testPolicyIDHex(suffix))
	require.NoError(t, err)
	return id
}

// newPolicyRouter builds a router with the caller already resolved, the way
// the caller middleware would have left it.
func newPolicyRouter(svc *mock.MockPolicyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("callerID", testCaller)
		c.Next()
	})
	group := r.Group("/api/v1")
	controller.NewPolicyController(svc).RegisterRoutes(group)
	return r
}

func performRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePolicyEndpoint(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)

	policy := model.Policy{
		Name:   "cardiology-staff",
		Effect: model.EffectAllow,
		Mode:   model.ModeAllOf,
		Conditions: []model.Condition{
			{Key: "role", Operator: model.OperatorEquals, Value: []byte("doctor")},
		},
	}
	created := policy
	created.ID = mustPolicyID(t, "1")
	created.Creator = testCaller
	created.Active = true

	svc.On("CreatePolicy", testify_mock.Anything, testify_mock.Anything, testCaller).
		Return(&created, nil).Once()

	w := performRequest(router, http.MethodPost, "/api/v1/policies", policy)
	assert.Equal(t, http.StatusCreated, w.Code)

	var got model.Policy
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, testCaller, got.Creator)
	svc.AssertExpectations(t)
}

func TestCreatePolicyEndpointConflict(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)

	svc.On("CreatePolicy", testify_mock.Anything, testify_mock.Anything, testCaller).
		Return(nil, echo_errors.ErrPolicyAlreadyExists).Once()

	w := performRequest(router, http.MethodPost, "/api/v1/policies", model.Policy{Name: "dup"})
	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestCreatePolicyEndpointBadBody(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/policies", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreatePolicy")
}

func TestCreatePolicyEndpointNoCaller(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := new(mock.MockPolicyService)
	r := gin.New()
	group := r.Group("/api/v1")
	controller.NewPolicyController(svc).RegisterRoutes(group)

	w := performRequest(r, http.MethodPost, "/api/v1/policies", model.Policy{Name: "p"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "CreatePolicy")
}

func TestSetPolicyStatusEndpoint(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)
	id := mustPolicyID(t, "1")

	t.Run("Ok", func(t *testing.T) {
		updated := model.Policy{ID: id, Name: "p", Active: false}
		svc.On("SetPolicyStatus", testify_mock.Anything, id, false, testCaller).
			Return(&updated, nil).Once()

		w := performRequest(router, http.MethodPut, "/api/v1/policies/"+testPolicyIDHex("1")+"/status",
			gin.H{"active": false})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("NotCreator", func(t *testing.T) {
		svc.On("SetPolicyStatus", testify_mock.Anything, id, true, testCaller).
			Return(nil, echo_errors.ErrNotAuthorized).Once()

		w := performRequest(router, http.MethodPut, "/api/v1/policies/"+testPolicyIDHex("1")+"/status",
			gin.H{"active": true})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("MalformedID", func(t *testing.T) {
		w := performRequest(router, http.MethodPut, "/api/v1/policies/not-hex/status",
			gin.H{"active": true})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	svc.AssertExpectations(t)
}

func TestDeletePolicyEndpoint(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)
	id := mustPolicyID(t, "1")

	t.Run("Ok", func(t *testing.T) {
		svc.On("DeletePolicy", testify_mock.Anything, id, testCaller).Return(nil).Once()
		w := performRequest(router, http.MethodDelete, "/api/v1/policies/"+testPolicyIDHex("1"), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		svc.On("DeletePolicy", testify_mock.Anything, id, testCaller).
			Return(echo_errors.ErrPolicyNotFound).Once()
		w := performRequest(router, http.MethodDelete, "/api/v1/policies/"+testPolicyIDHex("1"), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	svc.AssertExpectations(t)
}

func TestGetPolicyEndpoint(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)
	id := mustPolicyID(t, "1")

	svc.On("GetPolicy", testify_mock.Anything, id).
		Return(&model.Policy{ID: id, Name: "p"}, nil).Once()

	w := performRequest(router, http.MethodGet, "/api/v1/policies/"+testPolicyIDHex("1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var got model.Policy
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	svc.AssertExpectations(t)
}

func TestListPoliciesEndpoint(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)

	svc.On("ListPolicies", testify_mock.Anything, 5, 10).
		Return([]*model.Policy{{Name: "p"}}, nil).Once()

	w := performRequest(router, http.MethodGet, "/api/v1/policies?limit=5&offset=10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("BadPagination", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/api/v1/policies?limit=zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	svc.AssertExpectations(t)
}

func TestBulkCreatePoliciesEndpoint(t *testing.T) {
	svc := new(mock.MockPolicyService)
	router := newPolicyRouter(svc)

	ids := []model.PolicyID{mustPolicyID(t, "1"), mustPolicyID(t, "2")}
	svc.On("BulkCreatePolicies", testify_mock.Anything, testify_mock.Anything, testCaller).
		Return(ids, nil).Once()

	w := performRequest(router, http.MethodPost, "/api/v1/policies/bulk",
		[]model.Policy{{Name: "a"}, {Name: "b"}})
	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}
