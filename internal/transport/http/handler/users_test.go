package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agribiz-identity/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserList_RoleRequired(t *testing.T) {
	rr := httptest.NewRecorder()
	NewUserHandler(&mockProfileSvc{}).List(rr, httptest.NewRequest(http.MethodGet, "/v1/users", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserList_Page(t *testing.T) {
	svc := &mockProfileSvc{}
	svc.On("ListByRole", mock.Anything, domain.RoleFarmer, 10, "abc").
		Return([]domain.UserInfo{{ID: "f1"}, {ID: "f2"}}, "def", nil)
	rr := httptest.NewRecorder()
	NewUserHandler(svc).List(rr, httptest.NewRequest(http.MethodGet, "/v1/users?role=FARMER&limit=10&cursor=abc", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var env UsersPageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	assert.Len(t, env.Data, 2)
	assert.Equal(t, "def", env.NextCursor)
}

func TestUserList_UnexpectedError_Is500(t *testing.T) {
	svc := &mockProfileSvc{}
	svc.On("ListByRole", mock.Anything, domain.RoleBuyer, 0, "").Return(nil, "", errors.New("throttled"))
	rr := httptest.NewRecorder()
	NewUserHandler(svc).List(rr, httptest.NewRequest(http.MethodGet, "/v1/users?role=BUYER", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decodeMsg(t, rr).Error)
}
