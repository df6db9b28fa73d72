package handler_test

import (
	"net/http"
	"testing"

	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// httptest requests originate from this address
const testClientIP = "192.0.2.1"

type AdminHandlerIntegrationTestSuite struct {
	apiSuite

	admin      *models.User
	adminToken string
	user       *models.User
	userToken  string
}

func (s *AdminHandlerIntegrationTestSuite) SetupTest() {
	s.apiSuite.SetupTest()

	s.admin, s.adminToken = s.createUser(testutil.UserFixture{Email: "admin@example.com", Username: "admin", Roles: []string{models.RoleAdmin}, IsAdmin: true})
	s.user, s.userToken = s.createUser(testutil.UserFixture{Email: "user@example.com", Username: "user"})
}

type userSummary struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	IsBanned bool     `json:"isBanned"`
	Roles    []string `json:"roles"`
}

func (s *AdminHandlerIntegrationTestSuite) TestRequiresPlatformAdmin() {
	w := s.request(http.MethodGet, "/api/v1/admin/users", nil, s.userToken)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	// the admin role without the platform flag is not enough
	_, roleOnlyToken := s.createUser(testutil.UserFixture{Email: "role@example.com", Username: "roleonly", Roles: []string{models.RoleAdmin}})
	w = s.request(http.MethodGet, "/api/v1/admin/users", nil, roleOnlyToken)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodGet, "/api/v1/admin/users", nil, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AdminHandlerIntegrationTestSuite) TestQueryTokenOnlyOnEventStream() {
	// the stream authenticates the query token, then the admin guard rejects a plain user
	w := s.request(http.MethodGet, "/api/v1/admin/events?access_token="+s.userToken, nil, "")
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodGet, "/api/v1/admin/events", nil, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodGet, "/api/v1/admin/users?access_token="+s.adminToken, nil, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AdminHandlerIntegrationTestSuite) TestListUsers() {
	w := s.request(http.MethodGet, "/api/v1/admin/users", nil, s.adminToken)

	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var users []userSummary
	s.decode(w, &users)
	assert.Len(s.T(), users, 2)
}

func (s *AdminHandlerIntegrationTestSuite) TestBanEndsAccess() {
	w := s.request(http.MethodPost, "/api/v1/admin/users/"+s.user.ID.String()+"/ban",
		map[string]string{"reason": "spam"}, s.adminToken)

	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var banned userSummary
	s.decode(w, &banned)
	assert.True(s.T(), banned.IsBanned)

	// the still-unexpired access token is rejected
	w = s.request(http.MethodGet, "/api/v1/auth/me", nil, s.userToken)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "user@example.com", "password": testPassword,
	}, "")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodPost, "/api/v1/admin/users/"+s.user.ID.String()+"/unban", nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.login("user@example.com", testPassword)
}

func (s *AdminHandlerIntegrationTestSuite) TestBanWithoutBody() {
	w := s.request(http.MethodPost, "/api/v1/admin/users/"+s.user.ID.String()+"/ban", nil, s.adminToken)

	assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
}

func (s *AdminHandlerIntegrationTestSuite) TestCannotBanPlatformAdmin() {
	other, _ := s.createUser(testutil.UserFixture{Email: "other@example.com", Username: "other", IsAdmin: true})

	w := s.request(http.MethodPost, "/api/v1/admin/users/"+other.ID.String()+"/ban", nil, s.adminToken)
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodPost, "/api/v1/admin/users/"+s.admin.ID.String()+"/ban", nil, s.adminToken)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *AdminHandlerIntegrationTestSuite) TestAssignAndRevokeRole() {
	path := "/api/v1/admin/users/" + s.user.ID.String() + "/roles"

	w := s.request(http.MethodPost, path, map[string]string{"role": models.RoleModerator}, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var summary userSummary
	s.decode(w, &summary)
	assert.ElementsMatch(s.T(), []string{models.RoleUser, models.RoleModerator}, summary.Roles)

	w = s.request(http.MethodPost, path, map[string]string{"role": "overlord"}, s.adminToken)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	w = s.request(http.MethodDelete, path+"/"+models.RoleModerator, nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &summary)
	assert.Equal(s.T(), []string{models.RoleUser}, summary.Roles)
}

func (s *AdminHandlerIntegrationTestSuite) TestListRoles() {
	w := s.request(http.MethodGet, "/api/v1/admin/roles", nil, s.adminToken)

	s.Require().Equal(http.StatusOK, w.Code)
	var roles []struct {
		Name string `json:"name"`
	}
	s.decode(w, &roles)
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(s.T(), []string{models.RoleAdmin, models.RoleUser, models.RoleModerator}, names)
}

func (s *AdminHandlerIntegrationTestSuite) TestIPBanLifecycle() {
	w := s.request(http.MethodPost, "/api/v1/admin/ip-bans", map[string]string{"ip": "not-an-ip"}, s.adminToken)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	w = s.request(http.MethodPost, "/api/v1/admin/ip-bans", map[string]string{"ip": testClientIP}, s.adminToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.request(http.MethodGet, "/api/v1/admin/ip-bans", nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		IPs []string `json:"ips"`
	}
	s.decode(w, &list)
	assert.Equal(s.T(), []string{testClientIP}, list.IPs)

	// rate-limited routes refuse banned addresses
	w = s.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "user@example.com", "password": testPassword,
	}, "")
	assert.Equal(s.T(), http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/admin/ip-bans/"+testClientIP, nil, s.adminToken)
	assert.Equal(s.T(), http.StatusNoContent, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/admin/ip-bans/"+testClientIP, nil, s.adminToken)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)

	s.login("user@example.com", testPassword)
}

func (s *AdminHandlerIntegrationTestSuite) TestAuditNewestFirst() {
	s.request(http.MethodPost, "/api/v1/admin/users/"+s.user.ID.String()+"/ban", nil, s.adminToken)
	s.request(http.MethodPost, "/api/v1/admin/users/"+s.user.ID.String()+"/unban", nil, s.adminToken)

	w := s.request(http.MethodGet, "/api/v1/admin/audit?limit=1", nil, s.adminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	var entries []struct {
		Action   string `json:"action"`
		ActorID  string `json:"actorId"`
		TargetID string `json:"targetId"`
	}
	s.decode(w, &entries)
	s.Require().Len(entries, 1)
	assert.Equal(s.T(), "user.unbanned", entries[0].Action)
	assert.Equal(s.T(), s.admin.ID.String(), entries[0].ActorID)
	assert.Equal(s.T(), s.user.ID.String(), entries[0].TargetID)

	w = s.request(http.MethodGet, "/api/v1/admin/audit?limit=zero", nil, s.adminToken)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func TestAdminHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerIntegrationTestSuite))
}
