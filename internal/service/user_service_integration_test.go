package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hynexus/hynexus-api/internal/audit"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/service"
	"github.com/hynexus/hynexus-api/internal/testutil"
	"github.com/hynexus/hynexus-api/pkg/apierror"
	"github.com/hynexus/hynexus-api/pkg/logger"
	"github.com/stretchr/testify/suite"
)

type UserServiceIntegrationTestSuite struct {
	suite.Suite
	testDB        *testutil.TestDatabase
	auditLog      *audit.Log
	refreshTokens *service.RefreshTokenService
	userService   *service.UserService
	ctx           context.Context
	admin         *models.User
}

func (s *UserServiceIntegrationTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.ctx = context.Background()
}

func (s *UserServiceIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *UserServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	auditLog, err := audit.Open(filepath.Join(s.T().TempDir(), "audit.log"))
	s.Require().NoError(err)
	s.auditLog = auditLog

	users := repository.NewUserRepository(s.testDB.DB)
	roles := repository.NewRoleRepository(s.testDB.DB)
	s.refreshTokens = service.NewRefreshTokenService(repository.NewRefreshTokenRepository(s.testDB.DB), time.Hour)
	s.userService = service.NewUserService(users, roles, s.refreshTokens, s.auditLog, nil)

	s.admin = testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{Email: "root@example.com", Roles: []string{models.RoleAdmin}, IsAdmin: true})
}

func (s *UserServiceIntegrationTestSuite) TearDownTest() {
	s.auditLog.Close()
}

func (s *UserServiceIntegrationTestSuite) TestBan_RevokesSessions() {
	target := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{Email: "target@example.com"})
	raw, err := s.refreshTokens.Issue(s.ctx, target.ID, service.ClientMeta{})
	s.Require().NoError(err)

	banned, err := s.userService.Ban(s.ctx, principal(s.admin), target.ID, "spam")
	s.Require().NoError(err)
	s.True(banned.IsBanned)

	_, err = s.refreshTokens.Validate(s.ctx, raw)
	s.True(apierror.Is(err, apierror.KindUnauthorized))

	entries, err := s.auditLog.Recent(1)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("user.banned", entries[0].Action)
	s.Equal("spam", entries[0].Detail)

	unbanned, err := s.userService.Unban(s.ctx, principal(s.admin), target.ID)
	s.Require().NoError(err)
	s.False(unbanned.IsBanned)
}

func (s *UserServiceIntegrationTestSuite) TestBan_Refusals() {
	_, err := s.userService.Ban(s.ctx, principal(s.admin), s.admin.ID, "")
	s.True(apierror.Is(err, apierror.KindBadRequest))

	other := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{Email: "other-admin@example.com", IsAdmin: true})
	_, err = s.userService.Ban(s.ctx, principal(s.admin), other.ID, "")
	s.True(apierror.Is(err, apierror.KindForbidden))
}

func (s *UserServiceIntegrationTestSuite) TestAssignAndRevokeRole() {
	target := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{Email: "promote@example.com"})

	user, err := s.userService.AssignRole(s.ctx, principal(s.admin), target.ID, models.RoleModerator)
	s.Require().NoError(err)
	s.ElementsMatch([]string{models.RoleUser, models.RoleModerator}, user.RoleNames())

	// assigning twice is a no-op
	user, err = s.userService.AssignRole(s.ctx, principal(s.admin), target.ID, models.RoleModerator)
	s.Require().NoError(err)
	s.Len(user.Roles, 2)

	user, err = s.userService.RevokeRole(s.ctx, principal(s.admin), target.ID, models.RoleUser)
	s.Require().NoError(err)
	s.Equal([]string{models.RoleModerator}, user.RoleNames())

	_, err = s.userService.AssignRole(s.ctx, principal(s.admin), target.ID, "superuser")
	s.True(apierror.Is(err, apierror.KindNotFound))
}

func TestUserServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceIntegrationTestSuite))
}
