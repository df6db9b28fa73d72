package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hynexus/hynexus-api/internal/models"
	"github.com/hynexus/hynexus-api/internal/repository"
	"github.com/hynexus/hynexus-api/internal/testutil"
	"github.com/hynexus/hynexus-api/internal/utils"
	"github.com/stretchr/testify/suite"
)

type RepositoryIntegrationTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDatabase
	users   *repository.UserRepository
	roles   *repository.RoleRepository
	tokens  *repository.RefreshTokenRepository
	servers *repository.ServerRepository
	ctx     context.Context
}

func (s *RepositoryIntegrationTestSuite) SetupSuite() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.users = repository.NewUserRepository(s.testDB.DB)
	s.roles = repository.NewRoleRepository(s.testDB.DB)
	s.tokens = repository.NewRefreshTokenRepository(s.testDB.DB)
	s.servers = repository.NewServerRepository(s.testDB.DB)
	s.ctx = context.Background()
}

func (s *RepositoryIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *RepositoryIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *RepositoryIntegrationTestSuite) TestRoles_SeededWithPermissions() {
	admin, err := s.roles.FindByName(s.ctx, models.RoleAdmin)
	s.Require().NoError(err)
	s.Require().NotNil(admin)
	s.Len(admin.Permissions, 9)

	missing, err := s.roles.FindByName(s.ctx, "superuser")
	s.NoError(err)
	s.Nil(missing)

	all, err := s.roles.List(s.ctx)
	s.NoError(err)
	s.Len(all, 3)
}

func (s *RepositoryIntegrationTestSuite) TestUser_CreateAndFind() {
	role, err := s.roles.FindByName(s.ctx, models.RoleUser)
	s.Require().NoError(err)

	username := "player_one"
	user := &models.User{
		Email:        "player@example.com",
		Username:     &username,
		AuthProvider: models.AuthProviderPassword,
		IsActive:     true,
		Roles:        []models.Role{*role},
	}
	s.Require().NoError(s.users.Create(s.ctx, user))
	s.NotEqual(uuid.Nil, user.ID)

	byEmail, err := s.users.FindByEmail(s.ctx, "player@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(byEmail)
	s.Equal(user.ID, byEmail.ID)
	s.Require().Len(byEmail.Roles, 1)
	s.Equal(models.RoleUser, byEmail.Roles[0].Name)
	s.NotEmpty(byEmail.Roles[0].Permissions, "permissions are preloaded")

	byUsername, err := s.users.FindByUsername(s.ctx, "player_one")
	s.NoError(err)
	s.NotNil(byUsername)

	exists, err := s.users.UsernameExists(s.ctx, "player_one")
	s.NoError(err)
	s.True(exists)

	notFound, err := s.users.FindByEmail(s.ctx, "nobody@example.com")
	s.NoError(err)
	s.Nil(notFound)
}

func (s *RepositoryIntegrationTestSuite) TestUser_FindByProviderAndUpdateFields() {
	user := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{Email: "gh@example.com"})

	err := s.users.UpdateFields(s.ctx, user.ID, map[string]interface{}{
		"auth_provider":      models.AuthProviderGitHub,
		"auth_provider_id":   "12345",
		"auth_provider_data": models.JSONMap{"login": "octo"},
	})
	s.Require().NoError(err)

	found, err := s.users.FindByProvider(s.ctx, models.AuthProviderGitHub, "12345")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(user.ID, found.ID)
	s.Equal("octo", found.AuthProviderData["login"])

	other, err := s.users.FindByProvider(s.ctx, models.AuthProviderGoogle, "12345")
	s.NoError(err)
	s.Nil(other)
}

func (s *RepositoryIntegrationTestSuite) TestUniqueViolationsAreDuplicateKey() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{Email: "dupe@example.com"})

	err := s.users.Create(s.ctx, &models.User{Email: "dupe@example.com", AuthProvider: models.AuthProviderPassword})
	s.Require().Error(err)
	s.True(repository.IsDuplicateKey(err), "got %v", err)

	first := testutil.CreateTestServer(s.T(), s.testDB.DB, owner, "Unique Slug")
	second := testutil.CreateTestServer(s.T(), s.testDB.DB, owner, "Other Slug")

	err = s.servers.UpdateFields(s.ctx, second.ID, map[string]interface{}{"slug": first.Slug})
	s.Require().Error(err)
	s.True(repository.IsDuplicateKey(err), "got %v", err)

	s.False(repository.IsDuplicateKey(nil))
}

func (s *RepositoryIntegrationTestSuite) TestUser_AddAndRemoveRole() {
	user := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{})
	moderator, err := s.roles.FindByName(s.ctx, models.RoleModerator)
	s.Require().NoError(err)

	s.Require().NoError(s.users.AddRole(s.ctx, user, moderator))
	reloaded, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{models.RoleUser, models.RoleModerator}, reloaded.RoleNames())

	s.Require().NoError(s.users.RemoveRole(s.ctx, reloaded, moderator))
	reloaded, err = s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal([]string{models.RoleUser}, reloaded.RoleNames())
}

func (s *RepositoryIntegrationTestSuite) TestRefreshToken_Lifecycle() {
	user := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{})
	hash := utils.HashToken("raw-token")

	s.Require().NoError(s.tokens.Create(s.ctx, &models.RefreshToken{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		UserAgent: "test-agent",
		IPAddress: "10.0.0.1",
	}))

	found, err := s.tokens.FindByHash(s.ctx, hash)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Require().NotNil(found.User)
	s.Equal(user.Email, found.User.Email)
	s.NotEmpty(found.User.Roles)
	s.False(found.Revoked)

	changed, err := s.tokens.Revoke(s.ctx, hash)
	s.NoError(err)
	s.True(changed)

	changed, err = s.tokens.Revoke(s.ctx, hash)
	s.NoError(err)
	s.False(changed, "second revoke is a no-op")

	found, err = s.tokens.FindByHash(s.ctx, hash)
	s.Require().NoError(err)
	s.True(found.Revoked)
	s.NotNil(found.RevokedAt)
}

func (s *RepositoryIntegrationTestSuite) TestRefreshToken_RevokeAllForUser() {
	user := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{})
	for _, raw := range []string{"a", "b", "c"} {
		s.Require().NoError(s.tokens.Create(s.ctx, &models.RefreshToken{
			TokenHash: utils.HashToken(raw),
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
	_, err := s.tokens.Revoke(s.ctx, utils.HashToken("a"))
	s.Require().NoError(err)

	n, err := s.tokens.RevokeAllForUser(s.ctx, user.ID)

	s.NoError(err)
	s.EqualValues(2, n)
}

func (s *RepositoryIntegrationTestSuite) TestServer_CRUD() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{})
	server := testutil.CreateTestServer(s.T(), s.testDB.DB, owner, "Epic Survival Server!")

	bySlug, err := s.servers.FindBySlug(s.ctx, "epic-survival-server")
	s.Require().NoError(err)
	s.Require().NotNil(bySlug)
	s.Equal(server.ID, bySlug.ID)

	taken, err := s.servers.SlugTaken(s.ctx, "epic-survival-server", uuid.Nil)
	s.NoError(err)
	s.True(taken)
	taken, err = s.servers.SlugTaken(s.ctx, "epic-survival-server", server.ID)
	s.NoError(err)
	s.False(taken, "a server does not collide with itself")

	radius := "0.5rem"
	theme := &models.Theme{ID: "ocean", Name: "Ocean", Radius: &radius, Light: models.ThemeColors{Background: "#fff"}}
	s.Require().NoError(s.servers.UpdateFields(s.ctx, server.ID, map[string]interface{}{
		"status": models.ServerStatusApproved,
		"theme":  theme,
	}))

	byID, err := s.servers.FindByID(s.ctx, server.ID)
	s.Require().NoError(err)
	s.Equal(models.ServerStatusApproved, byID.Status)
	s.Require().NotNil(byID.Theme)
	s.Equal("Ocean", byID.Theme.Name)
	s.Equal("#fff", byID.Theme.Light.Background)

	all, err := s.servers.FindAll(s.ctx)
	s.NoError(err)
	s.Len(all, 1)

	deleted, err := s.servers.Delete(s.ctx, server.ID)
	s.NoError(err)
	s.True(deleted)

	deleted, err = s.servers.Delete(s.ctx, server.ID)
	s.NoError(err)
	s.False(deleted)

	gone, err := s.servers.FindByID(s.ctx, server.ID)
	s.NoError(err)
	s.Nil(gone)
}

func (s *RepositoryIntegrationTestSuite) TestServer_NilThemeRoundTrip() {
	owner := testutil.CreateTestUser(s.T(), s.testDB.DB, testutil.UserFixture{})
	server := testutil.CreateTestServer(s.T(), s.testDB.DB, owner, "Plain")

	found, err := s.servers.FindByID(s.ctx, server.ID)

	s.Require().NoError(err)
	s.Nil(found.Theme)
}

func TestRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryIntegrationTestSuite))
}
