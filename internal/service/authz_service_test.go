package service

import (
	"context"
	"testing"

	"liberty/internal/models"
	"liberty/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthzService(db *gorm.DB) *AuthzService {
	return NewAuthzService(repository.NewUserRepository(db), repository.NewCommunityRepository(db))
}

func TestDeriveHandle(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"john.doe@example.com", "johndoe"},
		{"JOHN@example.com", "john"},
		{"a_b_c@example.com", "a_b_c"},
		{"42cool@example.com", "cool"},
		{"x@example.com", "userx"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, deriveHandle(tt.email))
		})
	}
}

func TestAuthzService_EnsureProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthzService(db)
	ctx := context.Background()

	user, err := svc.EnsureProfile(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)
	assert.Equal(t, "jane", user.Username)
	assert.Equal(t, models.GlobalRoleCivilian, user.EffectiveGlobalRole())
	assert.Equal(t, "Civilian", user.RoleLabel)

	t.Run("Existing profile is returned, not recreated", func(t *testing.T) {
		again, err := svc.EnsureProfile(ctx, "jane@example.com", "Jane Again")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Equal(t, "Jane", again.Name)
	})

	t.Run("Handle collision gets a numeric suffix", func(t *testing.T) {
		other, err := svc.EnsureProfile(ctx, "jane@other.org", "Other Jane")
		require.NoError(t, err)
		assert.Equal(t, "jane1", other.Username)
	})
}

func TestAuthzService_RequireStaff(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthzService(db)
	ctx := context.Background()

	civilian := seedUser(t, db, "civilian", models.GlobalRoleCivilian)
	influencer := seedUser(t, db, "influencer", models.GlobalRoleInfluencer)

	for _, role := range []models.GlobalRole{
		models.GlobalRoleModerator,
		models.GlobalRoleAdmin,
		models.GlobalRoleOwner,
		models.GlobalRoleDeveloper,
	} {
		staff := seedUser(t, db, "staff_"+string(role), role)
		got, err := svc.RequireStaff(ctx, staff.ID)
		require.NoError(t, err, "role %s", role)
		assert.Equal(t, staff.ID, got.ID)
	}

	for _, user := range []*models.User{civilian, influencer} {
		_, err := svc.RequireStaff(ctx, user.ID)
		require.Error(t, err, "user %s", user.Username)
		assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)
	}
}

func TestAuthzService_RequireOwner(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthzService(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin", models.GlobalRoleAdmin)
	owner := seedUser(t, db, "owner", models.GlobalRoleOwner)

	_, err := svc.RequireOwner(ctx, admin.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", err.(*models.AppError).Code)

	got, err := svc.RequireOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.ID)
}

func TestAuthzService_ResolveCommunityRole(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthzService(db)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", models.GlobalRoleCivilian)
	member := seedUser(t, db, "member", models.GlobalRoleCivilian)
	outsider := seedUser(t, db, "outsider", models.GlobalRoleCivilian)

	community := &models.Community{Name: "Mechanics", CreatorID: creator.ID}
	require.NoError(t, db.Create(community).Error)
	require.NoError(t, db.Create(&models.CommunityMembership{
		CommunityID: community.ID,
		UserID:      member.ID,
		Role:        models.CommunityRoleModerator,
	}).Error)

	role, err := svc.ResolveCommunityRole(ctx, community.ID, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommunityRoleAdmin, role)

	role, err = svc.ResolveCommunityRole(ctx, community.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CommunityRoleModerator, role)

	role, err = svc.ResolveCommunityRole(ctx, community.ID, outsider.ID)
	require.NoError(t, err)
	assert.Empty(t, role)
}

func TestAuthzService_CanModerateCommunity(t *testing.T) {
	db := newTestDB(t)
	svc := newAuthzService(db)
	ctx := context.Background()

	creator := seedUser(t, db, "creator", models.GlobalRoleCivilian)
	outsider := seedUser(t, db, "outsider", models.GlobalRoleCivilian)
	globalMod := seedUser(t, db, "globalmod", models.GlobalRoleModerator)

	community := &models.Community{Name: "Nightlife", CreatorID: creator.ID}
	require.NoError(t, db.Create(community).Error)

	ok, err := svc.CanModerateCommunity(ctx, community.ID, creator.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanModerateCommunity(ctx, community.ID, outsider.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Global staff moderate every community without a membership row.
	ok, err = svc.CanModerateCommunity(ctx, community.ID, globalMod.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
