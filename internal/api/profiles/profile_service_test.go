package profiles

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/profilehub/profilehub/internal/api"
)

type MockProfilesRepo struct {
	mock.Mock
}

func (m *MockProfilesRepo) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*api.Profile, error) {
	args := m.Called(ctx, userID)
	profile, _ := args.Get(0).(*api.Profile)
	return profile, args.Error(1)
}

func (m *MockProfilesRepo) CreateOwnProfile(ctx context.Context, user *api.UserAuth) (*api.Profile, error) {
	args := m.Called(ctx, user)
	profile, _ := args.Get(0).(*api.Profile)
	return profile, args.Error(1)
}

func (m *MockProfilesRepo) UpdateOwnProfile(ctx context.Context, userID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error) {
	args := m.Called(ctx, userID, params)
	profile, _ := args.Get(0).(*api.Profile)
	return profile, args.Error(1)
}

func (m *MockProfilesRepo) GetProfileByID(ctx context.Context, profileID uuid.UUID) (*api.Profile, error) {
	args := m.Called(ctx, profileID)
	profile, _ := args.Get(0).(*api.Profile)
	return profile, args.Error(1)
}

func (m *MockProfilesRepo) ListVisibleProfiles(ctx context.Context, requester *uuid.UUID) ([]api.Profile, error) {
	args := m.Called(ctx, requester)
	profiles, _ := args.Get(0).([]api.Profile)
	return profiles, args.Error(1)
}

func (m *MockProfilesRepo) CreateProfile(ctx context.Context, userID uuid.UUID, params api.CreateProfileParams) (*api.Profile, error) {
	args := m.Called(ctx, userID, params)
	profile, _ := args.Get(0).(*api.Profile)
	return profile, args.Error(1)
}

func (m *MockProfilesRepo) UpdateProfile(ctx context.Context, profileID uuid.UUID, params api.UpdateProfileParams) (*api.Profile, error) {
	args := m.Called(ctx, profileID, params)
	profile, _ := args.Get(0).(*api.Profile)
	return profile, args.Error(1)
}

func (m *MockProfilesRepo) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	args := m.Called(ctx, profileID)
	return args.Error(0)
}

func (m *MockProfilesRepo) SearchProfiles(ctx context.Context, requester *uuid.UUID, filter api.SearchProfilesFilter) ([]api.Profile, error) {
	args := m.Called(ctx, requester, filter)
	profiles, _ := args.Get(0).([]api.Profile)
	return profiles, args.Error(1)
}

type MockUserGetter struct {
	mock.Mock
}

func (m *MockUserGetter) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.UserAuth, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*api.UserAuth)
	return user, args.Error(1)
}

func newTestService(repo ProfilesRepo, users UserGetter) *ProfilesServiceImpl {
	return NewProfilesService(repo, users, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOwnProfile_Provisioning(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("returns existing profile without provisioning", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		users := new(MockUserGetter)
		existing := &api.Profile{ID: uuid.New(), UserID: userID, IsUserProfile: true}
		repo.On("GetOwnProfile", ctx, userID).Return(existing, nil).Once()

		profile, err := newTestService(repo, users).GetOwnProfile(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, existing.ID, profile.ID)
		repo.AssertNotCalled(t, "CreateOwnProfile", mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})

	t.Run("provisions private profile seeded from account on first access", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		users := new(MockUserGetter)
		user := &api.UserAuth{ID: userID, Name: "Jane Doe", Email: "jane@example.com", Role: "user"}
		created := &api.Profile{ID: uuid.New(), UserID: userID, IsUserProfile: true, IsPublic: false, Name: user.Name}

		repo.On("GetOwnProfile", ctx, userID).Return(nil, fmt.Errorf("missing: %w", api.ErrNotFound)).Once()
		users.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		repo.On("CreateOwnProfile", ctx, user).Return(created, nil).Once()

		profile, err := newTestService(repo, users).GetOwnProfile(ctx, userID)

		require.NoError(t, err)
		assert.True(t, profile.IsUserProfile)
		assert.False(t, profile.IsPublic)
		assert.Equal(t, user.Name, profile.Name)
		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("falls back to refetch when concurrent provisioning wins", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		users := new(MockUserGetter)
		user := &api.UserAuth{ID: userID, Name: "Jane Doe"}
		existing := &api.Profile{ID: uuid.New(), UserID: userID, IsUserProfile: true}

		repo.On("GetOwnProfile", ctx, userID).Return(nil, fmt.Errorf("missing: %w", api.ErrNotFound)).Once()
		users.On("GetUserByID", ctx, userID).Return(user, nil).Once()
		repo.On("CreateOwnProfile", ctx, user).Return(nil, fmt.Errorf("duplicate: %w", api.ErrConflict)).Once()
		repo.On("GetOwnProfile", ctx, userID).Return(existing, nil).Once()

		profile, err := newTestService(repo, users).GetOwnProfile(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, existing.ID, profile.ID)
		repo.AssertExpectations(t)
	})
}

func TestGetProfile_Visibility(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	otherID := uuid.New()
	profileID := uuid.New()

	privateProfile := &api.Profile{ID: profileID, UserID: ownerID, IsPublic: false}
	publicProfile := &api.Profile{ID: profileID, UserID: ownerID, IsPublic: true}

	t.Run("owner reads private profile", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(privateProfile, nil).Once()

		profile, err := newTestService(repo, new(MockUserGetter)).GetProfile(ctx, &ownerID, profileID)

		require.NoError(t, err)
		assert.Equal(t, profileID, profile.ID)
	})

	t.Run("non-owner reading private profile gets forbidden", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(privateProfile, nil).Once()

		_, err := newTestService(repo, new(MockUserGetter)).GetProfile(ctx, &otherID, profileID)

		assert.ErrorIs(t, err, api.ErrForbidden)
	})

	t.Run("anonymous reads public profile", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(publicProfile, nil).Once()

		profile, err := newTestService(repo, new(MockUserGetter)).GetProfile(ctx, nil, profileID)

		require.NoError(t, err)
		assert.Equal(t, profileID, profile.ID)
	})

	t.Run("anonymous reading private profile gets forbidden", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(privateProfile, nil).Once()

		_, err := newTestService(repo, new(MockUserGetter)).GetProfile(ctx, nil, profileID)

		assert.ErrorIs(t, err, api.ErrForbidden)
	})

	t.Run("missing profile is not found, not forbidden", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(nil, fmt.Errorf("missing: %w", api.ErrNotFound)).Once()

		_, err := newTestService(repo, new(MockUserGetter)).GetProfile(ctx, &otherID, profileID)

		assert.ErrorIs(t, err, api.ErrNotFound)
	})
}

func TestListProfiles_Caching(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous listing is cached", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		listing := []api.Profile{{ID: uuid.New(), IsPublic: true}}
		repo.On("ListVisibleProfiles", ctx, (*uuid.UUID)(nil)).Return(listing, nil).Once()

		svc := newTestService(repo, new(MockUserGetter))

		first, err := svc.ListProfiles(ctx, nil)
		require.NoError(t, err)
		second, err := svc.ListProfiles(ctx, nil)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		repo.AssertNumberOfCalls(t, "ListVisibleProfiles", 1)
	})

	t.Run("authenticated listing bypasses the cache", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		requester := uuid.New()
		repo.On("ListVisibleProfiles", ctx, &requester).Return([]api.Profile{}, nil).Twice()

		svc := newTestService(repo, new(MockUserGetter))

		_, err := svc.ListProfiles(ctx, &requester)
		require.NoError(t, err)
		_, err = svc.ListProfiles(ctx, &requester)
		require.NoError(t, err)

		repo.AssertNumberOfCalls(t, "ListVisibleProfiles", 2)
	})

	t.Run("profile create busts the anonymous cache", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		userID := uuid.New()
		listing := []api.Profile{{ID: uuid.New(), IsPublic: true}}
		repo.On("ListVisibleProfiles", ctx, (*uuid.UUID)(nil)).Return(listing, nil).Twice()
		repo.On("CreateProfile", ctx, userID, mock.Anything).
			Return(&api.Profile{ID: uuid.New(), UserID: userID, Name: "New"}, nil).Once()

		svc := newTestService(repo, new(MockUserGetter))

		_, err := svc.ListProfiles(ctx, nil)
		require.NoError(t, err)
		_, err = svc.CreateProfile(ctx, userID, api.CreateProfileParams{Name: "New"})
		require.NoError(t, err)
		_, err = svc.ListProfiles(ctx, nil)
		require.NoError(t, err)

		repo.AssertNumberOfCalls(t, "ListVisibleProfiles", 2)
	})
}

func TestUpdateProfile_Ownership(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	otherID := uuid.New()
	profileID := uuid.New()
	existing := &api.Profile{ID: profileID, UserID: ownerID, IsPublic: true}

	newName := "Updated Name"
	params := api.UpdateProfileParams{Name: &newName}

	t.Run("owner can update", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(existing, nil).Once()
		repo.On("UpdateProfile", ctx, profileID, params).
			Return(&api.Profile{ID: profileID, UserID: ownerID, Name: newName}, nil).Once()

		profile, err := newTestService(repo, new(MockUserGetter)).UpdateProfile(ctx, ownerID, profileID, params)

		require.NoError(t, err)
		assert.Equal(t, newName, profile.Name)
	})

	t.Run("non-owner cannot update even a public profile", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(existing, nil).Once()

		_, err := newTestService(repo, new(MockUserGetter)).UpdateProfile(ctx, otherID, profileID, params)

		assert.ErrorIs(t, err, api.ErrForbidden)
		repo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(existing, nil).Once()

		err := newTestService(repo, new(MockUserGetter)).DeleteProfile(ctx, otherID, profileID)

		assert.ErrorIs(t, err, api.ErrForbidden)
		repo.AssertNotCalled(t, "DeleteProfile", mock.Anything, mock.Anything)
	})

	t.Run("owner can delete", func(t *testing.T) {
		repo := new(MockProfilesRepo)
		repo.On("GetProfileByID", ctx, profileID).Return(existing, nil).Once()
		repo.On("DeleteProfile", ctx, profileID).Return(nil).Once()

		err := newTestService(repo, new(MockUserGetter)).DeleteProfile(ctx, ownerID, profileID)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestCreateProfile_Validation(t *testing.T) {
	ctx := context.Background()

	repo := new(MockProfilesRepo)
	_, err := newTestService(repo, new(MockUserGetter)).CreateProfile(ctx, uuid.New(), api.CreateProfileParams{})

	assert.ErrorIs(t, err, api.ErrValidation)
	repo.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything, mock.Anything)
}
