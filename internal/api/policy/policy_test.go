package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDecideRead(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	t.Run("PublicProfileAnonymous", func(t *testing.T) {
		d := Decide(nil, OpRead, Target{OwnerID: owner, IsPublic: true})
		assert.Equal(t, Allow, d)
	})

	t.Run("PublicProfileAnyRequester", func(t *testing.T) {
		d := Decide(&other, OpRead, Target{OwnerID: owner, IsPublic: true})
		assert.Equal(t, Allow, d)
	})

	t.Run("PrivateProfileOwner", func(t *testing.T) {
		d := Decide(&owner, OpRead, Target{OwnerID: owner, IsPublic: false})
		assert.Equal(t, Allow, d)
	})

	t.Run("PrivateProfileNonOwner", func(t *testing.T) {
		d := Decide(&other, OpRead, Target{OwnerID: owner, IsPublic: false})
		assert.Equal(t, Deny, d)
	})

	t.Run("PrivateProfileAnonymous", func(t *testing.T) {
		d := Decide(nil, OpRead, Target{OwnerID: owner, IsPublic: false})
		assert.Equal(t, Deny, d)
	})
}

func TestDecideWriteAndDelete(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	t.Run("OwnerMayWrite", func(t *testing.T) {
		assert.True(t, CanWrite(&owner, Target{OwnerID: owner, IsPublic: false}))
	})

	t.Run("NonOwnerDeniedEvenWhenPublic", func(t *testing.T) {
		// Visibility never grants write access.
		assert.False(t, CanWrite(&other, Target{OwnerID: owner, IsPublic: true}))
		assert.False(t, CanDelete(&other, Target{OwnerID: owner, IsPublic: true}))
	})

	t.Run("AnonymousDenied", func(t *testing.T) {
		assert.False(t, CanWrite(nil, Target{OwnerID: owner, IsPublic: true}))
		assert.False(t, CanDelete(nil, Target{OwnerID: owner, IsPublic: true}))
	})

	t.Run("OwnerMayDelete", func(t *testing.T) {
		assert.True(t, CanDelete(&owner, Target{OwnerID: owner, IsPublic: true}))
	})
}

func TestDecideUnknownOperation(t *testing.T) {
	owner := uuid.New()
	d := Decide(&owner, Operation("escalate"), Target{OwnerID: owner, IsPublic: true})
	assert.Equal(t, Deny, d)
}
