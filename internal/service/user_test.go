package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhia7/weary-sub000/internal/models"
)

func addressIn(name string) AddressInput {
	return AddressInput{
		FullName:   strPtr(name),
		Street:     strPtr("1 Main St"),
		City:       strPtr("Tunis"),
		PostalCode: strPtr("1000"),
		Country:    strPtr("TN"),
	}
}

func defaults(t *testing.T, svc *UserService, userID uint) []uint {
	t.Helper()
	list, err := svc.Addresses(context.Background(), userID)
	require.NoError(t, err)
	var ids []uint
	for _, a := range list {
		if a.IsDefault {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestUserService_UpdateProfile(t *testing.T) {
	r := newRepo(t)
	svc := &UserService{Repo: r}
	u := seedUser(t, r, "p@example.com", "secret123", models.RoleUser)

	got, err := svc.UpdateProfile(context.Background(), u.ID, ProfileInput{FirstName: strPtr(" Grace "), Phone: strPtr("555")})
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.FirstName)
	assert.Equal(t, "User", got.LastName)
	assert.Equal(t, "555", got.Phone)

	_, err = svc.UpdateProfile(context.Background(), u.ID, ProfileInput{LastName: strPtr("  ")})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUserService_DefaultAddressExclusivity(t *testing.T) {
	r := newRepo(t)
	svc := &UserService{Repo: r}
	ctx := context.Background()
	u := seedUser(t, r, "a@example.com", "secret123", models.RoleUser)

	first, err := svc.CreateAddress(ctx, u.ID, addressIn("Home"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first address becomes default")

	second, err := svc.CreateAddress(ctx, u.ID, addressIn("Work"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
	assert.Equal(t, []uint{first.ID}, defaults(t, svc, u.ID))

	in := addressIn("Cabin")
	in.IsDefault = boolPtr(true)
	third, err := svc.CreateAddress(ctx, u.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []uint{third.ID}, defaults(t, svc, u.ID))

	_, err = svc.SetDefaultAddress(ctx, u.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID}, defaults(t, svc, u.ID))

	// deleting the default promotes the newest remaining address
	require.NoError(t, svc.DeleteAddress(ctx, u.ID, second.ID))
	assert.Equal(t, []uint{third.ID}, defaults(t, svc, u.ID))
}

func TestUserService_AddressValidationAndOwnership(t *testing.T) {
	r := newRepo(t)
	svc := &UserService{Repo: r}
	ctx := context.Background()
	owner := seedUser(t, r, "o@example.com", "secret123", models.RoleUser)
	other := seedUser(t, r, "x@example.com", "secret123", models.RoleUser)

	_, err := svc.CreateAddress(ctx, owner.ID, AddressInput{FullName: strPtr("Only name")})
	require.ErrorIs(t, err, ErrValidation)

	a, err := svc.CreateAddress(ctx, owner.ID, addressIn("Home"))
	require.NoError(t, err)

	_, err = svc.UpdateAddress(ctx, other.ID, a.ID, AddressInput{City: strPtr("Sfax")})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.DeleteAddress(ctx, other.ID, a.ID), ErrNotFound)
}
