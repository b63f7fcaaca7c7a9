package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Dhia7/weary-sub000/internal/models"
	"github.com/Dhia7/weary-sub000/internal/repo"
)

type UserService struct {
	Repo *repo.GormRepo
}

type ProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	fields := map[string]any{}
	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if v == "" {
			return nil, fail(ErrValidation, "firstName cannot be empty")
		}
		fields["first_name"] = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if v == "" {
			return nil, fail(ErrValidation, "lastName cannot be empty")
		}
		fields["last_name"] = v
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}

	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}

type AddressInput struct {
	FullName   *string `json:"fullName"`
	Phone      *string `json:"phone"`
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	IsDefault  *bool   `json:"isDefault"`
}

func (in AddressInput) apply(a *models.Address) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.FullName, in.FullName)
	set(&a.Phone, in.Phone)
	set(&a.Street, in.Street)
	set(&a.City, in.City)
	set(&a.State, in.State)
	set(&a.PostalCode, in.PostalCode)
	set(&a.Country, in.Country)
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}
}

func validateAddress(a *models.Address) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", a.FullName},
		{"street", a.Street},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fail(ErrValidation, "missing address fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *UserService) Addresses(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.Repo.ListAddresses(ctx, userID)
}

func (s *UserService) CreateAddress(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	a := &models.Address{UserID: userID}
	in.apply(a)
	if err := validateAddress(a); err != nil {
		return nil, err
	}

	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		n, err := tx.CountAddresses(ctx, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			a.IsDefault = true
		}
		if err := tx.CreateAddress(ctx, a); err != nil {
			return err
		}
		if a.IsDefault {
			return tx.ClearDefaultAddress(ctx, userID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *UserService) UpdateAddress(ctx context.Context, userID, id uint, in AddressInput) (*models.Address, error) {
	var out *models.Address
	err := s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		a, err := tx.GetAddress(ctx, userID, id)
		if err != nil {
			return notFound(err, "address")
		}
		in.apply(a)
		if err := validateAddress(a); err != nil {
			return err
		}
		if err := tx.SaveAddress(ctx, a); err != nil {
			return err
		}
		if a.IsDefault {
			if err := tx.ClearDefaultAddress(ctx, userID, a.ID); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserService) SetDefaultAddress(ctx context.Context, userID, id uint) (*models.Address, error) {
	yes := true
	return s.UpdateAddress(ctx, userID, id, AddressInput{IsDefault: &yes})
}

// DeleteAddress removes an address; when it was the default the newest remaining one takes over.
func (s *UserService) DeleteAddress(ctx context.Context, userID, id uint) error {
	return s.Repo.Tx(ctx, func(tx *repo.GormRepo) error {
		a, err := tx.GetAddress(ctx, userID, id)
		if err != nil {
			return notFound(err, "address")
		}
		if err := tx.DeleteAddress(ctx, userID, id); err != nil {
			return notFound(err, "address")
		}
		if !a.IsDefault {
			return nil
		}

		next, err := tx.LatestAddress(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		next.IsDefault = true
		return tx.SaveAddress(ctx, next)
	})
}
