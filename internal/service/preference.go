package service

import (
	"context"
	"errors"
	"strings"

	"github.com/cx-tal-miterani/coach-booking-client/internal/database"
	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
)

// PreferenceResolver reads the saved seat preference of a user, falling
// back to "any"
type PreferenceResolver struct {
	store PreferenceStore
}

// NewPreferenceResolver creates a resolver. A nil store always yields "any".
func NewPreferenceResolver(store PreferenceStore) *PreferenceResolver {
	return &PreferenceResolver{store: store}
}

// Fetch returns the stored preference for userID. Anonymous users and users
// without a row get "any" and no error. A store failure returns "any"
// together with a PersistenceError the caller may ignore.
func (r *PreferenceResolver) Fetch(ctx context.Context, userID string) (models.PreferenceType, error) {
	if strings.TrimSpace(userID) == "" || r.store == nil {
		return models.PreferenceAny, nil
	}
	pref, err := r.store.GetSeatPreference(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.PreferenceAny, nil
		}
		return models.PreferenceAny, &PersistenceError{Op: "fetch seat preference", Err: err}
	}
	if pref == nil || !pref.PreferenceType.Valid() {
		return models.PreferenceAny, nil
	}
	return pref.PreferenceType, nil
}

// Save upserts the preference of userID
func (r *PreferenceResolver) Save(ctx context.Context, userID string, preference models.PreferenceType) error {
	if !preference.Valid() {
		return &ValidationError{Field: "preferenceType", Message: "preference must be one of window, aisle, middle, any"}
	}
	if strings.TrimSpace(userID) == "" {
		return ErrUnauthenticated
	}
	if r.store == nil {
		return &PersistenceError{Op: "save seat preference", Err: database.ErrStoreDisabled}
	}
	if err := r.store.UpsertSeatPreference(ctx, models.SeatPreference{
		UserID:         userID,
		PreferenceType: preference,
	}); err != nil {
		return &PersistenceError{Op: "save seat preference", Err: err}
	}
	return nil
}
