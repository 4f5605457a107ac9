package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cx-tal-miterani/coach-booking-client/internal/database"
	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPreferenceResolver_Fetch(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		setupMock func(*mocks.MockPreferenceStore)
		expected  models.PreferenceType
		wantErr   bool
	}{
		{
			name:     "anonymous user skips the store",
			userID:   "",
			expected: models.PreferenceAny,
		},
		{
			name:   "stored preference",
			userID: "user-1",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.On("GetSeatPreference", mock.Anything, "user-1").
					Return(&models.SeatPreference{UserID: "user-1", PreferenceType: models.PreferenceWindow}, nil)
			},
			expected: models.PreferenceWindow,
		},
		{
			name:   "no row",
			userID: "user-2",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.On("GetSeatPreference", mock.Anything, "user-2").Return(nil, database.ErrNotFound)
			},
			expected: models.PreferenceAny,
		},
		{
			name:   "unknown stored value",
			userID: "user-3",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.On("GetSeatPreference", mock.Anything, "user-3").
					Return(&models.SeatPreference{UserID: "user-3", PreferenceType: "sofa"}, nil)
			},
			expected: models.PreferenceAny,
		},
		{
			name:   "store failure",
			userID: "user-4",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.On("GetSeatPreference", mock.Anything, "user-4").Return(nil, errors.New("connection reset"))
			},
			expected: models.PreferenceAny,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.MockPreferenceStore)
			if tt.setupMock != nil {
				tt.setupMock(store)
			}
			resolver := service.NewPreferenceResolver(store)

			pref, err := resolver.Fetch(context.Background(), tt.userID)

			assert.Equal(t, tt.expected, pref)
			if tt.wantErr {
				var perr *service.PersistenceError
				assert.ErrorAs(t, err, &perr)
			} else {
				assert.NoError(t, err)
			}
			store.AssertExpectations(t)
		})
	}
}

func TestPreferenceResolver_FetchWithoutStore(t *testing.T) {
	pref, err := service.NewPreferenceResolver(nil).Fetch(context.Background(), "user-1")

	assert.NoError(t, err)
	assert.Equal(t, models.PreferenceAny, pref)
}

func TestPreferenceResolver_Save(t *testing.T) {
	t.Run("upserts by identity", func(t *testing.T) {
		store := new(mocks.MockPreferenceStore)
		store.On("UpsertSeatPreference", mock.Anything, mock.MatchedBy(func(p models.SeatPreference) bool {
			return p.UserID == "user-1" && p.PreferenceType == models.PreferenceAisle
		})).Return(nil)

		err := service.NewPreferenceResolver(store).Save(context.Background(), "user-1", models.PreferenceAisle)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		store := new(mocks.MockPreferenceStore)

		err := service.NewPreferenceResolver(store).Save(context.Background(), "user-1", "sofa")

		var verr *service.ValidationError
		assert.ErrorAs(t, err, &verr)
		store.AssertNotCalled(t, "UpsertSeatPreference", mock.Anything, mock.Anything)
	})

	t.Run("requires identity", func(t *testing.T) {
		store := new(mocks.MockPreferenceStore)

		err := service.NewPreferenceResolver(store).Save(context.Background(), " ", models.PreferenceWindow)

		assert.ErrorIs(t, err, service.ErrUnauthenticated)
		store.AssertNotCalled(t, "UpsertSeatPreference", mock.Anything, mock.Anything)
	})

	t.Run("store disabled", func(t *testing.T) {
		err := service.NewPreferenceResolver(nil).Save(context.Background(), "user-1", models.PreferenceWindow)

		assert.ErrorIs(t, err, database.ErrStoreDisabled)
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(mocks.MockPreferenceStore)
		store.On("UpsertSeatPreference", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		err := service.NewPreferenceResolver(store).Save(context.Background(), "user-1", models.PreferenceMiddle)

		var perr *service.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "failed to save seat preference: disk full", perr.Error())
	})
}
