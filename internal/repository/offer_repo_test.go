package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shifthunter/backend/internal/db"
	"github.com/shifthunter/backend/internal/repository"
)

func seedOffer(t *testing.T, repo *repository.OfferRepository, userID uint64, accepted bool, decidedAt time.Time) db.Offer {
	t.Helper()
	offer := db.Offer{
		UserID:          userID,
		LocationCode:    "DXN1",
		LocationName:    "Wembley Depot",
		LocationAddress: "Fifth Way, Wembley",
		Pay:             5500,
		StartTime:       decidedAt.Add(2 * time.Hour),
		EndTime:         decidedAt.Add(5 * time.Hour),
		DurationHours:   3,
		HourlyRate:      1300,
		Accepted:        accepted,
		DecidedAt:       decidedAt,
	}
	require.NoError(t, repo.Create(context.Background(), &offer))
	return offer
}

func TestCountAcceptedSince_WeekBoundary(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewOfferRepository(setupTestDB(t))

	weekStart := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	seedOffer(t, repo, 1, true, weekStart.Add(time.Minute))       // in
	seedOffer(t, repo, 1, true, weekStart)                        // boundary is inclusive
	seedOffer(t, repo, 1, true, weekStart.Add(-time.Minute))      // last week
	seedOffer(t, repo, 1, false, weekStart.Add(2*time.Hour))      // rejected
	seedOffer(t, repo, 2, true, weekStart.Add(time.Hour))         // other user

	count, err := repo.CountAcceptedSince(ctx, 1, weekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestListByUser_NewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewOfferRepository(setupTestDB(t))

	base := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedOffer(t, repo, 1, false, base.Add(time.Duration(i)*time.Hour))
	}

	offers, err := repo.ListByUser(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.True(t, offers[0].DecidedAt.After(offers[1].DecidedAt))
}
