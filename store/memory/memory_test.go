package memory

import (
	"context"
	"testing"
	"time"

	"nearby-server/models"
	"nearby-server/store"
	"nearby-server/store/storetest"
)

var storeTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestGetUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := models.NewUser("id-a", "a@x", storeTime)
	u.Location = &models.Location{Latitude: 1, Longitude: 2}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := s.GetUser(ctx, "a@x")
	got.Location.Latitude = 50
	got.Interests = append(got.Interests, "mutated")

	again, _ := s.GetUser(ctx, "a@x")
	if again.Location.Latitude != 1 || len(again.Interests) != 0 {
		t.Fatalf("stored user was mutated through a returned copy: %+v", again)
	}
}
