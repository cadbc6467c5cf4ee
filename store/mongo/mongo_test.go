package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"nearby-server/models"
	"nearby-server/store"
)

func TestStoreAgainstMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "friends.users", mtest.FirstBatch))

		_, err := New(mt.DB).GetUser(ctx, "a@x")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("get user defaults interests", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "friends.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "a@x"},
			{Key: "public_id", Value: "id-a"},
			{Key: "name", Value: "Ana"},
			{Key: "is_active", Value: true},
			{Key: "mode", Value: "visible"},
			{Key: "location", Value: bson.D{{Key: "latitude", Value: 1.5}, {Key: "longitude", Value: 2.5}}},
		}))

		user, err := New(mt.DB).GetUser(ctx, "a@x")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if user.Email != "a@x" || user.Mode != models.ModeVisible || user.Location == nil || user.Location.Longitude != 2.5 {
			t.Fatalf("unexpected user: %+v", user)
		}
		if user.Interests == nil {
			t.Fatalf("interests must default to an empty list")
		}
	})

	mt.Run("duplicate user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := New(mt.DB).CreateUser(ctx, models.NewUser("id-a", "a@x", time.Now()))
		if !errors.Is(err, store.ErrExists) {
			t.Fatalf("expected ErrExists, got %v", err)
		}
	})

	mt.Run("save unknown user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := New(mt.DB).SaveUser(ctx, models.NewUser("id-a", "a@x", time.Now()))
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("duplicate pair", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: friends.matches index: pair_key_1",
		}))

		err := New(mt.DB).CreateMatch(ctx, models.Match{ID: "m2", Initiator: "b@x", Receiver: "a@x"})
		if !errors.Is(err, store.ErrExists) {
			t.Fatalf("expected ErrExists, got %v", err)
		}
	})

	mt.Run("delete unknown match", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := New(mt.DB).DeleteMatch(ctx, "missing")
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("list messages", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "friends.messages", mtest.FirstBatch,
			bson.D{{Key: "match_id", Value: "m1"}, {Key: "sender", Value: "a@x"}, {Key: "text", Value: "hi"}},
			bson.D{{Key: "match_id", Value: "m1"}, {Key: "sender", Value: "b@x"}, {Key: "text", Value: "hey"}},
		))

		messages, err := New(mt.DB).ListMessages(ctx, "m1")
		if err != nil {
			t.Fatalf("list messages: %v", err)
		}
		if len(messages) != 2 || messages[0].Text != "hi" || messages[1].Sender != "b@x" {
			t.Fatalf("unexpected transcript: %+v", messages)
		}

		started := mt.GetStartedEvent()
		if started == nil || started.CommandName != "find" {
			t.Fatalf("expected a find command, got %+v", started)
		}
		sortDoc, ok := started.Command.Lookup("sort").DocumentOK()
		if !ok {
			t.Fatalf("find must sort the transcript: %s", started.Command)
		}
		keys, err := sortDoc.Elements()
		if err != nil || len(keys) != 1 || keys[0].Key() != "_id" {
			t.Fatalf("transcript must be ordered by _id, got %s", sortDoc)
		}
	})

	mt.Run("empty transcript", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "friends.messages", mtest.FirstBatch))

		messages, err := New(mt.DB).ListMessages(ctx, "m1")
		if err != nil {
			t.Fatalf("list messages: %v", err)
		}
		if messages == nil || len(messages) != 0 {
			t.Fatalf("expected empty non-nil transcript, got %#v", messages)
		}
	})
}
