package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nearby-server/models"
	"nearby-server/store"
)

const (
	usersCollection    = "users"
	matchesCollection  = "matches"
	messagesCollection = "messages"
)

type matchDocument struct {
	models.Match `bson:",inline"`
	PairKey      string `bson:"pair_key"`
}

type messageDocument struct {
	ID             primitive.ObjectID `bson:"_id"`
	MatchID        string             `bson:"match_id"`
	models.Message `bson:",inline"`
}

type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	matches  *mongo.Collection
	messages *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials MongoDB, verifies the connection and prepares the indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := New(client.Database(database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle without touching indexes.
func New(db *mongo.Database) *Store {
	return &Store{
		client:   db.Client(),
		users:    db.Collection(usersCollection),
		matches:  db.Collection(matchesCollection),
		messages: db.Collection(messagesCollection),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.matches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "initiator", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create match indexes: %w", err)
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "match_id", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create message index: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	if user.Interests == nil {
		user.Interests = []string{}
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, user models.User) error {
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.Email}, user)
	if err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for i := range users {
		if users[i].Interests == nil {
			users[i].Interests = []string{}
		}
	}
	return users, nil
}

func (s *Store) GetMatch(ctx context.Context, id string) (models.Match, error) {
	return s.findMatch(ctx, bson.M{"_id": id})
}

func (s *Store) CreateMatch(ctx context.Context, match models.Match) error {
	doc := matchDocument{Match: match, PairKey: match.PairKey()}
	if _, err := s.matches.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrExists
		}
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (s *Store) SaveMatch(ctx context.Context, match models.Match) error {
	doc := matchDocument{Match: match, PairKey: match.PairKey()}
	res, err := s.matches.ReplaceOne(ctx, bson.M{"_id": match.ID}, doc)
	if err != nil {
		return fmt.Errorf("replace match: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	res, err := s.matches.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindMatchByPair(ctx context.Context, a, b string) (models.Match, error) {
	return s.findMatch(ctx, bson.M{"pair_key": models.PairKey(a, b)})
}

func (s *Store) ListMatchesForUser(ctx context.Context, email string) ([]models.Match, error) {
	filter := bson.M{"$or": []bson.M{{"initiator": email}, {"receiver": email}}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.matches.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []matchDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}
	matches := make([]models.Match, 0, len(docs))
	for _, doc := range docs {
		matches = append(matches, doc.Match)
	}
	return matches, nil
}

func (s *Store) AppendMessage(ctx context.Context, matchID string, msg models.Message) error {
	doc := messageDocument{ID: primitive.NewObjectID(), MatchID: matchID, Message: msg}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.messages.Find(ctx, bson.M{"match_id": matchID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	messages := make([]models.Message, 0, len(docs))
	for _, doc := range docs {
		messages = append(messages, doc.Message)
	}
	return messages, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) findMatch(ctx context.Context, filter bson.M) (models.Match, error) {
	var doc matchDocument
	err := s.matches.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Match{}, store.ErrNotFound
	}
	if err != nil {
		return models.Match{}, fmt.Errorf("find match: %w", err)
	}
	return doc.Match, nil
}
