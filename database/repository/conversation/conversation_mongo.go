package conversationRepo

import (
	"context"
	"fmt"
	"time"

	"tidybook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConversationRepo implements ConversationRepository using MongoDB.
type MongoConversationRepo struct {
	convColl *mongo.Collection
	msgColl  *mongo.Collection
}

// NewMongoConversationRepo creates a new ConversationRepository backed by MongoDB.
func NewMongoConversationRepo(db *mongo.Database) ConversationRepository {
	repo := &MongoConversationRepo{
		convColl: db.Collection("conversations"),
		msgColl:  db.Collection("messages"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create conversation indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoConversationRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	_, err := r.convColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "last_message_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}

	_, err = r.msgColl.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}
	return nil
}

func (r *MongoConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.convColl.FindOne(ctx, bson.M{"id": id}).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", id, err)
	}
	conv.Memory = models.MigrateMemory(conv.Memory)
	return &conv, nil
}

func (r *MongoConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	if _, err := r.convColl.InsertOne(ctx, conv); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *MongoConversationRepo) UpdateMemory(ctx context.Context, id string, mem models.Memory) error {
	res, err := r.convColl.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"memory": mem}})
	if err != nil {
		return fmt.Errorf("failed to update memory for %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("conversation %s not found", id)
	}
	return nil
}

func (r *MongoConversationRepo) UpdateContact(ctx context.Context, id string, fields map[string]string) error {
	set := bson.M{}
	for k, v := range fields {
		if v != "" {
			set[k] = v
		}
	}
	if len(set) == 0 {
		return nil
	}
	if _, err := r.convColl.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("failed to update contact for %s: %w", id, err)
	}
	return nil
}

func (r *MongoConversationRepo) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.convColl.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"last_message_at": at}})
	if err != nil {
		return fmt.Errorf("failed to touch conversation %s: %w", id, err)
	}
	return nil
}

func (r *MongoConversationRepo) MarkLeadCaptured(ctx context.Context, id string) error {
	_, err := r.convColl.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"lead_captured": true}})
	if err != nil {
		return fmt.Errorf("failed to mark lead captured for %s: %w", id, err)
	}
	return nil
}

func (r *MongoConversationRepo) Close(ctx context.Context, id string) error {
	_, err := r.convColl.UpdateOne(ctx, bson.M{"id": id},
		bson.M{"$set": bson.M{"status": models.ConversationClosed}})
	if err != nil {
		return fmt.Errorf("failed to close conversation %s: %w", id, err)
	}
	return nil
}

func (r *MongoConversationRepo) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Conversation, error) {
	cursor, err := r.convColl.Find(ctx, bson.M{
		"status":          models.ConversationOpen,
		"last_message_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("failed to decode inactive conversations: %w", err)
	}
	return convs, nil
}

func (r *MongoConversationRepo) AppendMessage(ctx context.Context, msg *models.Message) error {
	if _, err := r.msgColl.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *MongoConversationRepo) GetMessages(ctx context.Context, conversationID string, includeInternal bool) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !includeInternal {
		filter["meta.internal"] = bson.M{"$ne": true}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.msgColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for %s: %w", conversationID, err)
	}
	defer cursor.Close(ctx)

	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode messages for %s: %w", conversationID, err)
	}
	return msgs, nil
}

func (r *MongoConversationRepo) CountNonInternal(ctx context.Context, conversationID string) (int, error) {
	n, err := r.msgColl.CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"meta.internal":   bson.M{"$ne": true},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages for %s: %w", conversationID, err)
	}
	return int(n), nil
}
