package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type optionDocument struct {
	ID        string `bson:"id"`
	Text      string `bson:"text"`
	IsCorrect bool   `bson:"is_correct"`
}

type questionDocument struct {
	ID      string           `bson:"id"`
	Text    string           `bson:"text"`
	Order   int              `bson:"order"`
	Options []optionDocument `bson:"options"`
}

type quizDocument struct {
	ID          string             `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	MaterialID  *string            `bson:"material_id,omitempty"`
	Questions   []questionDocument `bson:"questions"`
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// QuizLoader reads quiz definitions from a document collection, one document per quiz.
type QuizLoader struct {
	col *mongo.Collection
}

func NewQuizLoader(db *mongo.Database, collection string) *QuizLoader {
	if collection == "" {
		collection = "quizzes"
	}
	return &QuizLoader{col: db.Collection(collection)}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var doc quizDocument
	err := l.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("find quiz: %w", err)
	}
	return doc.toDomain(), nil
}

func (d quizDocument) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		MaterialID:  d.MaterialID,
		Questions:   make([]domain.Question, 0, len(d.Questions)),
	}
	for _, q := range d.Questions {
		question := domain.Question{
			ID:      q.ID,
			Text:    q.Text,
			Order:   q.Order,
			Options: make([]domain.Option, 0, len(q.Options)),
		}
		for _, opt := range q.Options {
			question.Options = append(question.Options, domain.Option{ID: opt.ID, Text: opt.Text, Correct: opt.IsCorrect})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}
