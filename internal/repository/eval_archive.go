package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"chess_review/internal/usecase/analysis"
)

const evaluationsCollection = "evaluations"

// MongoEvalArchive stores one document per FEN holding its deepest search.
type MongoEvalArchive struct {
	mongo *mongo.Database
	log   *zap.SugaredLogger
}

func NewMongoEvalArchive(db *mongo.Database, log *zap.SugaredLogger) *MongoEvalArchive {
	return &MongoEvalArchive{
		mongo: db,
		log:   log,
	}
}

func (a *MongoEvalArchive) Load(ctx context.Context, fen string) (analysis.CachedEval, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cached analysis.CachedEval
	err := a.mongo.Collection(evaluationsCollection).FindOne(ctx, bson.M{"fen": fen}).Decode(&cached)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return analysis.CachedEval{}, false, nil
	}
	if err != nil {
		return analysis.CachedEval{}, false, fmt.Errorf("find eval: %w", err)
	}
	return cached, true, nil
}

func (a *MongoEvalArchive) Save(ctx context.Context, eval analysis.CachedEval) error {
	existing, ok, err := a.Load(ctx, eval.FEN)
	if err != nil {
		return err
	}
	if ok && existing.Depth > eval.Depth {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err = a.mongo.Collection(evaluationsCollection).ReplaceOne(ctx, bson.M{"fen": eval.FEN}, eval, opts)
	if err != nil {
		return fmt.Errorf("upsert eval: %w", err)
	}
	a.log.Debugw("eval archived", "fen", eval.FEN, "depth", eval.Depth)
	return nil
}

// NoopEvalStore is used when no store is configured.
type NoopEvalStore struct{}

func (NoopEvalStore) Load(context.Context, string) (analysis.CachedEval, bool, error) {
	return analysis.CachedEval{}, false, nil
}

func (NoopEvalStore) Save(context.Context, analysis.CachedEval) error {
	return nil
}
