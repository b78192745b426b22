package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoStore implements Store on a MongoDB replica set. Transactions run in a session with
// snapshot read concern; transient transaction errors are reported as models.ErrTransient.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logrus.Logger
}

func NewMongoStore(client *mongo.Client, dbName string, logger *logrus.Logger) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	return mongoGet(ctx, s.db, collection, id, out)
}

func (s *MongoStore) Find(ctx context.Context, collection string, q Query, out interface{}) error {
	return mongoFind(ctx, s.db, collection, q, out)
}

func (s *MongoStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return classifyMongoError(err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	var commitErr error
	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txnOpts); err != nil {
			return err
		}
		if err := fn(sc, &mongoTx{db: s.db}); err != nil {
			if abortErr := session.AbortTransaction(context.Background()); abortErr != nil {
				s.logger.WithError(abortErr).Warn("abort transaction failed")
			}
			return err
		}
		commitErr = commitWithRetry(func() error { return session.CommitTransaction(sc) })
		return nil
	})
	if err != nil {
		return classifyMongoError(err)
	}
	if commitErr != nil {
		if errors.Is(commitErr, ErrCommitUnknown) {
			s.logger.WithError(commitErr).Error("transaction commit outcome unknown")
			return commitErr
		}
		return classifyMongoError(commitErr)
	}
	return nil
}

// ErrCommitUnknown means the commit may or may not have been applied. It is never retried
// by re-running the transaction body.
var ErrCommitUnknown = errors.New("transaction commit outcome unknown")

const commitAttempts = 5

// commitWithRetry retries only the commit while the server reports an unknown commit result.
func commitWithRetry(commit func() error) error {
	var err error
	for attempt := 0; attempt < commitAttempts; attempt++ {
		err = commit()
		if err == nil || !hasErrorLabel(err, "UnknownTransactionCommitResult") {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrCommitUnknown, err)
}

func hasErrorLabel(err error, label string) bool {
	var labeled mongo.LabeledError
	return errors.As(err, &labeled) && labeled.HasErrorLabel(label)
}

func (s *MongoStore) Watch(ctx context.Context, collection string, filters ...Filter) (<-chan ChangeEvent, error) {
	match, err := buildFilter(filters, "fullDocument.")
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := s.db.Collection(collection).Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, classifyMongoError(err)
	}

	ch := make(chan ChangeEvent, 16)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var ev struct {
				OperationType string `bson:"operationType"`
				DocumentKey   struct {
					ID string `bson:"_id"`
				} `bson:"documentKey"`
			}
			if err := stream.Decode(&ev); err != nil {
				s.logger.WithError(err).WithField("collection", collection).Warn("decode change event")
				continue
			}
			select {
			case ch <- ChangeEvent{Collection: collection, DocumentID: ev.DocumentKey.ID, Operation: ev.OperationType}:
			default:
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.logger.WithError(err).WithField("collection", collection).Error("change stream stopped")
		}
	}()
	return ch, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoTx struct {
	db *mongo.Database
}

func (t *mongoTx) Get(ctx context.Context, collection, id string, out interface{}) error {
	return mongoGet(ctx, t.db, collection, id, out)
}

func (t *mongoTx) Find(ctx context.Context, collection string, q Query, out interface{}) error {
	return mongoFind(ctx, t.db, collection, q, out)
}

func (t *mongoTx) Create(ctx context.Context, collection string, doc interface{}) (string, error) {
	m, err := Canonicalize(doc)
	if err != nil {
		return "", err
	}
	id, _ := m["_id"].(string)
	if id == "" {
		id = primitive.NewObjectID().Hex()
		m["_id"] = id
	}
	if _, err := t.db.Collection(collection).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", models.Conflict(fmt.Sprintf("%s %s already exists", collection, id))
		}
		return "", classifyMongoError(err)
	}
	return id, nil
}

func (t *mongoTx) Set(ctx context.Context, collection, id string, doc interface{}) error {
	m, err := Canonicalize(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	_, err = t.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, m, options.Replace().SetUpsert(true))
	return classifyMongoError(err)
}

func (t *mongoTx) Update(ctx context.Context, collection, id string, fields Fields) error {
	set, err := Canonicalize(fields)
	if err != nil {
		return err
	}
	delete(set, "_id")
	if len(set) == 0 {
		return nil
	}
	res, err := t.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return classifyMongoError(err)
	}
	if res.MatchedCount == 0 {
		return models.NotFound(fmt.Sprintf("%s %s not found", collection, id))
	}
	return nil
}

func mongoGet(ctx context.Context, db *mongo.Database, collection, id string, out interface{}) error {
	err := db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NotFound(fmt.Sprintf("%s %s not found", collection, id))
	}
	return classifyMongoError(err)
}

func mongoFind(ctx context.Context, db *mongo.Database, collection string, q Query, out interface{}) error {
	filter, err := buildFilter(q.Filters, "")
	if err != nil {
		return err
	}
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}, {Key: "_id", Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return classifyMongoError(err)
	}
	defer cursor.Close(ctx)
	return classifyMongoError(cursor.All(ctx, out))
}

var mongoOps = map[Op]string{
	OpEq:  "$eq",
	OpNe:  "$ne",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
	OpIn:  "$in",
}

func buildFilter(filters []Filter, prefix string) (bson.M, error) {
	if len(filters) == 0 {
		return bson.M{}, nil
	}
	clauses := make(bson.A, 0, len(filters))
	for _, f := range filters {
		op, ok := mongoOps[f.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
		clauses = append(clauses, bson.M{prefix + f.Field: bson.M{op: f.Value}})
	}
	return bson.M{"$and": clauses}, nil
}

func classifyMongoError(err error) error {
	if err == nil {
		return nil
	}
	if hasErrorLabel(err, "TransientTransactionError") {
		return models.Transient(err)
	}
	// An unknown commit result may already be applied; re-running the body would duplicate it.
	if hasErrorLabel(err, "UnknownTransactionCommitResult") {
		return err
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return models.Transient(err)
	}
	var wce mongo.WriteException
	if errors.As(err, &wce) {
		for _, we := range wce.WriteErrors {
			if we.Code == 112 { // WriteConflict
				return models.Transient(err)
			}
		}
	}
	return err
}

// EnsureIndexes creates the indexes the ledger queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *logrus.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := map[string][]bson.D{
		CollectionCommissionTransactions: {
			{{Key: "adminId", Value: 1}, {Key: "createdAt", Value: -1}},
			{{Key: "sellerId", Value: 1}},
		},
		CollectionReceipts: {
			{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		CollectionWithdrawals: {
			{{Key: "status", Value: 1}, {Key: "processedDate", Value: -1}},
			{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		CollectionPendingDeposits:   {{{Key: "sellerId", Value: 1}, {Key: "status", Value: 1}}},
		CollectionCommissionHistory: {{{Key: "sellerId", Value: 1}, {Key: "status", Value: 1}}},
		CollectionOrders:            {{{Key: "sellerId", Value: 1}, {Key: "profitTransferredDate", Value: -1}}},
		CollectionSellerMigrations:  {{{Key: "sellerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		CollectionUsers:             {{{Key: "adminId", Value: 1}, {Key: "role", Value: 1}}},
	}

	for collName, keys := range indexes {
		idx := make([]mongo.IndexModel, 0, len(keys))
		for _, k := range keys {
			idx = append(idx, mongo.IndexModel{Keys: k})
		}
		if _, err := db.Collection(collName).Indexes().CreateMany(ctx, idx); err != nil {
			logger.WithError(err).WithField("collection", collName).Error("Error creating indexes")
		}
	}
}
