package repo

import (
	"context"
	"errors"
	"time"

	dom "taskhub/internal/domain"
	"taskhub/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tasksCollection = "tasks"

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	CreatorID   string             `bson:"creator_id"`
	Assignees   []string           `bson:"assignees"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d taskDocument) toDomain() dom.Task {
	t := dom.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      dom.Status(d.Status),
		Priority:    dom.Priority(d.Priority),
		CreatorID:   d.CreatorID,
		Assignees:   d.Assignees,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if t.Assignees == nil {
		t.Assignees = []string{}
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}

// MongoTaskRepo implements TaskRepo with a MongoDB collection.
type MongoTaskRepo struct {
	coll *mongo.Collection
}

// NewMongoTaskRepo returns a repo over db.tasks.
func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection(tasksCollection)}
}

// EnsureIndexes creates the indexes the list views rely on.
func (r *MongoTaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "due_date", Value: 1}}},
		{Keys: bson.D{{Key: "assignees", Value: 1}, {Key: "due_date", Value: 1}}},
	})
	return err
}

func (r *MongoTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDocument{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatorID:   t.CreatorID,
		Assignees:   t.Assignees,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// $addToSet needs an array, never null.
	if doc.Assignees == nil {
		doc.Assignees = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return dom.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Task{}, ErrNotFound
	}
	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return dom.Task{}, mongoErr(err)
	}
	return doc.toDomain(), nil
}

// Find pushes the predicate down and orders in memory, since Mongo sorts
// missing dates first ascending.
func (r *MongoTaskRepo) Find(ctx context.Context, q dom.TaskQuery) ([]dom.Task, error) {
	cur, err := r.coll.Find(ctx, mongoTaskFilter(q))
	if err != nil {
		return nil, err
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	list := make([]dom.Task, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toDomain())
	}
	dom.SortByDueDate(list, q.Descending)
	return list, nil
}

func (r *MongoTaskRepo) Update(ctx context.Context, id string, patch dom.TaskPatch) (dom.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Task{}, ErrNotFound
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Priority != nil {
		set["priority"] = string(*patch.Priority)
	}
	if patch.DueDate != nil {
		if patch.DueDate.Value == nil {
			unset["due_date"] = ""
		} else {
			set["due_date"] = *patch.DueDate.Value
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return dom.Task{}, mongoErr(err)
	}
	return doc.toDomain(), nil
}

// AddAssignee uses $addToSet guarded by $ne so "added" is decided by the server.
func (r *MongoTaskRepo) AddAssignee(ctx context.Context, id, userID string) (dom.Task, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Task{}, false, ErrNotFound
	}
	filter := bson.M{"_id": oid, "assignees": bson.M{"$ne": userID}}
	update := bson.M{
		"$addToSet": bson.M{"assignees": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.toDomain(), true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return dom.Task{}, false, err
	}
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return dom.Task{}, false, err
	}
	return t, false, nil
}

func (r *MongoTaskRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoTaskFilter(q dom.TaskQuery) bson.M {
	p := q.PrincipalID
	involved := bson.M{"$or": bson.A{bson.M{"creator_id": p}, bson.M{"assignees": p}}}
	var conds bson.A
	switch q.View {
	case dom.ViewCreated:
		conds = append(conds, bson.M{"creator_id": p})
	case dom.ViewAssigned:
		conds = append(conds, bson.M{"assignees": p}, bson.M{"creator_id": bson.M{"$ne": p}})
	case dom.ViewOverdue:
		conds = append(conds, involved,
			bson.M{"due_date": bson.M{"$lt": q.Now}},
			bson.M{"status": bson.M{"$ne": string(dom.StatusCompleted)}},
		)
	default:
		conds = append(conds, involved)
	}
	if q.Status != "" {
		conds = append(conds, bson.M{"status": string(q.Status)})
	}
	if q.Priority != "" {
		conds = append(conds, bson.M{"priority": string(q.Priority)})
	}
	return bson.M{"$and": conds}
}

func mongoErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case utils.IsDuplicateKey(err):
		return ErrDuplicate
	}
	return err
}
