package method

import (
	"context"
	"errors"
	"log/slog"

	"github.com/docstream/docstream/internal/changefeed"
	"github.com/docstream/docstream/internal/metrics"
	"github.com/docstream/docstream/internal/model"
	"github.com/docstream/docstream/internal/schema"
	"github.com/docstream/docstream/internal/store"
)

// Wire names for the user methods.
const (
	UsersCreate = "Users.create"
	UsersUpdate = "Users.update"
	UsersRemove = "Users.remove"
	UsersFind   = "Users.find"
)

// Notifier publishes change events for the external sync layer.
type Notifier interface {
	PublishAsync(event changefeed.Event)
}

// NoopNotifier drops change events. Used when no sync layer is
// attached, for example in tests.
type NoopNotifier struct{}

func (NoopNotifier) PublishAsync(event changefeed.Event) {}

// Users implements the user write methods against the document store.
type Users struct {
	store   store.Store
	feed    Notifier
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUsers creates the user method set.
func NewUsers(st store.Store, feed Notifier, recorder metrics.Recorder, logger *slog.Logger) *Users {
	if feed == nil {
		feed = NoopNotifier{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Users{
		store:   st,
		feed:    feed,
		metrics: recorder,
		logger:  logger.With("component", "method.users"),
	}
}

// Methods returns the registrable method table for users.
func (u *Users) Methods() []Method {
	return []Method{
		{Name: UsersCreate, Handler: u.create},
		{Name: UsersUpdate, Handler: u.update},
		{Name: UsersRemove, Handler: u.remove},
		{Name: UsersFind, Handler: u.find},
	}
}

// create inserts a new user and returns the store-assigned ID.
// Expects one argument: {name: string, createdAt: timestamp}.
func (u *Users) create(ctx context.Context, args []any) (any, error) {
	if err := schema.Arity(UsersCreate, args, 1); err != nil {
		return nil, err
	}

	data, err := schema.Object("data", args[0])
	if err != nil {
		return nil, err
	}
	if err := requireFields(data, "name", "createdAt"); err != nil {
		return nil, err
	}

	name, err := schema.String("data.name", data["name"])
	if err != nil {
		return nil, err
	}
	createdAt, err := schema.Timestamp("data.createdAt", data["createdAt"])
	if err != nil {
		return nil, err
	}

	user := &model.User{Name: name, CreatedAt: createdAt}
	id, err := u.store.Insert(ctx, store.CollectionUsers, user.Fields(), createdAt)
	if err != nil {
		return nil, err
	}

	u.metrics.IncDocumentInserted(store.CollectionUsers)
	u.feed.PublishAsync(changefeed.NewEvent(store.CollectionUsers, id, changefeed.OpInsert))
	u.logger.Info("user_created", "user_id", id)

	return id, nil
}

// update applies a partial-field modifier to one user and returns the
// number of documents updated; 0 for an unmatched ID is not an error.
// Expects two arguments: id string, modifier {set: {...}}.
func (u *Users) update(ctx context.Context, args []any) (any, error) {
	if err := schema.Arity(UsersUpdate, args, 2); err != nil {
		return nil, err
	}

	id, err := schema.String("id", args[0])
	if err != nil {
		return nil, err
	}
	set, err := schema.SetModifier("modifier", args[1])
	if err != nil {
		return nil, err
	}

	count, err := u.store.UpdateSet(ctx, store.CollectionUsers, id, set)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		u.metrics.IncDocumentUpdated(store.CollectionUsers)
		u.feed.PublishAsync(changefeed.NewEvent(store.CollectionUsers, id, changefeed.OpUpdate))
		u.logger.Info("user_updated", "user_id", id)
	}

	return count, nil
}

// remove deletes one user and returns the number of documents
// removed; 0 for an unmatched ID is not an error.
// Expects one argument: id string.
func (u *Users) remove(ctx context.Context, args []any) (any, error) {
	if err := schema.Arity(UsersRemove, args, 1); err != nil {
		return nil, err
	}

	id, err := schema.String("id", args[0])
	if err != nil {
		return nil, err
	}

	count, err := u.store.Remove(ctx, store.CollectionUsers, id)
	if err != nil {
		return nil, err
	}

	if count > 0 {
		u.metrics.IncDocumentRemoved(store.CollectionUsers)
		u.feed.PublishAsync(changefeed.NewEvent(store.CollectionUsers, id, changefeed.OpRemove))
		u.logger.Info("user_removed", "user_id", id)
	}

	return count, nil
}

// find is a one-shot read by ID. Absence is a value: it returns nil,
// never an error, when no user matches.
// Expects one argument: id string.
func (u *Users) find(ctx context.Context, args []any) (any, error) {
	if err := schema.Arity(UsersFind, args, 1); err != nil {
		return nil, err
	}

	id, err := schema.String("id", args[0])
	if err != nil {
		return nil, err
	}

	doc, err := u.store.FindByID(ctx, store.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return model.UserFromDocument(doc), nil
}

// requireFields checks a payload object for an exact field set.
func requireFields(data map[string]any, fields ...string) error {
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
		if _, ok := data[f]; !ok {
			return &schema.ArgumentError{
				Code:     schema.CodeMissingField,
				Argument: "data." + f,
				Message:  "field is required",
			}
		}
	}
	for key := range data {
		if !want[key] {
			return &schema.ArgumentError{
				Code:     schema.CodeUnexpectedField,
				Argument: "data." + key,
				Message:  "field is not part of the payload",
			}
		}
	}
	return nil
}
