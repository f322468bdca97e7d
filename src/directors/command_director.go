package directors

import (
	"errors"
	"fmt"

	"secdb/src/engine"

	"go.uber.org/zap"
)

var (
	ErrInvalidAction  = errors.New("invalid action")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
)

// DocumentService is the set of store operations an action can reach.
// *engine.DocumentStore implements it.
type DocumentService interface {
	CreateCollection(name string) error
	DropCollection(name string) error
	Insert(collection string, doc engine.Document) error
	InsertMany(collection string, docs []engine.Document) (int, error)
	Find(collection string, q engine.Query) ([]engine.Document, error)
	FindByField(collection, field string, value interface{}) ([]engine.Document, error)
	Update(collection string, q engine.Query, updates engine.Document) (int, error)
	DeleteOne(collection string, q engine.Query) (bool, error)
	DeleteMany(collection string, q engine.Query) (int, error)
	Collections() ([]string, error)
	Snapshot() (engine.Database, error)
	Collection(name string) ([]engine.Document, bool, error)
}

var transportKinds = []struct {
	kind engine.Kind
	err  error
}{
	{KindInvalidAction, ErrInvalidAction},
	{KindInvalidRequest, ErrInvalidRequest},
	{KindUnauthorized, ErrUnauthorized},
}

// KindOf extends engine.KindOf with the transport kinds.
func KindOf(err error) engine.Kind {
	for _, tk := range transportKinds {
		if errors.Is(err, tk.err) {
			return tk.kind
		}
	}
	return engine.KindOf(err)
}

// ErrorOf maps a wire kind back to its sentinel error, or nil when the
// kind is unknown.
func ErrorOf(kind engine.Kind) error {
	for _, tk := range transportKinds {
		if tk.kind == kind {
			return tk.err
		}
	}
	return engine.ErrorOf(kind)
}

// ParseAction validates an action name.
func ParseAction(name string) (Action, error) {
	for _, action := range Actions {
		if string(action) == name {
			return action, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, name)
}

// ErrorResponse wraps err in a failed Response.
func ErrorResponse(err error) *Response {
	return &Response{
		Success: false,
		Error: &ErrorBody{
			Kind:    KindOf(err),
			Message: err.Error(),
		},
	}
}

func requireCollection(req *Request) error {
	if req.CollectionName == "" {
		return fmt.Errorf("%w: collection_name is required", ErrInvalidRequest)
	}
	return nil
}

func requireQuery(req *Request) error {
	if req.Query == nil {
		return fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	return nil
}

func toDocuments(in []map[string]interface{}) []engine.Document {
	docs := make([]engine.Document, len(in))
	for i, doc := range in {
		docs[i] = engine.Document(doc)
	}
	return docs
}

// CommandDirector runs one action against svc and packs the outcome into a
// Response. It never panics on bad input; every failure becomes an error
// body whose kind the client can map back to a sentinel.
func CommandDirector(svc DocumentService, action string, req *Request, logger *zap.SugaredLogger) *Response {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if req == nil {
		req = &Request{}
	}

	response, err := dispatch(svc, action, req)
	if err != nil {
		logger.Warnw("Action failed", "action", action, "collection", req.CollectionName, "kind", KindOf(err), "error", err)
		return ErrorResponse(err)
	}
	logger.Debugw("Action succeeded", "action", action, "collection", req.CollectionName)
	return response
}

func dispatch(svc DocumentService, name string, req *Request) (*Response, error) {
	action, err := ParseAction(name)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionGetAllCollections:
		names, err := svc.Collections()
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d collections found.", len(names)),
			Result:  CollectionsResult{Collections: names},
		}, nil

	case ActionGetAllDocuments:
		data, err := svc.Snapshot()
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d documents in %d collections.", data.Documents(), data.Collections()),
			Result:  DatabaseResult{Data: data},
		}, nil
	}

	if err := requireCollection(req); err != nil {
		return nil, err
	}
	name = req.CollectionName

	switch action {
	case ActionCreateCollection:
		if err := svc.CreateCollection(name); err != nil {
			return nil, err
		}
		return &Response{Success: true, Message: fmt.Sprintf("Collection '%s' created successfully.", name)}, nil

	case ActionDropCollection:
		if err := svc.DropCollection(name); err != nil {
			return nil, err
		}
		return &Response{Success: true, Message: fmt.Sprintf("Collection '%s' dropped successfully.", name)}, nil

	case ActionInsert:
		if req.Document == nil {
			return nil, fmt.Errorf("%w: document is required", ErrInvalidRequest)
		}
		if err := svc.Insert(name, engine.Document(req.Document)); err != nil {
			return nil, err
		}
		return &Response{Success: true, Message: fmt.Sprintf("Document inserted into '%s'.", name)}, nil

	case ActionInsertMany:
		if req.Documents == nil {
			return nil, fmt.Errorf("%w: documents is required", ErrInvalidRequest)
		}
		for i, doc := range req.Documents {
			if doc == nil {
				return nil, fmt.Errorf("%w: documents[%d] is not an object", ErrInvalidRequest, i)
			}
		}
		count, err := svc.InsertMany(name, toDocuments(req.Documents))
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d documents inserted into '%s'.", count, name),
			Result:  CountResult{Count: count},
		}, nil

	case ActionFind:
		docs, err := svc.Find(name, engine.Query(req.Query))
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d documents found.", len(docs)),
			Result:  DocumentsResult{Documents: docs},
		}, nil

	case ActionFindByField:
		if req.Field == "" {
			return nil, fmt.Errorf("%w: field is required", ErrInvalidRequest)
		}
		docs, err := svc.FindByField(name, req.Field, req.Value)
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d documents found.", len(docs)),
			Result:  DocumentsResult{Documents: docs},
		}, nil

	case ActionUpdate:
		if err := requireQuery(req); err != nil {
			return nil, err
		}
		if req.Updates == nil {
			return nil, fmt.Errorf("%w: updates is required", ErrInvalidRequest)
		}
		count, err := svc.Update(name, engine.Query(req.Query), engine.Document(req.Updates))
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d documents updated in '%s'.", count, name),
			Result:  CountResult{Count: count},
		}, nil

	case ActionDeleteOne:
		if err := requireQuery(req); err != nil {
			return nil, err
		}
		deleted, err := svc.DeleteOne(name, engine.Query(req.Query))
		if err != nil {
			return nil, err
		}
		message := fmt.Sprintf("No document matched in '%s'.", name)
		if deleted {
			message = fmt.Sprintf("Document deleted from '%s'.", name)
		}
		return &Response{Success: true, Message: message, Result: DeletedResult{Deleted: deleted}}, nil

	case ActionDeleteMany:
		if err := requireQuery(req); err != nil {
			return nil, err
		}
		count, err := svc.DeleteMany(name, engine.Query(req.Query))
		if err != nil {
			return nil, err
		}
		return &Response{
			Success: true,
			Message: fmt.Sprintf("%d documents deleted from '%s'.", count, name),
			Result:  CountResult{Count: count},
		}, nil

	case ActionGetCollection:
		docs, found, err := svc.Collection(name)
		if err != nil {
			return nil, err
		}
		if docs == nil {
			docs = []engine.Document{}
		}
		message := fmt.Sprintf("Collection '%s' has %d documents.", name, len(docs))
		if !found {
			message = fmt.Sprintf("Collection '%s' does not exist.", name)
		}
		return &Response{
			Success: true,
			Message: message,
			Result:  CollectionResult{Found: found, Documents: docs},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
}
