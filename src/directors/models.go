package directors

import (
	"secdb/src/engine"
)

// Action names one DocumentStore operation on the wire.
type Action string

const (
	ActionCreateCollection  Action = "create_collection"
	ActionDropCollection    Action = "drop_collection"
	ActionInsert            Action = "insert"
	ActionInsertMany        Action = "insert_many"
	ActionFind              Action = "find"
	ActionFindByField       Action = "find_by_field"
	ActionUpdate            Action = "update"
	ActionDeleteOne         Action = "delete_one"
	ActionDeleteMany        Action = "delete_many"
	ActionGetAllCollections Action = "get_all_collections"
	ActionGetAllDocuments   Action = "get_all_documents"
	ActionGetCollection     Action = "get_collection"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionCreateCollection,
	ActionDropCollection,
	ActionInsert,
	ActionInsertMany,
	ActionFind,
	ActionFindByField,
	ActionUpdate,
	ActionDeleteOne,
	ActionDeleteMany,
	ActionGetAllCollections,
	ActionGetAllDocuments,
	ActionGetCollection,
}

// Transport-level error kinds, on top of the engine taxonomy.
const (
	KindInvalidAction  engine.Kind = "InvalidAction"
	KindInvalidRequest engine.Kind = "InvalidRequest"
	KindUnauthorized   engine.Kind = "Unauthorized"
)

// Request carries the inputs of any action. Each action reads only the
// fields it needs. A nil map means the field was absent; an empty map is
// a present but empty value, so none of the fields use omitempty.
type Request struct {
	CollectionName string                   `json:"collection_name" bson:"collection_name"`
	Document       map[string]interface{}   `json:"document" bson:"document"`
	Documents      []map[string]interface{} `json:"documents" bson:"documents"`
	Query          map[string]interface{}   `json:"query" bson:"query"`
	Field          string                   `json:"field" bson:"field"`
	Value          interface{}              `json:"value" bson:"value"`
	Updates        map[string]interface{}   `json:"updates" bson:"updates"`
}

// ErrorBody describes a failed action.
type ErrorBody struct {
	Kind    engine.Kind `json:"kind" bson:"kind"`
	Message string      `json:"message" bson:"message"`
}

// Response is the envelope returned for every action.
type Response struct {
	Success bool        `json:"success" bson:"success"`
	Message string      `json:"message,omitempty" bson:"message,omitempty"`
	Result  interface{} `json:"result,omitempty" bson:"result,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty" bson:"error,omitempty"`
}

// DocumentsResult is returned by find and find_by_field.
type DocumentsResult struct {
	Documents []engine.Document `json:"documents" bson:"documents"`
}

// CollectionResult is returned by get_collection. Found is false when the
// collection does not exist.
type CollectionResult struct {
	Found     bool              `json:"found" bson:"found"`
	Documents []engine.Document `json:"documents" bson:"documents"`
}

// CountResult is returned by insert_many (inserted), update (matched) and
// delete_many (deleted).
type CountResult struct {
	Count int `json:"count" bson:"count"`
}

// DeletedResult is returned by delete_one.
type DeletedResult struct {
	Deleted bool `json:"deleted" bson:"deleted"`
}

// CollectionsResult is returned by get_all_collections.
type CollectionsResult struct {
	Collections []string `json:"collections" bson:"collections"`
}

// DatabaseResult is returned by get_all_documents.
type DatabaseResult struct {
	Data engine.Database `json:"data" bson:"data"`
}
