package engine

// Document is a schema-less record. Values are limited to the JSON type
// set: string, float64, bool, nil, map[string]interface{} and
// []interface{}. Integers beyond 2^53 are held as json.Number so they
// keep every digit.
type Document map[string]interface{}

// Query is a set of field/value equality constraints. A nil or empty
// query matches every document.
type Query map[string]interface{}

// Database maps collection names to their documents in stored order.
// It is the unit of persistence: the whole value is written on every
// mutation.
type Database map[string][]Document

// Collections returns the number of collections.
func (db Database) Collections() int {
	return len(db)
}

// Documents returns the total number of documents across collections.
func (db Database) Documents() int {
	total := 0
	for _, docs := range db {
		total += len(docs)
	}
	return total
}

// shallowCopy returns a new top-level map sharing the collection slices.
// Mutations build new slices instead of editing shared ones, so the copy
// can be changed without touching db.
func (db Database) shallowCopy() Database {
	out := make(Database, len(db)+1)
	for name, docs := range db {
		out[name] = docs
	}
	return out
}
