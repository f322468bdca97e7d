package client

import (
	"context"

	"secdb/src/directors"
	"secdb/src/engine"
)

func (c *Client) CreateCollection(ctx context.Context, name string) error {
	return c.do(ctx, directors.ActionCreateCollection, &directors.Request{CollectionName: name}, nil)
}

func (c *Client) DropCollection(ctx context.Context, name string) error {
	return c.do(ctx, directors.ActionDropCollection, &directors.Request{CollectionName: name}, nil)
}

func (c *Client) Insert(ctx context.Context, collection string, doc engine.Document) error {
	if doc == nil {
		doc = engine.Document{}
	}
	return c.do(ctx, directors.ActionInsert, &directors.Request{CollectionName: collection, Document: doc}, nil)
}

// InsertMany returns the number of documents inserted.
func (c *Client) InsertMany(ctx context.Context, collection string, docs []engine.Document) (int, error) {
	payload := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		if doc == nil {
			doc = engine.Document{}
		}
		payload[i] = doc
	}

	var result directors.CountResult
	err := c.do(ctx, directors.ActionInsertMany, &directors.Request{CollectionName: collection, Documents: payload}, &result)
	return result.Count, err
}

// Find returns the documents matching q. A nil query returns the whole
// collection.
func (c *Client) Find(ctx context.Context, collection string, q engine.Query) ([]engine.Document, error) {
	var result directors.DocumentsResult
	if err := c.do(ctx, directors.ActionFind, &directors.Request{CollectionName: collection, Query: q}, &result); err != nil {
		return nil, err
	}
	return normalizeDocuments(result.Documents), nil
}

func (c *Client) FindByField(ctx context.Context, collection, field string, value interface{}) ([]engine.Document, error) {
	var result directors.DocumentsResult
	req := &directors.Request{CollectionName: collection, Field: field, Value: value}
	if err := c.do(ctx, directors.ActionFindByField, req, &result); err != nil {
		return nil, err
	}
	return normalizeDocuments(result.Documents), nil
}

// Update returns the number of documents matched.
func (c *Client) Update(ctx context.Context, collection string, q engine.Query, updates engine.Document) (int, error) {
	if updates == nil {
		updates = engine.Document{}
	}
	var result directors.CountResult
	req := &directors.Request{CollectionName: collection, Query: orEmpty(q), Updates: updates}
	err := c.do(ctx, directors.ActionUpdate, req, &result)
	return result.Count, err
}

func (c *Client) DeleteOne(ctx context.Context, collection string, q engine.Query) (bool, error) {
	var result directors.DeletedResult
	err := c.do(ctx, directors.ActionDeleteOne, &directors.Request{CollectionName: collection, Query: orEmpty(q)}, &result)
	return result.Deleted, err
}

// DeleteMany returns the number of documents removed.
func (c *Client) DeleteMany(ctx context.Context, collection string, q engine.Query) (int, error) {
	var result directors.CountResult
	err := c.do(ctx, directors.ActionDeleteMany, &directors.Request{CollectionName: collection, Query: orEmpty(q)}, &result)
	return result.Count, err
}

func (c *Client) Collections(ctx context.Context) ([]string, error) {
	var result directors.CollectionsResult
	if err := c.do(ctx, directors.ActionGetAllCollections, nil, &result); err != nil {
		return nil, err
	}
	if result.Collections == nil {
		return []string{}, nil
	}
	return result.Collections, nil
}

// Snapshot returns every collection with its documents.
func (c *Client) Snapshot(ctx context.Context) (engine.Database, error) {
	var result directors.DatabaseResult
	if err := c.do(ctx, directors.ActionGetAllDocuments, nil, &result); err != nil {
		return nil, err
	}
	data := make(engine.Database, len(result.Data))
	for name, docs := range result.Data {
		data[name] = normalizeDocuments(docs)
	}
	return data, nil
}

// Collection returns the named collection; ok is false when it does not
// exist.
func (c *Client) Collection(ctx context.Context, name string) (docs []engine.Document, ok bool, err error) {
	var result directors.CollectionResult
	if err := c.do(ctx, directors.ActionGetCollection, &directors.Request{CollectionName: name}, &result); err != nil {
		return nil, false, err
	}
	if !result.Found {
		return nil, false, nil
	}
	return normalizeDocuments(result.Documents), true, nil
}
