package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"secdb/src/directors"
	"secdb/src/helpers"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeBSON = "application/bson"
)

// codecFor picks the wire format from a Content-Type header. Anything
// other than BSON is treated as JSON.
func codecFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType == ContentTypeBSON {
		return ContentTypeBSON
	}
	return ContentTypeJSON
}

// decodeRequest reads the action payload. An empty body is an empty
// Request.
func decodeRequest(r *http.Request, codec string) (*directors.Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", directors.ErrInvalidRequest, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: reading body: %w", directors.ErrInvalidRequest, err)
	}

	req := &directors.Request{}
	if len(body) == 0 {
		return req, nil
	}

	if codec == ContentTypeBSON {
		if err := helpers.DecodeBSON(body, req); err != nil {
			return nil, fmt.Errorf("%w: %w", directors.ErrInvalidRequest, err)
		}
		normalizeRequest(req)
		return req, nil
	}

	if err := helpers.DecodeJSON(body, req); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON body: %w", directors.ErrInvalidRequest, err)
	}
	return req, nil
}

// normalizeRequest replaces the driver's document and array types with
// plain maps and slices.
func normalizeRequest(req *directors.Request) {
	req.Document = normalizeMap(req.Document)
	req.Query = normalizeMap(req.Query)
	req.Updates = normalizeMap(req.Updates)
	for i, doc := range req.Documents {
		req.Documents[i] = normalizeMap(doc)
	}
	req.Value = helpers.NormalizeBSON(req.Value)
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	return helpers.NormalizeBSON(m).(map[string]interface{})
}

func encodeResponse(resp *directors.Response, codec string) ([]byte, error) {
	if codec == ContentTypeBSON {
		return helpers.EncodeBSON(resp)
	}
	return json.Marshal(resp)
}
