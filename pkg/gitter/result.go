package gitter

import (
	"bytes"
	"encoding/json"
)

// Result is the outcome of one Transport call. It either holds a JSON
// document or is empty; an empty Result keeps the reason in Err for
// diagnostics. Callers that only need "did I get anything" check Empty.
type Result struct {
	method     string
	path       string
	statusCode int
	body       json.RawMessage
	cause      error
}

func dataResult(method, path string, statusCode int, body []byte) Result {
	return Result{method: method, path: path, statusCode: statusCode, body: body}
}

func emptyResult(method, path string, statusCode int, cause error) Result {
	return Result{method: method, path: path, statusCode: statusCode, cause: cause}
}

// parseResult turns a 2xx response body into a Result. Whitespace-only,
// null and malformed bodies all collapse to an empty Result.
func parseResult(method, path string, statusCode int, body []byte) Result {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return emptyResult(method, path, statusCode, errEmptyBody)
	}
	var raw json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return emptyResult(method, path, statusCode, err)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return emptyResult(method, path, statusCode, errNullBody)
	}
	return dataResult(method, path, statusCode, trimmed)
}

// Empty reports whether the call produced no data.
func (r Result) Empty() bool {
	return len(r.body) == 0
}

// Raw returns the response document, or nil when the Result is empty.
func (r Result) Raw() json.RawMessage {
	return r.body
}

// StatusCode returns the HTTP status, or 0 if no response was received.
func (r Result) StatusCode() int {
	return r.statusCode
}

// Err returns nil for a Result with data, and a *NoDataError otherwise.
func (r Result) Err() error {
	if !r.Empty() {
		return nil
	}
	return &NoDataError{
		Method:     r.method,
		Path:       r.path,
		StatusCode: r.statusCode,
		Cause:      r.cause,
	}
}

// Decode unmarshals the document into v. A document that does not fit v
// is treated like any other unusable body: the error wraps ErrNoData.
func (r Result) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return &NoDataError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: r.statusCode,
			Cause:      err,
		}
	}
	return nil
}
