package linerpc

// Response represents a JSON-RPC 2.0 response object.
//
// Outgoing responses always carry both the result and error members, the
// unused one as JSON null. Incoming responses may omit either member;
// both shapes decode the same way. The ID mirrors the request id and is
// null when the request's own id could not be determined.
//
//nolint:govet //We want order to match protocol examples, even if not required
type Response struct {
	Jsonrpc Version `json:"jsonrpc"`
	Result  Result  `json:"result"`
	Error   Error   `json:"error"`
	ID      ID      `json:"id"`
}

// NewResponseWithResult creates a successful response for a given request
// id and result.
//
// Example:
//
//	resp := linerpc.NewResponseWithResult(int64(1), "pong")
//	// Marshals to: {"jsonrpc":"2.0","result":"pong","error":null,"id":1}
func NewResponseWithResult[I int64 | string](id I, r any) *Response {
	return &Response{ID: NewID(id), Result: NewResult(r)}
}

// NewResponseWithError creates an error response for a given request id.
//
// If e is already an [Error] it is used directly. Otherwise it is mapped
// through the failure taxonomy: invalid-params failures become -32602 and
// anything else is masked as [ErrUnknown].
func NewResponseWithError[I int64 | string](id I, e error) *Response {
	return &Response{ID: NewID(id), Error: asError(e)}
}

// NewResponseError creates an error response with a null id, used when a
// request is malformed and its own id cannot be determined.
func NewResponseError(e error) *Response {
	return &Response{ID: NewNullID(), Error: asError(e)}
}

// IsError returns true if the response contains an error object.
func (r *Response) IsError() bool {
	return !r.Error.IsZero()
}
