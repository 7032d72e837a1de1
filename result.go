package linerpc

// Result represents the result member of a [Response].
//
// Result is an alias for [Data]. When a response is unmarshalled the
// member's JSON value is stored internally as a [json.RawMessage]; use
// [Data.Unmarshal] to decode it into a Go type.
type Result = Data

// NewResult returns a new [Result] holding v. A nil v represents an
// explicit JSON null result.
func NewResult(v any) Result {
	return Result{present: true, value: v}
}
