package linerpc

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Handler defines the interface for processing requests.
//
// Handle receives the request context and the decoded [Request]. It
// returns a result value that is marshalled into the response, or an
// error on failure.
//
// Error handling:
//   - If the returned error is, or wraps, an [Error], that error is sent
//     to the caller verbatim.
//   - An [InvalidParamsError] is sent as code -32602 with its message.
//   - Any other error is masked as [ErrUnknown]; details stay server-side.
type Handler interface {
	Handle(ctx context.Context, req *Request) (result any, err error)
}

// NewFuncHandler wraps f to create a [Handler], allowing a plain function
// to serve as a handler without a struct type.
//
//nolint:ireturn //Helper function intentionally returns the interface type.
func NewFuncHandler(f func(context.Context, *Request) (any, error)) Handler {
	return &funcHandler{funcHandle: f}
}

// funcHandler adapts a function to the Handler interface.
type funcHandler struct {
	funcHandle func(context.Context, *Request) (any, error)
}

func (fh *funcHandler) Handle(ctx context.Context, req *Request) (any, error) {
	return fh.funcHandle(ctx, req)
}

// MethodMux routes requests to [Handler] implementations by method name.
// Method names are case-sensitive and unique; registering a name twice
// replaces the earlier handler.
//
// A MethodMux itself implements [Handler] and is safe for concurrent
// registration and dispatch.
type MethodMux struct {
	mux sync.Map // map[string]Handler
}

// NewMethodMux creates and returns a new [*MethodMux].
func NewMethodMux() *MethodMux {
	return &MethodMux{}
}

// Register associates a [Handler] with a method name. A handler already
// registered under the same name is replaced.
func (mm *MethodMux) Register(method string, handler Handler) {
	mm.mux.Store(method, handler)
}

// RegisterFunc associates a handler function with a method name, wrapping
// it with [NewFuncHandler]. A handler already registered under the same
// name is replaced.
func (mm *MethodMux) RegisterFunc(method string, f func(context.Context, *Request) (any, error)) {
	mm.Register(method, NewFuncHandler(f))
}

// Lookup returns the handler registered under method, if any.
//
//nolint:ireturn //Lookup intentionally returns the interface type.
func (mm *MethodMux) Lookup(method string) (Handler, bool) {
	value, ok := mm.mux.Load(method)
	if !ok {
		return nil, false
	}

	//nolint:errcheck //Internally managed, values are always Handlers.
	return value.(Handler), true
}

// Delete removes the handler associated with method. Unknown names are a
// no-op.
func (mm *MethodMux) Delete(method string) {
	mm.mux.Delete(method)
}

// Clear removes every registered handler.
func (mm *MethodMux) Clear() {
	mm.mux.Range(func(key, _ any) bool {
		mm.mux.Delete(key)
		return true
	})
}

// Methods returns the names of all registered methods in no particular
// order.
func (mm *MethodMux) Methods() []string {
	methods := make([]string, 0)

	//nolint:errcheck //Internally managed, keys are always strings.
	mm.mux.Range(func(key, _ any) bool { methods = append(methods, key.(string)); return true })

	return methods
}

// Handle implements [Handler]. It dispatches to the handler registered
// for the request's method, or fails with [ErrMethodNotFound] carrying
// the unknown name in the data member.
func (mm *MethodMux) Handle(ctx context.Context, req *Request) (any, error) {
	handler, ok := mm.Lookup(req.Method)
	if !ok {
		return nil, ErrMethodNotFound.WithData(req.Method + " is not a registered method.")
	}

	return handler.Handle(ctx, req)
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// MethodFunc wraps an ordinary typed function as a [Handler].
//
// fn must have the form
//
//	func(ctx context.Context, a1 T1, ..., an Tn) (R, error)
//
// where the R return is optional. The synthesized handler checks that the
// request params are a positional array of exactly n elements, converts
// each element into its declared type, invokes fn, and marshals the
// return value. Conversion failures are reported to the caller as
// invalid-params errors naming the argument.
//
// Arguments are named arg0 through argN in error messages unless names
// are given, in which case exactly one name per argument is required.
//
// MethodFunc panics if fn does not have a supported signature;
// registration is the place to find that out.
func MethodFunc(fn any, names ...string) Handler { //nolint:ireturn //Helper function intentionally returns the interface type.
	fv := reflect.ValueOf(fn)
	ft := fv.Type()

	if ft.Kind() != reflect.Func {
		panic("linerpc: MethodFunc requires a function, got " + ft.String())
	}

	if ft.IsVariadic() {
		panic("linerpc: MethodFunc does not support variadic functions")
	}

	if ft.NumIn() < 1 || ft.In(0) != contextType {
		panic("linerpc: MethodFunc requires func(context.Context, ...)")
	}

	if ft.NumOut() < 1 || ft.NumOut() > 2 || ft.Out(ft.NumOut()-1) != errorType {
		panic("linerpc: MethodFunc requires the last return to be error")
	}

	argc := ft.NumIn() - 1

	if len(names) > 0 && len(names) != argc {
		panic(fmt.Sprintf("linerpc: MethodFunc got %d names for %d arguments", len(names), argc))
	}

	types := make([]reflect.Type, argc)
	argNames := make([]string, argc)

	for i := range argc {
		types[i] = ft.In(i + 1)

		if len(names) > 0 {
			argNames[i] = names[i]
		} else {
			argNames[i] = fmt.Sprintf("arg%d", i)
		}
	}

	return &methodFunc{fn: fv, types: types, names: argNames, hasResult: ft.NumOut() == 2}
}

type methodFunc struct {
	fn        reflect.Value
	types     []reflect.Type
	names     []string
	hasResult bool
}

func (mf *methodFunc) Handle(ctx context.Context, req *Request) (any, error) {
	args, err := unpackParams(&req.Params, mf.types, mf.names)
	if err != nil {
		return nil, err
	}

	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, reflect.ValueOf(ctx))
	in = append(in, args...)

	out := mf.fn.Call(in)

	if errv := out[len(out)-1]; !errv.IsNil() {
		//nolint:errcheck //The signature check pins the last return to error.
		return nil, errv.Interface().(error)
	}

	if !mf.hasResult {
		return nil, nil
	}

	return encodeResult(out[0].Interface())
}
