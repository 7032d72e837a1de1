// Package linerpc implements a JSON-RPC 2.0 framework for line-framed
// byte streams.
//
// # Overview
//
// Every message on a stream transport is a single JSON object terminated
// by CR LF. Servers read one request per line, dispatch it through a
// [MethodMux], and write exactly one response per line. Clients correlate
// responses with in-flight requests by id, so replies may arrive in any
// order. A one-shot HTTP/1.0 client transport is also provided for peers
// that speak JSON-RPC over plain HTTP.
//
// Requests must carry an id and positional (array) params; notifications,
// by-name params, and batch requests are not part of the protocol
// implemented here.
//
// # Features
//
//   - Line-framed stream transport with a 128 KiB per-message cap ([Server], [Client]).
//   - Multi-endpoint listening: every address a host resolves to is bound ([NewServer]).
//   - Typed method handlers with reflection-driven parameter marshalling ([MethodFunc]).
//   - One-shot HTTP/1.0 client transport ([HTTPClient]) and an [http.Handler] adapter ([HTTPHandler]).
//   - Pooled stream clients with retry on transient transport errors ([ClientPool]).
//   - Structured logging through an injected [zerolog.Logger]; the zero value logs nothing.
//   - Lifecycle hooks via [Callbacks] for decode failures, encode failures, and handler panics.
//
// # Server
//
//	srv, err := linerpc.NewServer(ctx, "localhost:9090")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	srv.Register("sum", linerpc.MethodFunc(func(ctx context.Context, a, b int) (int, error) {
//		return a + b, nil
//	}, "a", "b"))
//
//	if err := srv.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer srv.Close()
//
// # Client
//
//	c := linerpc.NewClient()
//	if err := c.Connect(ctx, "localhost", 9090); err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	res, err := c.Call(ctx, "sum", linerpc.NewParamsArray([]int{1, 2}))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if res.Failed() {
//		rpcErr, _ := res.RPCError()
//		log.Fatalf("rpc error %d: %s", rpcErr.Code(), rpcErr.Message())
//	}
//
//	var sum int
//	_ = res.Unmarshal(&sum)
//
// [jsonrpc2 protocol]: https://www.jsonrpc.org/specification
package linerpc

import (
	"encoding/json"
)

var nullValue = json.RawMessage("null") // The JSON `null` value.

// Marshal is the function used to marshal Go values into JSON. It defaults
// to [encoding/json.Marshal] and may be replaced at startup with a
// compatible function from another JSON library.
var Marshal = json.Marshal

// Unmarshal is the function used to unmarshal JSON into Go values. It
// defaults to [encoding/json.Unmarshal] and may be replaced at startup
// with a compatible function from another JSON library.
var Unmarshal = json.Unmarshal
