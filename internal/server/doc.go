// Package server exposes the command dispatcher over HTTP and stdio, and
// streams bus events to websocket viewers.
//
// Routes:
//
//	POST /invoke/{command}   body is the JSON argument object
//	GET  /healthz
//	GET  /metrics            when a metrics path is configured
//	GET  /events             websocket event stream
//
// Every command reply is the dispatcher envelope, {"ok":true,"data":...}
// or {"ok":false,"error":{"code":...,"message":...}}.
package server
