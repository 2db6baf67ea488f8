// Package dispatcher routes named commands to handlers and coordinates
// execution.
//
// The dispatcher is the single entry point for every transport (HTTP,
// stdio). A command is a name plus a JSON object of arguments; the reply is
// a JSON envelope:
//
//	{"ok":true,"data":{...}}
//	{"ok":false,"error":{"code":"invalid_argument","message":"..."}}
//
// # Handler Execution
//
// When a command is dispatched:
//
//  1. The arguments are validated as a JSON object
//  2. The registry finds the handler by exact name
//  3. The handler runs, with panic recovery unless disabled
//  4. Errors are classified into a stable Code
//  5. Metrics are recorded (if enabled)
//  6. Post-dispatch hooks are called
//
// # Handlers
//
// Handlers implement the Handler interface:
//
//	type Handler interface {
//	    Handle(ctx context.Context, args Args) (any, error)
//	}
//
// The returned value becomes the "data" member of the reply and is encoded
// with encoding/json rules. Returning an *Error selects the reply code;
// other errors go through the classifier and default to CodeInternal.
//
// # Thread Safety
//
// Dispatch may be called concurrently. Handlers must do their own locking.
package dispatcher
