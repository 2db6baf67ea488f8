// Package script runs sandboxed Lua drawing scripts against a canvas.
//
// Each Run gets a fresh gopher-lua state with only the base, table, string
// and math libraries. Functions that load code from disk or strings are
// removed. Scripts draw with a small set of globals:
//
//	line(x1, y1, x2, y2, "#RRGGBB")
//	rect(x1, y1, x2, y2, "#RRGGBB")
//	clear()
//	WIDTH, HEIGHT
//
// print writes to the runner's logger. Execution is bounded by a timeout,
// enforced through the state's context, and by a cap on drawing calls.
package script
