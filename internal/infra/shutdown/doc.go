// Package shutdown coordinates graceful process termination.
//
// Components register hooks with OnShutdown as they start; Wait blocks
// until SIGINT, SIGTERM or context cancellation and then runs the hooks in
// reverse registration order under a shared deadline, so the HTTP server
// drains before the storage environment it reads from is closed.
package shutdown
