// Package http provides the HTTP surface of the service: a root status
// endpoint reporting project identity and the configured backend, and a
// health probe that runs a liveness query through a scoped database
// session. Routing is built on chi with optional CORS.
package http
