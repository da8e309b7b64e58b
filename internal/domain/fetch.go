package domain

import "context"

// Backend endpoints, relative to the configured base URL.
const (
	EndpointHealth        = "health"
	EndpointStores        = "stores"
	EndpointProblemStores = "problem_stores"
	EndpointInsights      = "insights"
	EndpointFeedback      = "feedback"
)

// Request is one call against the backend. Path is relative to the base URL.
type Request struct {
	Endpoint string // metric label, one of the Endpoint constants
	Method   string
	Path     string
	Body     []byte
}

// Response is the raw outcome of a Request that reached the server.
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher performs a single backend request. Transport failures and
// timeouts are reported as *NetworkError; any status code is returned
// as a Response.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Response, error)
}
