package constants

// Static route constants
const (
	APIRoute     = "/api"
	APIV1Route   = "/v1"
	MetricsRoute = "/metrics"
	// Swagger UI mount point for the published API document
	DocsAPIRoute = "/docs/api/"
)
