package httpx

import "net/http"

const (
	StatusOK                 = http.StatusOK                    // Successful request
	StatusCreated            = http.StatusCreated               // Resource created
	StatusNoContent          = http.StatusNoContent             // Successful with no body
	StatusBadRequest         = http.StatusBadRequest            // Validation or malformed input
	StatusNotFound           = http.StatusNotFound              // Resource not found
	StatusRequestTooLarge    = http.StatusRequestEntityTooLarge // Body over the accepted size
	StatusTooManyRequests    = http.StatusTooManyRequests       // Rate limiting or quotas
	StatusInternalError      = http.StatusInternalServerError   // Unexpected server error
	StatusBadGateway         = http.StatusBadGateway            // Upstream answered with an error
	StatusServiceUnavailable = http.StatusServiceUnavailable    // Dependency failure or maintenance
	StatusGatewayTimeout     = http.StatusGatewayTimeout        // Upstream did not answer in time
)
