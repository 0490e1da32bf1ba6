package api

// ErrorResponse is the body of every failed request
// @Description Error returned by the API
type ErrorResponse struct {
	// Human readable message
	Error string `json:"error" example:"repository not tracked"`
	// Application error type
	Type string `json:"type,omitempty" example:"NOT_FOUND"`
}

// TrackRepositoryRequest names a repository to start tracking
// @Description Repository to track, as owner/name or a repository URL
type TrackRepositoryRequest struct {
	Repository string `json:"repository" binding:"required" example:"octo/widgets"`
}

// HealthResponse reports liveness and store connectivity
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}
