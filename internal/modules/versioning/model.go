package versioning

// statusResponse is the body of GET /bucket-versioning/status.
type statusResponse struct {
	Enabled bool `json:"enabled"`
}

// deleteResponse is the body of DELETE /bucket-versioning/delete/:key. The
// field is absent when the backend created no delete marker (unversioned
// bucket).
type deleteResponse struct {
	DeleteVersionID string `json:"deleteVersionId,omitempty"`
}
