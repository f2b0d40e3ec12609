package models

// Stats are the admin dashboard counts.
type Stats struct {
	ActiveJobs   int64 `json:"active_jobs"`
	Users        int64 `json:"users"`
	Applications int64 `json:"applications"`
}
