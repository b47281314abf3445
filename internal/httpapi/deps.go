package httpapi

import (
	"treasury-engine/internal/metrics"
	"treasury-engine/internal/store"
)

// Deps is everything the read-only API serves from.
type Deps struct {
	Jobs      store.JobStore
	Prospects store.ProspectStore

	// DB is the optional SQLite mirror. When set, /jobs reads the
	// jobs_table view and gains company score and tier columns.
	DB *store.DB

	Metrics *metrics.Metrics

	AllowedOrigins []string
}
