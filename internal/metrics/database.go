package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterDBStats exposes database/sql pool statistics for db under the
// given name. Registering the same name twice is a no-op.
func RegisterDBStats(db *sql.DB, name string) error {
	if db == nil {
		return nil
	}
	err := Registry.Register(collectors.NewDBStatsCollector(db, name))
	if err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
