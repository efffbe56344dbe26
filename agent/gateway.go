// CLAUDE:SUMMARY Public gateway constructors wrapping the internal SQLite and Supabase catalogs.
package agent

import (
	"database/sql"

	"github.com/idrismusa4/afridata/agent/internal/store"
	"github.com/idrismusa4/afridata/agent/internal/supabase"
)

// NewSQLiteGateway creates a catalog gateway backed by a local SQLite
// database. The schema is applied on creation.
func NewSQLiteGateway(db *sql.DB) (Gateway, error) {
	return store.New(db)
}

// SupabaseConfig configures the hosted Supabase gateway.
type SupabaseConfig struct {
	URL string // project URL, e.g. https://xyz.supabase.co
	Key string // service or anon key
}

// NewSupabaseGateway creates a catalog gateway backed by a Supabase
// project's PostgREST endpoint.
func NewSupabaseGateway(cfg SupabaseConfig) (Gateway, error) {
	return supabase.New(supabase.Config{URL: cfg.URL, Key: cfg.Key})
}
