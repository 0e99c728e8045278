package repomanager

import (
	"context"
	"database/sql"

	"github.com/avilrenovations/estimates/internal/dbx"
	"github.com/avilrenovations/estimates/internal/server/repositories/submissions"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	Submissions(db dbx.DBTX) submissions.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
