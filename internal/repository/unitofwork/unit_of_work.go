package unitofwork

import (
	"context"

	"course-buddy-be/internal/repository/contract"
)

// UnitOfWork scopes repositories to one transaction between Begin and
// Commit or Rollback. Outside a transaction they use the plain connection.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	TranscriptChunkRepository() contract.TranscriptChunkRepository
}
