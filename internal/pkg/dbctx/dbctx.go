package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Aggregate write flows pass it to repos so every read/write lands on the
// same transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
