package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	writeConflictCode      = 112
	transientTxnErrorLabel = "TransientTransactionError"
)

// isWriteConflict reports errors a transaction raises when another open
// transaction already wrote the same document.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(writeConflictCode) || se.HasErrorLabel(transientTxnErrorLabel)
}
