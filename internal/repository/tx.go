package repository

import "gorm.io/gorm"

// WithTransaction runs fn inside a database transaction. The transaction
// commits only if fn returns nil; any error or panic rolls back every write
// made through the tx handle. All money-moving sequences (wallet pay, webhook
// confirmation, fund release, withdrawal) go through here.
func WithTransaction(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(fn)
}
