package database

import (
	"context"
	"fmt"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
)

// instance implements DataManager interface
type instance struct {
	db        *DB
	userRepo  contract.UserRepo
	indexRepo contract.IndexRepo
}

// NewInstance creates a new database instance with all repositories
func NewInstance(db *DB) contract.DataManager {
	instance := repoInstancesWithConn(db.conn)
	instance.db = db
	return instance
}

// repoInstancesWithConn creates repository instances with custom dbConn
func repoInstancesWithConn(db dbConn) *instance {
	return &instance{
		userRepo:  newUserRepo(db, time.Now),
		indexRepo: newIndexRepo(db),
	}
}

func (i *instance) User() contract.UserRepo {
	return i.userRepo
}

func (i *instance) Index() contract.IndexRepo {
	return i.indexRepo
}

// WithTransaction executes a function within a database transaction.
// Calling it on a DataManager that is already inside a transaction runs fn in that transaction.
func (i *instance) WithTransaction(ctx context.Context, fn func(dm contract.DataManager) error) error {
	if i.db == nil {
		return fn(i)
	}

	tx, err := i.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txInstance := repoInstancesWithConn(tx)
	err = fn(txInstance)
	if err != nil {
		rbErr := tx.Rollback()
		if rbErr != nil {
			return fmt.Errorf("error rolling back transaction: %v, original error: %w", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}
