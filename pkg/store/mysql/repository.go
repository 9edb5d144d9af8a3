package mysql

import "context"

// Repository aggregates the MySQL repositories
type Repository struct {
	ds *Datastore

	Worker *WorkerRepository
}

// NewRepository opens dsn and migrates the worker cache table
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}

	repo := &Repository{
		ds:     ds,
		Worker: NewWorkerRepository(ds),
	}
	if err := repo.Worker.AutoMigrate(ctx); err != nil {
		ds.Close()
		return nil, err
	}
	return repo, nil
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
