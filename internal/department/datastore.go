package department

import (
	"context"

	"jccadmin/internal/database"
)

// Datastore handles persistence operations for departments.
// It performs only database operations and returns raw errors.
// Business logic and error translation belong in the Manager.
type Datastore struct {
	db database.DBTX
}

// NewDatastore creates a new department datastore. db may be a pool or a transaction.
func NewDatastore(db database.DBTX) *Datastore {
	return &Datastore{db: db}
}

// List retrieves all departments, oldest first.
func (ds *Datastore) List(ctx context.Context) ([]*Department, error) {
	query := `
		SELECT id, name, created_at
		FROM departments
		ORDER BY created_at ASC, id ASC`

	rows, err := ds.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var depts []*Department
	for rows.Next() {
		d := &Department{}
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		depts = append(depts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return depts, nil
}

// GetByID retrieves a department by its ID.
// Returns sql.ErrNoRows if not found.
func (ds *Datastore) GetByID(ctx context.Context, id string) (*Department, error) {
	query := `
		SELECT id, name, created_at
		FROM departments
		WHERE id = $1`

	d := &Department{}
	if err := ds.db.QueryRowContext(ctx, query, id).Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// Insert adds a department row exactly as given.
func (ds *Datastore) Insert(ctx context.Context, d *Department) error {
	query := `
		INSERT INTO departments (id, name, created_at)
		VALUES ($1, $2, $3)`

	_, err := ds.db.ExecContext(ctx, query, d.ID, d.Name, d.CreatedAt)
	return err
}

// UpdateName changes a department's name.
// Returns rows affected count for caller to interpret.
func (ds *Datastore) UpdateName(ctx context.Context, id, name string) (int64, error) {
	query := `UPDATE departments SET name = $2 WHERE id = $1`

	result, err := ds.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes a department.
// Returns rows affected count for caller to interpret.
func (ds *Datastore) Delete(ctx context.Context, id string) (int64, error) {
	query := `DELETE FROM departments WHERE id = $1`

	result, err := ds.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
