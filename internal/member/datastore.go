package member

import (
	"context"
	"encoding/json"
	"fmt"

	"jccadmin/internal/database"
)

// Datastore handles persistence operations for members.
// Personal and church details are stored as JSON documents.
type Datastore struct {
	db database.DBTX
}

// NewDatastore creates a new member datastore. db may be a pool or a transaction.
func NewDatastore(db database.DBTX) *Datastore {
	return &Datastore{db: db}
}

// List retrieves all members, newest first.
func (ds *Datastore) List(ctx context.Context) ([]*Member, error) {
	query := `
		SELECT id, personal_details, church_details, created_at, updated_at
		FROM members
		ORDER BY created_at DESC, id DESC`

	rows, err := ds.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		var personal, church []byte
		if err := rows.Scan(&m.ID, &personal, &church, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(personal, &m.PersonalDetails); err != nil {
			return nil, fmt.Errorf("member %s: decode personal_details: %w", m.ID, err)
		}
		if err := json.Unmarshal(church, &m.ChurchDetails); err != nil {
			return nil, fmt.Errorf("member %s: decode church_details: %w", m.ID, err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

// ListIDs retrieves every member ID.
func (ds *Datastore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := ds.db.QueryContext(ctx, `SELECT id FROM members`)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Insert adds a member row exactly as given.
func (ds *Datastore) Insert(ctx context.Context, m *Member) error {
	personal, church, err := encodeDetails(m.PersonalDetails, m.ChurchDetails)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO members (id, personal_details, church_details, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = ds.db.ExecContext(ctx, query, m.ID, personal, church, m.CreatedAt, m.UpdatedAt)
	return err
}

// Update replaces a member's personal and church details.
// Returns rows affected count for caller to interpret.
func (ds *Datastore) Update(ctx context.Context, m *Member) (int64, error) {
	personal, church, err := encodeDetails(m.PersonalDetails, m.ChurchDetails)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE members
		SET personal_details = $2, church_details = $3, updated_at = $4
		WHERE id = $1`

	result, err := ds.db.ExecContext(ctx, query, m.ID, personal, church, m.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateChurchDetails replaces only the church details of a member.
// Returns rows affected count for caller to interpret.
func (ds *Datastore) UpdateChurchDetails(ctx context.Context, id string, church ChurchDetails) (int64, error) {
	raw, err := json.Marshal(church)
	if err != nil {
		return 0, fmt.Errorf("encode church_details: %w", err)
	}

	result, err := ds.db.ExecContext(ctx, `UPDATE members SET church_details = $2 WHERE id = $1`, id, string(raw))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete removes a member.
// Returns rows affected count for caller to interpret.
func (ds *Datastore) Delete(ctx context.Context, id string) (int64, error) {
	result, err := ds.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func encodeDetails(p PersonalDetails, c ChurchDetails) (string, string, error) {
	if c.Departments == nil {
		c.Departments = []DepartmentRole{}
	}
	personal, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("encode personal_details: %w", err)
	}
	church, err := json.Marshal(c)
	if err != nil {
		return "", "", fmt.Errorf("encode church_details: %w", err)
	}
	return string(personal), string(church), nil
}
