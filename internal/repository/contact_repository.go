package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/pkg/database"
)

const contactColumns = `id, user_id, first_name, last_name, email, phone, company,
		address_line, city, country, tags, status, is_favorite, metadata, created_at, updated_at`

// contactRepository implements ContactRepository over database/sql
type contactRepository struct {
	db *database.Postgres
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *database.Postgres) ContactRepository {
	return &contactRepository{db: db}
}

// Create creates a new contact for its owning user
func (r *contactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (id, user_id, first_name, last_name, email, phone, company,
			address_line, city, country, tags, status, is_favorite, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.Status == "" {
		contact.Status = domain.ContactStatusActive
	}

	now := time.Now()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	if contact.UpdatedAt.IsZero() {
		contact.UpdatedAt = now
	}

	metadata, err := marshalMetadata(contact.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.DB.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Company,
		contact.AddressLine,
		contact.City,
		contact.Country,
		pq.Array(contact.Tags),
		contact.Status,
		contact.IsFavorite,
		metadata,
		contact.CreatedAt,
		contact.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateContactEmail
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a live contact scoped to its owner
func (r *contactRepository) GetByID(ctx context.Context, userID, id string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	contact, err := scanContact(r.db.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contact with id %s not found: %w", id, ErrNotFound)
		}
		return nil, err
	}

	return contact, nil
}

// List returns a filtered page of the owner's live contacts and the total count
func (r *contactRepository) List(ctx context.Context, userID string, filter domain.ContactFilter) ([]*domain.Contact, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	where := []string{"user_id = $1", "deleted_at IS NULL"}
	args := []any{userID}

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d OR LOWER(COALESCE(company, '')) LIKE $%d)",
			n, n, n, n))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.IsFavorite != nil {
		args = append(args, *filter.IsFavorite)
		where = append(where, fmt.Sprintf("is_favorite = $%d", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + whereClause
	if err := r.db.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE %s
		ORDER BY last_name, first_name, created_at
		LIMIT $%d OFFSET $%d`, contactColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts, err := collectContacts(rows)
	if err != nil {
		return nil, 0, err
	}

	return contacts, total, nil
}

// ListAll returns every live contact of the owner, for export
func (r *contactRepository) ListAll(ctx context.Context, userID string) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + `
		FROM contacts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY last_name, first_name, created_at`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	return collectContacts(rows)
}

// Update updates a contact's mutable fields, scoped to its owner
func (r *contactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6, company = $7,
			address_line = $8, city = $9, country = $10, tags = $11, status = $12,
			is_favorite = $13, metadata = $14, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	metadata, err := marshalMetadata(contact.Metadata)
	if err != nil {
		return err
	}

	result, err := r.db.DB.ExecContext(ctx, query,
		contact.ID,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Company,
		contact.AddressLine,
		contact.City,
		contact.Country,
		pq.Array(contact.Tags),
		contact.Status,
		contact.IsFavorite,
		metadata,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateContactEmail
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("contact with id %s", contact.ID))
}

// SoftDelete marks a contact as deleted without removing the row
func (r *contactRepository) SoftDelete(ctx context.Context, userID, id string) error {
	query := `
		UPDATE contacts
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete contact: %w", err)
	}

	return checkAffected(result, fmt.Sprintf("contact with id %s", id))
}

func collectContacts(rows *sql.Rows) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	contact := &domain.Contact{}
	var email, phone, company, addressLine, city, country sql.NullString
	var tags pq.StringArray
	var metadata []byte

	err := row.Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&email,
		&phone,
		&company,
		&addressLine,
		&city,
		&country,
		&tags,
		&contact.Status,
		&contact.IsFavorite,
		&metadata,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}

	contact.Email = nullableString(email)
	contact.Phone = nullableString(phone)
	contact.Company = nullableString(company)
	contact.AddressLine = nullableString(addressLine)
	contact.City = nullableString(city)
	contact.Country = nullableString(country)
	contact.Tags = tags

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &contact.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode contact metadata: %w", err)
		}
	}
	if contact.Metadata == nil {
		contact.Metadata = map[string]string{}
	}
	if contact.Tags == nil {
		contact.Tags = []string{}
	}

	return contact, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		m = map[string]string{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contact metadata: %w", err)
	}
	return data, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
