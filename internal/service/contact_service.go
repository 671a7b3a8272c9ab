package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
	"github.com/precisesoft/ConnectKit-sub000/internal/repository"
	"github.com/precisesoft/ConnectKit-sub000/internal/utils"
	"go.uber.org/zap"
)

// contactService implements ContactService
type contactService struct {
	repo   repository.ContactRepository
	cache  ContactCache
	logger *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(repo repository.ContactRepository, cache ContactCache, logger *zap.Logger) ContactService {
	return &contactService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Create adds a contact to the owner's set. A duplicate email within that
// set is a conflict; the same email under another owner is not.
func (s *contactService) Create(ctx context.Context, userID string, req *dto.ContactRequest) (*domain.Contact, error) {
	contact := contactFromRequest(userID, req)

	if err := s.repo.Create(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicateContactEmail) {
			return nil, domain.NewConflict("a contact with this email already exists")
		}
		return nil, domain.NewInternal(err)
	}

	return contact, nil
}

// Get fetches a single contact, cache-aside: the cached copy is used only
// when it belongs to the requesting user.
func (s *contactService) Get(ctx context.Context, userID, id string) (*domain.Contact, error) {
	if cached := s.cache.Get(ctx, id); cached != nil && cached.UserID == userID {
		return cached, nil
	}

	contact, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewNotFound("contact not found")
		}
		return nil, domain.NewInternal(err)
	}

	s.cache.Set(ctx, contact)

	return contact, nil
}

// List returns a filtered page of the owner's contacts
func (s *contactService) List(ctx context.Context, userID string, filter domain.ContactFilter) (*dto.ContactListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidation("invalid status %q", filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 100 {
		filter.PerPage = 20
	}

	contacts, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, domain.NewInternal(err)
	}
	if contacts == nil {
		contacts = []*domain.Contact{}
	}

	return &dto.ContactListResponse{
		Contacts: contacts,
		Total:    total,
		Page:     filter.Page,
		PerPage:  filter.PerPage,
	}, nil
}

// Update replaces a contact's mutable fields
func (s *contactService) Update(ctx context.Context, userID, id string, req *dto.ContactRequest) (*domain.Contact, error) {
	contact := contactFromRequest(userID, req)
	contact.ID = id

	if err := s.repo.Update(ctx, contact); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NewNotFound("contact not found")
		case errors.Is(err, repository.ErrDuplicateContactEmail):
			return nil, domain.NewConflict("a contact with this email already exists")
		}
		return nil, domain.NewInternal(err)
	}

	s.cache.Invalidate(ctx, id)

	updated, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, domain.NewInternal(err)
	}

	return updated, nil
}

// Delete soft-deletes a contact
func (s *contactService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.SoftDelete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewNotFound("contact not found")
		}
		return domain.NewInternal(err)
	}

	s.cache.Invalidate(ctx, id)

	return nil
}

var exportHeader = []string{
	"first_name", "last_name", "email", "phone", "company",
	"address_line", "city", "country", "tags", "status", "favorite",
}

// ExportCSV writes all the owner's live contacts as CSV
func (s *contactService) ExportCSV(ctx context.Context, userID string, w io.Writer) error {
	contacts, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return domain.NewInternal(err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return domain.NewInternal(err)
	}

	for _, contact := range contacts {
		record := []string{
			contact.FirstName,
			contact.LastName,
			deref(contact.Email),
			deref(contact.Phone),
			deref(contact.Company),
			deref(contact.AddressLine),
			deref(contact.City),
			deref(contact.Country),
			strings.Join(contact.Tags, ";"),
			string(contact.Status),
			fmt.Sprintf("%t", contact.IsFavorite),
		}
		if err := writer.Write(record); err != nil {
			return domain.NewInternal(err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return domain.NewInternal(err)
	}

	return nil
}

func contactFromRequest(userID string, req *dto.ContactRequest) *domain.Contact {
	status := domain.ContactStatus(req.Status)
	if status == "" {
		status = domain.ContactStatusActive
	}

	contact := &domain.Contact{
		UserID:      userID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Company:     req.Company,
		AddressLine: req.AddressLine,
		City:        req.City,
		Country:     req.Country,
		Tags:        req.Tags,
		Status:      status,
		IsFavorite:  req.IsFavorite,
		Metadata:    req.Metadata,
	}

	if contact.Email != nil {
		sanitized := utils.SanitizeIdentifier(*contact.Email)
		contact.Email = &sanitized
	}
	if contact.Tags == nil {
		contact.Tags = []string{}
	}
	if contact.Metadata == nil {
		contact.Metadata = map[string]string{}
	}

	return contact
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
