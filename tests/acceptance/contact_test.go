package acceptance

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/precisesoft/ConnectKit-sub000/internal/domain"
	"github.com/precisesoft/ConnectKit-sub000/internal/dto"
)

func strPtr(s string) *string {
	return &s
}

func (s *Suite) createContact(token string, req dto.ContactRequest) domain.Contact {
	resp := s.postJSON("/api/v1/contacts", req, token)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, "contact creation should succeed")

	var contact domain.Contact
	s.decode(resp, &contact)
	return contact
}

func (s *Suite) TestContacts_RequireAuth() {
	resp := s.doJSON(http.MethodGet, "/api/v1/contacts", nil, "")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestContacts_Create() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")

	contact := s.createContact(auth.AccessToken, dto.ContactRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     strPtr("Grace@Example.com"),
		Tags:      []string{"navy"},
	})

	s.NotEmpty(contact.ID)
	s.Equal(auth.User.ID, contact.UserID)
	s.Equal("grace@example.com", *contact.Email)
	s.Equal(domain.ContactStatusActive, contact.Status)
}

func (s *Suite) TestContacts_DuplicateEmailPerOwner() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")
	other := s.registerAndLogin("other@example.com", "other", "Password123")

	s.createContact(auth.AccessToken, dto.ContactRequest{
		FirstName: "Grace",
		Email:     strPtr("grace@example.com"),
	})

	// same owner, same email: conflict
	resp := s.postJSON("/api/v1/contacts", dto.ContactRequest{
		FirstName: "Grace Again",
		Email:     strPtr("grace@example.com"),
	}, auth.AccessToken)
	defer resp.Body.Close()
	s.Equal(http.StatusConflict, resp.StatusCode)

	// different owner, same email: fine
	s.createContact(other.AccessToken, dto.ContactRequest{
		FirstName: "Other Grace",
		Email:     strPtr("grace@example.com"),
	})
}

func (s *Suite) TestContacts_GetScopedToOwner() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")
	other := s.registerAndLogin("other@example.com", "other", "Password123")

	contact := s.createContact(auth.AccessToken, dto.ContactRequest{FirstName: "Grace"})

	mine := s.doJSON(http.MethodGet, "/api/v1/contacts/"+contact.ID, nil, auth.AccessToken)
	defer mine.Body.Close()
	s.Equal(http.StatusOK, mine.StatusCode)

	theirs := s.doJSON(http.MethodGet, "/api/v1/contacts/"+contact.ID, nil, other.AccessToken)
	defer theirs.Body.Close()
	s.Equal(http.StatusNotFound, theirs.StatusCode, "another owner's contact does not exist for this user")
}

func (s *Suite) TestContacts_ListWithFilters() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")

	s.createContact(auth.AccessToken, dto.ContactRequest{
		FirstName: "Grace", Company: strPtr("Navy"), Tags: []string{"work"}, IsFavorite: true,
	})
	s.createContact(auth.AccessToken, dto.ContactRequest{
		FirstName: "Alan", Status: "archived",
	})

	var list dto.ContactListResponse

	all := s.doJSON(http.MethodGet, "/api/v1/contacts", nil, auth.AccessToken)
	s.Equal(http.StatusOK, all.StatusCode)
	s.decode(all, &list)
	s.Equal(2, list.Total)

	archived := s.doJSON(http.MethodGet, "/api/v1/contacts?status=archived", nil, auth.AccessToken)
	s.decode(archived, &list)
	s.Equal(1, list.Total)
	s.Equal("Alan", list.Contacts[0].FirstName)

	favorites := s.doJSON(http.MethodGet, "/api/v1/contacts?favorite=true", nil, auth.AccessToken)
	s.decode(favorites, &list)
	s.Equal(1, list.Total)
	s.Equal("Grace", list.Contacts[0].FirstName)

	tagged := s.doJSON(http.MethodGet, "/api/v1/contacts?tag=work", nil, auth.AccessToken)
	s.decode(tagged, &list)
	s.Equal(1, list.Total)

	searched := s.doJSON(http.MethodGet, "/api/v1/contacts?search=navy", nil, auth.AccessToken)
	s.decode(searched, &list)
	s.Equal(1, list.Total)
}

func (s *Suite) TestContacts_ListRejectsUnknownStatus() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")

	resp := s.doJSON(http.MethodGet, "/api/v1/contacts?status=bogus", nil, auth.AccessToken)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestContacts_Update() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")

	contact := s.createContact(auth.AccessToken, dto.ContactRequest{FirstName: "Grace"})

	resp := s.doJSON(http.MethodPut, "/api/v1/contacts/"+contact.ID, dto.ContactRequest{
		FirstName: "Grace",
		LastName:  "Hopper",
		Status:    "inactive",
	}, auth.AccessToken)
	s.Equal(http.StatusOK, resp.StatusCode)

	var updated domain.Contact
	s.decode(resp, &updated)
	s.Equal("Hopper", updated.LastName)
	s.Equal(domain.ContactStatusInactive, updated.Status)
}

func (s *Suite) TestContacts_Delete() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")

	contact := s.createContact(auth.AccessToken, dto.ContactRequest{FirstName: "Grace"})

	resp := s.doJSON(http.MethodDelete, "/api/v1/contacts/"+contact.ID, nil, auth.AccessToken)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	gone := s.doJSON(http.MethodGet, "/api/v1/contacts/"+contact.ID, nil, auth.AccessToken)
	defer gone.Body.Close()
	s.Equal(http.StatusNotFound, gone.StatusCode)
}

func (s *Suite) TestContacts_ExportCSV() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")
	other := s.registerAndLogin("other@example.com", "other", "Password123")

	s.createContact(auth.AccessToken, dto.ContactRequest{
		FirstName: "Grace",
		Email:     strPtr("grace@example.com"),
	})
	s.createContact(other.AccessToken, dto.ContactRequest{FirstName: "Stranger"})

	resp := s.doJSON(http.MethodGet, "/api/v1/contacts/export", nil, auth.AccessToken)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Type"), "text/csv")
	s.Contains(resp.Header.Get("Content-Disposition"), "attachment")

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	s.Len(lines, 2, "header plus the owner's single contact")
	s.Contains(lines[0], "first_name")
	s.Contains(lines[1], "grace@example.com")
	s.NotContains(string(body), "Stranger")
}

func (s *Suite) TestContacts_ListPagination() {
	auth := s.registerAndLogin("owner@example.com", "owner", "Password123")

	for i := 0; i < 3; i++ {
		s.createContact(auth.AccessToken, dto.ContactRequest{
			FirstName: fmt.Sprintf("Contact%d", i),
		})
	}

	resp := s.doJSON(http.MethodGet, "/api/v1/contacts?page=1&perPage=2", nil, auth.AccessToken)
	s.Equal(http.StatusOK, resp.StatusCode)

	var list dto.ContactListResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()

	s.Equal(3, list.Total)
	s.Len(list.Contacts, 2)
	s.Equal(2, list.PerPage)
}
