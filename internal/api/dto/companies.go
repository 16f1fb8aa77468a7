package dto

import (
	"strings"

	"github.com/hugh/go-companies/internal/api/validation"
	"github.com/hugh/go-companies/internal/database/models"
)

const (
	companyNameMax    = 50
	companyAddressMax = 200
)

type CreateCompanyRequest struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Address     string  `json:"address"`
	DateCreated string  `json:"date_created"`
	Logo        *string `json:"logo"`
}

func (r CreateCompanyRequest) Validate() map[string]string {
	errors := make(map[string]string)

	switch {
	case strings.TrimSpace(r.Name) == "":
		errors["name"] = msgRequired
	case validation.TooLong(r.Name, companyNameMax):
		errors["name"] = maxLength(companyNameMax)
	}
	if r.URL != "" && !validation.IsValidURL(r.URL) {
		errors["url"] = "Enter a valid URL."
	}
	if validation.TooLong(r.Address, companyAddressMax) {
		errors["address"] = maxLength(companyAddressMax)
	}
	if r.DateCreated == "" {
		errors["date_created"] = msgRequired
	} else if _, ok := validation.ParseDate(r.DateCreated); !ok {
		errors["date_created"] = "Date has wrong format. Use YYYY-MM-DD."
	}

	return errors
}

// Model converts a validated request into a company.
func (r CreateCompanyRequest) Model() *models.Company {
	date, _ := validation.ParseDate(r.DateCreated)
	return &models.Company{
		Name:        strings.TrimSpace(r.Name),
		URL:         r.URL,
		Address:     r.Address,
		DateCreated: date,
		Logo:        r.Logo,
	}
}

// UpdateCompanyRequest is a partial update; nil fields are left alone.
type UpdateCompanyRequest struct {
	Name        *string `json:"name"`
	URL         *string `json:"url"`
	Address     *string `json:"address"`
	DateCreated *string `json:"date_created"`
	Logo        *string `json:"logo"`
}

func (r UpdateCompanyRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name != nil {
		switch {
		case strings.TrimSpace(*r.Name) == "":
			errors["name"] = msgBlank
		case validation.TooLong(*r.Name, companyNameMax):
			errors["name"] = maxLength(companyNameMax)
		}
	}
	if r.URL != nil && *r.URL != "" && !validation.IsValidURL(*r.URL) {
		errors["url"] = "Enter a valid URL."
	}
	if r.Address != nil && validation.TooLong(*r.Address, companyAddressMax) {
		errors["address"] = maxLength(companyAddressMax)
	}
	if r.DateCreated != nil {
		if _, ok := validation.ParseDate(*r.DateCreated); !ok {
			errors["date_created"] = "Date has wrong format. Use YYYY-MM-DD."
		}
	}

	return errors
}

// Apply copies the set fields onto company.
func (r UpdateCompanyRequest) Apply(company *models.Company) {
	if r.Name != nil {
		company.Name = strings.TrimSpace(*r.Name)
	}
	if r.URL != nil {
		company.URL = *r.URL
	}
	if r.Address != nil {
		company.Address = *r.Address
	}
	if r.DateCreated != nil {
		company.DateCreated, _ = validation.ParseDate(*r.DateCreated)
	}
	if r.Logo != nil {
		company.Logo = r.Logo
	}
}

type CompanyResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Address     string  `json:"address"`
	DateCreated string  `json:"date_created"`
	Logo        *string `json:"logo"`
}

func NewCompanyResponse(c *models.Company) CompanyResponse {
	return CompanyResponse{
		ID:          c.ID,
		Name:        c.Name,
		URL:         c.URL,
		Address:     c.Address,
		DateCreated: c.DateCreated.Format(validation.DateLayout),
		Logo:        c.Logo,
	}
}

func NewCompanyList(companies []models.Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		out = append(out, NewCompanyResponse(&companies[i]))
	}
	return out
}

// CompanySummary is the company snapshot attached to listed users.
type CompanySummary struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Address     string `json:"address"`
	DateCreated string `json:"date Created"`
}

func NewCompanySummary(c *models.Company) *CompanySummary {
	if c == nil {
		return nil
	}
	return &CompanySummary{
		Name:        c.Name,
		URL:         c.URL,
		Address:     c.Address,
		DateCreated: c.DateCreated.Format(validation.DateLayout),
	}
}
