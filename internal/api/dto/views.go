package dto

import "github.com/hugh/go-companies/internal/database/models"

// EmployeeResponse is a user inside the full company view, with its posts.
type EmployeeResponse struct {
	UserResponse
	Posts []PostResponse `json:"posts"`
}

// CompanyFullResponse is a company with its employees and their posts.
type CompanyFullResponse struct {
	CompanyResponse
	Employees []EmployeeResponse `json:"employees"`
}

// BuildCompanyFullView joins companies, users and posts in memory. Companies
// keep their order; users and posts keep the order they were passed in.
func BuildCompanyFullView(companies []models.Company, users []models.User, posts []models.Post) []CompanyFullResponse {
	postsByUser := make(map[uint][]PostResponse)
	for i := range posts {
		p := &posts[i]
		postsByUser[p.UserID] = append(postsByUser[p.UserID], NewPostResponse(p))
	}

	employeesByCompany := make(map[uint][]EmployeeResponse)
	for i := range users {
		u := &users[i]
		if u.CompanyID == nil {
			continue
		}
		userPosts := postsByUser[u.ID]
		if userPosts == nil {
			userPosts = []PostResponse{}
		}
		employeesByCompany[*u.CompanyID] = append(employeesByCompany[*u.CompanyID], EmployeeResponse{
			UserResponse: NewUserResponse(u),
			Posts:        userPosts,
		})
	}

	out := make([]CompanyFullResponse, 0, len(companies))
	for i := range companies {
		c := &companies[i]
		employees := employeesByCompany[c.ID]
		if employees == nil {
			employees = []EmployeeResponse{}
		}
		out = append(out, CompanyFullResponse{
			CompanyResponse: NewCompanyResponse(c),
			Employees:       employees,
		})
	}
	return out
}
