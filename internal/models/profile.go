// internal/models/profile.go
package models

// UserProfile holds optional demographic attributes. Nil pointers mean the attribute is unknown.
type UserProfile struct {
	UserID       string   `json:"userId,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	Occupation   string   `json:"occupation,omitempty"`
	AnnualIncome *float64 `json:"annualIncome,omitempty"`
	LocationType string   `json:"locationType,omitempty"`
	FamilySize   *int     `json:"familySize,omitempty"`
	Landholding  *float64 `json:"landholding,omitempty"` // hectares
	State        string   `json:"state,omitempty"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
}

// IsEmpty reports whether no attribute usable for scoring is set.
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Age == nil && p.Gender == "" && p.Occupation == "" && p.AnnualIncome == nil &&
		p.LocationType == "" && p.FamilySize == nil && p.Landholding == nil
}

// Merge returns a copy of p with any attribute set on override taking precedence.
func (p *UserProfile) Merge(override *UserProfile) *UserProfile {
	if p == nil {
		return override
	}
	if override == nil {
		return p
	}
	out := *p
	if override.UserID != "" {
		out.UserID = override.UserID
	}
	if override.Age != nil {
		out.Age = override.Age
	}
	if override.Gender != "" {
		out.Gender = override.Gender
	}
	if override.Occupation != "" {
		out.Occupation = override.Occupation
	}
	if override.AnnualIncome != nil {
		out.AnnualIncome = override.AnnualIncome
	}
	if override.LocationType != "" {
		out.LocationType = override.LocationType
	}
	if override.FamilySize != nil {
		out.FamilySize = override.FamilySize
	}
	if override.Landholding != nil {
		out.Landholding = override.Landholding
	}
	if override.State != "" {
		out.State = override.State
	}
	if override.Email != "" {
		out.Email = override.Email
	}
	if override.Phone != "" {
		out.Phone = override.Phone
	}
	return &out
}
