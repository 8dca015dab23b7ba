package core

// ExportData is the full backup document: every load, flat expense record,
// company, and the singleton profile. JSON field names mirror the entity
// attributes; import tolerates missing arrays and a missing profile.
type ExportData struct {
	Loads       []Load          `json:"loads,omitempty"`
	Expenses    []ExpenseRecord `json:"expenses,omitempty"`
	Companies   []Company       `json:"companies,omitempty"`
	UserProfile *UserProfile    `json:"user_profile,omitempty"`
}
