package schema

// GibiIssueTable represents the 'gibi.issue' table
type GibiIssueTable struct {
	Table           string
	ID              string
	CollectionID    string
	IssueNumber     string
	IsOwned         string
	CoverColor      string
	CoverURL        string
	Name            string
	ConditionRating string
	CreatedAt       string
}

// GibiIssue is the schema definition for gibi.issue
var GibiIssue = GibiIssueTable{
	Table:           "gibi.issue",
	ID:              "id",
	CollectionID:    "collectionid",
	IssueNumber:     "issuenumber",
	IsOwned:         "isowned",
	CoverColor:      "covercolor",
	CoverURL:        "coverurl",
	Name:            "name",
	ConditionRating: "conditionrating",
	CreatedAt:       "createdat",
}

// Columns returns all standard column names
func (t GibiIssueTable) Columns() []string {
	return []string{
		t.ID, t.CollectionID, t.IssueNumber, t.IsOwned, t.CoverColor,
		t.CoverURL, t.Name, t.ConditionRating, t.CreatedAt,
	}
}
