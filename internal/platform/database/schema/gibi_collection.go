package schema

// GibiCollectionTable represents the 'gibi.collection' table
type GibiCollectionTable struct {
	Table     string
	ID        string
	UserID    string
	Title     string
	Publisher string
	StartYear string
	CoverURL  string
	CreatedAt string
}

// GibiCollection is the schema definition for gibi.collection
var GibiCollection = GibiCollectionTable{
	Table:     "gibi.collection",
	ID:        "id",
	UserID:    "userid",
	Title:     "title",
	Publisher: "publisher",
	StartYear: "startyear",
	CoverURL:  "coverurl",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t GibiCollectionTable) Columns() []string {
	return []string{t.ID, t.UserID, t.Title, t.Publisher, t.StartYear, t.CoverURL, t.CreatedAt}
}
