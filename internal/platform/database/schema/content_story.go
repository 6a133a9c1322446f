package schema

// ContentStoryTable represents the 'content.story' table
type ContentStoryTable struct {
	Table            string
	ID               string
	AuthorID         string
	Title            string
	Slug             string
	Description      string
	Status           string
	ContentType      string
	ModerationStatus string
	TotalChapters    string
	TotalViews       string
	TotalLikes       string
	PublishedAt      string
	CreatedAt        string
	UpdatedAt        string
}

// ContentStory is the schema definition for content.story
var ContentStory = ContentStoryTable{
	Table:            "content.story",
	ID:               "id",
	AuthorID:         "authorid",
	Title:            "title",
	Slug:             "slug",
	Description:      "description",
	Status:           "status",
	ContentType:      "contenttype",
	ModerationStatus: "moderationstatus",
	TotalChapters:    "totalchapters",
	TotalViews:       "totalviews",
	TotalLikes:       "totallikes",
	PublishedAt:      "publishedat",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}

func (t ContentStoryTable) Columns() []string {
	return []string{
		t.ID, t.AuthorID, t.Title, t.Slug, t.Description, t.Status, t.ContentType,
		t.ModerationStatus, t.TotalChapters, t.TotalViews, t.TotalLikes, t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	}
}
