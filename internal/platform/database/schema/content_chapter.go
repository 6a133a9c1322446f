package schema

// ContentChapterTable represents the 'content.chapter' table
type ContentChapterTable struct {
	Table              string
	ID                 string
	StoryID            string
	Title              string
	Content            string
	ChapterNumber      string
	WordCount          string
	ReadingTimeMinutes string
	Status             string
	ModerationStatus   string
	ModerationNotes    string
	CoinPrice          string
	IsFree             string
	Views              string
	Likes              string
	PublishedAt        string
	CreatedAt          string
	UpdatedAt          string
}

// ContentChapter is the schema definition for content.chapter
var ContentChapter = ContentChapterTable{
	Table:              "content.chapter",
	ID:                 "id",
	StoryID:            "storyid",
	Title:              "title",
	Content:            "content",
	ChapterNumber:      "chapternumber",
	WordCount:          "wordcount",
	ReadingTimeMinutes: "readingtimeminutes",
	Status:             "status",
	ModerationStatus:   "moderationstatus",
	ModerationNotes:    "moderationnotes",
	CoinPrice:          "coinprice",
	IsFree:             "isfree",
	Views:              "views",
	Likes:              "likes",
	PublishedAt:        "publishedat",
	CreatedAt:          "createdat",
	UpdatedAt:          "updatedat",
}

func (t ContentChapterTable) Columns() []string {
	return []string{
		t.ID, t.StoryID, t.Title, t.Content, t.ChapterNumber, t.WordCount, t.ReadingTimeMinutes,
		t.Status, t.ModerationStatus, t.ModerationNotes, t.CoinPrice, t.IsFree, t.Views, t.Likes,
		t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	}
}
