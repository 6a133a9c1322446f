package schema

// ContentChapterLikeTable represents the 'content.chapterlike' table
type ContentChapterLikeTable struct {
	Table     string
	ChapterID string
	UserID    string
	CreatedAt string
}

// ContentChapterLike is the schema definition for content.chapterlike
var ContentChapterLike = ContentChapterLikeTable{
	Table:     "content.chapterlike",
	ChapterID: "chapterid",
	UserID:    "userid",
	CreatedAt: "createdat",
}

func (t ContentChapterLikeTable) Columns() []string {
	return []string{t.ChapterID, t.UserID, t.CreatedAt}
}
