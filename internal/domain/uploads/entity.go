package uploads

import "time"

// MaxSize is the largest accepted contract file.
const MaxSize = 10 << 20

// ContentTypes maps accepted extensions to the stored content type.
var ContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain; charset=utf-8",
}

// Upload describes a stored contract file. Text and Blocks are only filled
// for plain text uploads.
type Upload struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Key         string    `json:"key"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PageCount   *int      `json:"page_count,omitempty"`
	Text        string    `json:"text,omitempty"`
	Blocks      []string  `json:"blocks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
