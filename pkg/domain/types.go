package domain

import "time"

// BookFileType identifies the uploaded file format of a user book.
type BookFileType string

const (
	FileTypeTxt BookFileType = "txt"
	FileTypePDF BookFileType = "pdf"
)

// MessageSender identifies who produced a chat message.
type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderBot  MessageSender = "bot"
)

// Book is a shelf entry. Built-in books carry only id, title and cover;
// user-added books additionally hold extracted content and, for PDFs, the
// embedded original payload.
type Book struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Cover      string       `json:"cover"`
	FileType   BookFileType `json:"fileType,omitempty"`
	Content    string       `json:"content,omitempty"`
	PDFDataURL string       `json:"pdfDataUrl,omitempty"`
}

// Photo is an album entry. Curated photos are compile-time constants;
// generated photos are created from assistant image results and persisted.
type Photo struct {
	ID        string `json:"id"`
	Src       string `json:"src"`
	Caption   string `json:"caption"`
	Quote     string `json:"quote"`
	BookTitle string `json:"bookTitle"`
	Date      string `json:"date"`
}

// IsCustom reports whether the photo was generated (and so may be edited
// or deleted).
func (p Photo) IsCustom() bool {
	return IsGeneratedPhoto(p.ID)
}

// ChatMessage is a transient assistant-chat entry. Never persisted.
type ChatMessage struct {
	Sender MessageSender `json:"sender"`
	Text   string        `json:"text,omitempty"`
	Image  string        `json:"image,omitempty"`
}

// PhotoDate renders a timestamp in the album's display format.
func PhotoDate(t time.Time) string {
	return t.Format("2006.01.02")
}
