package domain

// OCRResult is the backend response to a document submission.
type OCRResult struct {
	Success         bool   `json:"success"`
	Markdown        string `json:"markdown,omitempty"`
	Error           string `json:"error,omitempty"`
	TokensRemaining int    `json:"tokens_remaining"`
}

// Upload is a file picked by the user for OCR.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Document is the active OCR result held in memory until reset.
type Document struct {
	SourceName string
	Markdown   string
}
