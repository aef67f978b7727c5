package analyzer

// ErrorKind classifies why a page could not be analyzed
type ErrorKind string

const (
	KindHTTPStatus  ErrorKind = "http_status"
	KindContentType ErrorKind = "content_type"
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection"
	KindOther       ErrorKind = "other"
)

// FAQ is one question of a FAQPage structured data block
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// PageMetadata holds the on-page signals extracted from one URL. When
// Success is false every count is zero and Error says why.
type PageMetadata struct {
	URL        string    `json:"url"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`

	Title             string `json:"title"`
	TitleLength       int    `json:"title_length"`
	Description       string `json:"description"`
	DescriptionLength int    `json:"description_length"`

	H1      []string `json:"h1_tags"`
	H2      []string `json:"h2_tags"`
	H3      []string `json:"h3_tags"`
	H1Count int      `json:"h1_count"`
	H2Count int      `json:"h2_count"`
	H3Count int      `json:"h3_count"`

	WordCount        int `json:"word_count"`
	ImagesTotal      int `json:"images_total"`
	ImagesWithoutAlt int `json:"images_without_alt"`

	Schemas      []string `json:"schemas"`
	SchemasCount int      `json:"schemas_count"`
	FAQs         []FAQ    `json:"faqs"`
	FAQsCount    int      `json:"faqs_count"`

	InternalLinks int `json:"internal_links"`
}

// Comparison sets a page against the competitors ranking for a keyword.
// Averages only consider competitors that were fetched successfully.
type Comparison struct {
	Keyword     string         `json:"keyword,omitempty"`
	Page        PageMetadata   `json:"page"`
	Competitors []PageMetadata `json:"competitors"`
	Succeeded   int            `json:"succeeded"`

	AvgWordCount float64 `json:"avg_word_count"`
	AvgH2Count   float64 `json:"avg_h2_count"`
	AvgFAQCount  float64 `json:"avg_faq_count"`
	SchemaRatio  float64 `json:"schema_ratio"` // share of competitors with any structured data

	Gaps []string `json:"gaps"`
}
