package insight

import (
	"strings"
	"text/template"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

const systemPrompt = "You are an SEO expert who helps content teams decide how to refresh existing pages. " +
	"Be specific and actionable, and base every suggestion on the metrics you are given."

// maxPromptHeadings bounds the H2 list sent to the model
const maxPromptHeadings = 10

var insightTemplate = template.Must(template.New("insight").Parse(
	`Analyze this URL and give one actionable insight (two sentences at most).

URL: {{.Row.URL}}
Current position: {{printf "%.1f" .Row.PositionCurrent}}
Position change: {{printf "%+.1f" .Row.PositionChange}}%
{{.Metric}}: {{printf "%.0f" .Traffic}}
{{.Metric}} change: {{printf "%+.1f" .Row.TrafficChange}}%
Impressions: {{printf "%.0f" .Row.ImpressionsCurrent}}
CTR: {{printf "%.1f" .Row.CTRCurrent}}%
{{- if .Row.FellFromPage1}}
The page fell off the first results page.
{{- end}}

Say exactly WHAT to do to improve it.`))

var recommendTemplate = template.Must(template.New("recommend").Funcs(template.FuncMap{"join": strings.Join}).Parse(
	`Write a refresh plan for this page.

URL: {{.Row.URL}}
Current position: {{printf "%.1f" .Row.PositionCurrent}} (previous {{printf "%.1f" .Row.PositionPrevious}})
{{.Metric}}: {{printf "%.0f" .Traffic}} ({{printf "%+.1f" .Row.TrafficChange}}%)
Opportunity score: {{printf "%.1f" .Row.Score}}
{{if .Page.Success}}
Page title: {{.Page.Title}} ({{.Page.TitleLength}} characters)
Meta description: {{if .Page.Description}}{{.Page.Description}} ({{.Page.DescriptionLength}} characters){{else}}missing{{end}}
Word count: {{.Page.WordCount}}
H1 count: {{.Page.H1Count}}, H2 count: {{.Page.H2Count}}, H3 count: {{.Page.H3Count}}
{{- if .Headings}}
H2 headings:
{{- range .Headings}}
- {{.}}
{{- end}}
{{- end}}
Images without alt text: {{.Page.ImagesWithoutAlt}} of {{.Page.ImagesTotal}}
Structured data: {{if .Page.Schemas}}{{join .Page.Schemas ", "}}{{else}}none{{end}}
FAQ questions: {{.Page.FAQsCount}}
Internal links: {{.Page.InternalLinks}}
{{else}}
The page itself could not be analyzed{{if .Page.Error}} ({{.Page.Error}}){{end}}.
{{end}}
{{- with .Comparison}}
Competitors for "{{.Keyword}}" ({{.Succeeded}} analyzed):
Average word count: {{printf "%.0f" .AvgWordCount}}
Average H2 count: {{printf "%.1f" .AvgH2Count}}
Average FAQ count: {{printf "%.1f" .AvgFAQCount}}
Share with structured data: {{printf "%.0f" .SchemaPercent}}%
{{- if .Gaps}}
Gaps:
{{- range .Gaps}}
- {{.}}
{{- end}}
{{- end}}
{{end}}
{{- if .Links}}
Suggested internal links from pages that rank well:
{{- range .Links}}
- {{.URL}} (position {{printf "%.1f" .Position}})
{{- end}}
{{end}}
Answer with: 1) content changes, 2) on-page SEO fixes, 3) structured data to add, 4) internal links to add.`))

type insightData struct {
	Row     scoring.ScoredRow
	Metric  string
	Traffic float64
}

type comparisonData struct {
	*analyzer.Comparison
	SchemaPercent float64
}

type recommendData struct {
	insightData
	Page       analyzer.PageMetadata
	Headings   []string
	Comparison *comparisonData
	Links      []scoring.LinkTarget
}

func newInsightData(row scoring.ScoredRow) insightData {
	metric := "Clicks"
	if row.HasSessions {
		metric = "Sessions"
	}
	return insightData{Row: row, Metric: metric, Traffic: row.CurrentTraffic()}
}

func renderInsight(row scoring.ScoredRow) (string, error) {
	var b strings.Builder
	if err := insightTemplate.Execute(&b, newInsightData(row)); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderRecommend(row scoring.ScoredRow, page analyzer.PageMetadata, cmp *analyzer.Comparison, links []scoring.LinkTarget) (string, error) {
	data := recommendData{
		insightData: newInsightData(row),
		Page:        page,
		Headings:    page.H2,
		Links:       links,
	}
	if len(data.Headings) > maxPromptHeadings {
		data.Headings = data.Headings[:maxPromptHeadings]
	}
	if cmp != nil {
		data.Comparison = &comparisonData{Comparison: cmp, SchemaPercent: cmp.SchemaRatio * 100}
	}

	var b strings.Builder
	if err := recommendTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
