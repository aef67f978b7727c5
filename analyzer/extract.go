package analyzer

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var contentLike = regexp.MustCompile(`(?i)content|post|entry|article`)

const (
	invisibleSelector = "script, style, noscript, nav, header, footer"
	chromeSelector    = "nav, footer, header, aside"
)

// Extract reads the on-page signals of a parsed document. Heading lists are
// capped at maxHeadings; the counts are not.
func Extract(doc *goquery.Document, targetDomain string, maxHeadings int) PageMetadata {
	var meta PageMetadata

	meta.Title = strings.TrimSpace(doc.Find("title").First().Text())
	meta.TitleLength = len([]rune(meta.Title))
	meta.Description = description(doc)
	meta.DescriptionLength = len([]rune(meta.Description))

	meta.H1, meta.H1Count = headings(doc, "h1", maxHeadings)
	meta.H2, meta.H2Count = headings(doc, "h2", maxHeadings)
	meta.H3, meta.H3Count = headings(doc, "h3", maxHeadings)

	meta.Schemas, meta.FAQs = structuredData(doc)
	meta.SchemasCount = len(meta.Schemas)
	meta.FAQsCount = len(meta.FAQs)

	meta.WordCount = wordCount(doc)

	images := doc.Find("img")
	meta.ImagesTotal = images.Length()
	images.Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			meta.ImagesWithoutAlt++
		}
	})

	meta.InternalLinks = internalLinks(doc, targetDomain)
	return meta
}

func description(doc *goquery.Document) string {
	var desc string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if name, _ := s.Attr("name"); strings.EqualFold(name, "description") {
			desc, _ = s.Attr("content")
			desc = strings.TrimSpace(desc)
			return desc == ""
		}
		return true
	})
	if desc != "" {
		return desc
	}
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if prop, _ := s.Attr("property"); strings.EqualFold(prop, "og:description") {
			desc, _ = s.Attr("content")
			desc = strings.TrimSpace(desc)
			return desc == ""
		}
		return true
	})
	return desc
}

func headings(doc *goquery.Document, tag string, max int) ([]string, int) {
	list := []string{}
	total := 0
	doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		total++
		if len(list) < max {
			list = append(list, text)
		}
	})
	return list, total
}

// structuredData parses every JSON-LD block on its own, so one malformed
// block does not hide the others.
func structuredData(doc *goquery.Document) ([]string, []FAQ) {
	schemas := []string{}
	faqs := []FAQ{}
	seen := map[string]bool{}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			return
		}
		walkLD(data, func(types []string, node map[string]any) {
			for _, t := range types {
				if !seen[t] {
					seen[t] = true
					schemas = append(schemas, t)
				}
				if t == "FAQPage" {
					faqs = append(faqs, faqEntries(node["mainEntity"])...)
				}
			}
		})
	})
	return schemas, faqs
}

// walkLD visits every typed node of a JSON-LD document, descending into
// top-level arrays and @graph lists.
func walkLD(v any, visit func(types []string, node map[string]any)) {
	switch n := v.(type) {
	case []any:
		for _, item := range n {
			walkLD(item, visit)
		}
	case map[string]any:
		if types := ldTypes(n["@type"]); len(types) > 0 {
			visit(types, n)
		}
		if graph, ok := n["@graph"]; ok {
			walkLD(graph, visit)
		}
	}
}

func ldTypes(v any) []string {
	switch t := v.(type) {
	case string:
		if t = strings.TrimSpace(t); t != "" {
			return []string{t}
		}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func faqEntries(v any) []FAQ {
	var entities []any
	switch e := v.(type) {
	case []any:
		entities = e
	case map[string]any:
		entities = []any{e}
	}

	var faqs []FAQ
	for _, item := range entities {
		entity, ok := item.(map[string]any)
		if !ok {
			continue
		}
		question, _ := entity["name"].(string)
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}
		faqs = append(faqs, FAQ{Question: question, Answer: answerText(entity["acceptedAnswer"])})
	}
	return faqs
}

func answerText(v any) string {
	switch a := v.(type) {
	case map[string]any:
		text, _ := a["text"].(string)
		return strings.TrimSpace(text)
	case []any:
		if len(a) > 0 {
			return answerText(a[0])
		}
	}
	return ""
}

func wordCount(doc *goquery.Document) int {
	body := doc.Find("body").Clone()
	body.Find(invisibleSelector).Remove()

	count := 0
	for _, n := range body.Nodes {
		count += wordsIn(n)
	}
	return count
}

func wordsIn(n *html.Node) int {
	if n.Type == html.TextNode {
		return len(strings.Fields(n.Data))
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += wordsIn(c)
	}
	return count
}

// mainContent picks the region most likely to hold the article body:
// article, then main, then a content-like class or id, then body.
func mainContent(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("article").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s
	}
	candidate := doc.Find("body [class], body [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		return contentLike.MatchString(class) || contentLike.MatchString(id)
	}).First()
	if candidate.Length() > 0 {
		return candidate
	}
	return doc.Find("body").First()
}

func internalLinks(doc *goquery.Document, targetDomain string) int {
	domain := strings.ToLower(strings.TrimSpace(targetDomain))
	if domain == "" {
		return 0
	}

	region := mainContent(doc).Clone()
	region.Find(chromeSelector).Remove()

	count := 0
	region.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if strings.Contains(strings.ToLower(href), domain) ||
			(strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//")) {
			count++
		}
	})
	return count
}
