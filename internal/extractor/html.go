package extractor

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Gmail selectors, tried in order
const (
	bodySelector      = "div.a3s.aiL"
	altBodySelector   = ".message-part"
	anyBodySelector   = ".message-part, .ii.gt, div.a3s.aiL, .msg"
	sourceSelector    = "span.go, .gD, .email"
	headerSelector    = "div.adn, .hI"
	subjectSelector   = "h2.hP, .ha, .message-subject"
	titleSuffix       = " - Gmail"
	titleGenericStart = "Gmail"
)

var skipped = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "template": true, "title": true,
}

var blocks = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// FromHTML extracts Content from a rendered webmail page. It never fails:
// unreadable input yields the placeholder content.
func (e *Extractor) FromHTML(r io.Reader) Content {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		e.logger.Warn("Failed to parse page", zap.Error(err))
		return e.finish(Content{})
	}
	return e.finish(fromDocument(doc))
}

// FromHTMLString is FromHTML on a string
func (e *Extractor) FromHTMLString(page string) Content {
	return e.FromHTML(strings.NewReader(page))
}

func fromDocument(doc *goquery.Document) Content {
	var c Content

	if sel := doc.Find(bodySelector).First(); sel.Length() > 0 {
		c.Text = innerText(sel)
	} else if sel := doc.Find(altBodySelector).First(); sel.Length() > 0 {
		c.Text = innerText(sel)
	} else {
		doc.Find(anyBodySelector).Each(func(_ int, s *goquery.Selection) {
			if text := innerText(s); len(text) > len(c.Text) {
				c.Text = text
			}
		})
	}

	c.Source = strings.TrimSpace(innerText(doc.Find(sourceSelector).First()))
	if c.Source == "" {
		// the last matching header wins
		doc.Find(headerSelector).Each(func(_ int, s *goquery.Selection) {
			text := innerText(s)
			if strings.Contains(text, "@") {
				c.Source = strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
			}
		})
	}

	c.Subject = strings.TrimSpace(innerText(doc.Find(subjectSelector).First()))
	if c.Subject == "" {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		if title != "" && !strings.HasPrefix(title, titleGenericStart) {
			c.Subject = strings.Replace(title, titleSuffix, "", 1)
		}
	}

	if strings.TrimSpace(c.Text) == "" {
		c.Text = innerText(doc.Find("body").First())
	}

	return c
}

// innerText renders a selection roughly the way a browser's innerText
// does: block elements and <br> break lines, invisible elements are skipped
func innerText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		writeText(&b, s)
	})
	return strings.TrimSpace(b.String())
}

func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			b.WriteString(child.Text())
		case name == "br":
			b.WriteString("\n")
		case skipped[name]:
		case blocks[name]:
			b.WriteString("\n")
			writeText(b, child)
			b.WriteString("\n")
		default:
			writeText(b, child)
		}
	})
}
