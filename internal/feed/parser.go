// Package feed fetches and parses Nitter RSS feeds for OSINT sources.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Item is one tweet extracted from a source feed.
type Item struct {
	Published   time.Time
	ID          string
	Title       string
	Link        string
	Author      string
	Description string
	Images      []string
}

// Feed is a parsed source feed.
type Feed struct {
	Title       string
	Link        string
	Description string
	Items       []Item
}

type rssDoc struct {
	Channel struct {
		Title       string    `xml:"title"`
		Link        string    `xml:"link"`
		Description string    `xml:"description"`
		Items       []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	PubDate     string `xml:"pubDate"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Creator     string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Description string `xml:"description"`
}

var (
	cdataRe = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`\s+`)
	imgRe   = regexp.MustCompile(`<img[^>]+src="([^"]+)"`)
)

// cleanHTML strips CDATA wrappers and HTML tags and collapses whitespace.
func cleanHTML(text string) string {
	if text == "" {
		return ""
	}
	text = cdataRe.ReplaceAllString(text, "$1")
	text = tagRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractImages pulls image URLs out of the raw description HTML before
// cleanHTML discards the tags.
func extractImages(text string) []string {
	matches := imgRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	images := make([]string, 0, len(matches))
	for _, m := range matches {
		images = append(images, rewriteHost(m[1]))
	}
	return images
}

// rewriteHost replaces local Nitter hosts with the public site so stored
// links and bodies point at real URLs.
func rewriteHost(s string) string {
	s = strings.ReplaceAll(s, "localhost:8080", "x.com")
	s = strings.ReplaceAll(s, "localhost", "x.com")
	return s
}

// pubDateFormats are the timestamp layouts seen in Nitter RSS output.
var pubDateFormats = []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822}

func parsePubDate(s string) (time.Time, error) {
	for _, layout := range pubDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate %q", s)
}

// Parse reads a Nitter RSS document and returns the items authored by the
// given account (Nitter feeds include retweeted content from other authors).
func Parse(r io.Reader, author string) (*Feed, error) {
	var doc rssDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rss: %w", err)
	}

	feed := &Feed{
		Title:       doc.Channel.Title,
		Link:        doc.Channel.Link,
		Description: cleanHTML(doc.Channel.Description),
	}

	for _, item := range doc.Channel.Items {
		if item.Creator != author {
			continue
		}

		published, err := parsePubDate(item.PubDate)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.GUID, err)
		}

		feed.Items = append(feed.Items, Item{
			Title:       cleanHTML(rewriteHost(item.Title)),
			Published:   published,
			Link:        rewriteHost(item.Link),
			ID:          item.GUID,
			Author:      item.Creator,
			Description: cleanHTML(rewriteHost(item.Description)),
			Images:      extractImages(item.Description),
		})
	}

	return feed, nil
}
