// Package format maps raw portal records into the stable output schema:
// plain-text rendering of HTML content, image URL extraction, and the fixed
// author/status/category shapes.
package format

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"featurebase-scraper/pkg/portal"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	squeezeRe    = regexp.MustCompile(`_+`)
	nonWordRe    = regexp.MustCompile(`[^\w\-]`)
)

// StripHTML renders HTML content as plain text: tags replaced by spaces,
// whitespace runs collapsed, result trimmed.
func StripHTML(content string) string {
	if content == "" {
		return ""
	}
	text := tagRe.ReplaceAllString(content, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ExtractImages collects the src of every <img> in content, in document
// order, duplicates kept. Each URL is reduced to origin+path (query string
// dropped); a src that does not parse as an absolute URL is kept verbatim.
func ExtractImages(content string) []string {
	if content == "" {
		return []string{}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return []string{}
	}
	images := []string{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return
		}
		u, err := url.Parse(src)
		if err != nil || u.Scheme == "" || u.Host == "" {
			images = append(images, src)
			return
		}
		images = append(images, u.Scheme+"://"+u.Host+u.Path)
	})
	return images
}

// SanitizeFilename reduces a display name to a filesystem-safe token:
// lowercased, spaces to underscores, everything outside [\w-] removed,
// underscore runs squeezed, leading/trailing underscores trimmed. An empty
// result becomes "unknown".
func SanitizeFilename(name string) string {
	s := whitespaceRe.ReplaceAllString(strings.ToLower(name), "_")
	s = nonWordRe.ReplaceAllString(s, "")
	s = squeezeRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

func formatAuthor(u *portal.RawUser) *portal.Author {
	if u == nil {
		return nil
	}
	return &portal.Author{
		ID:      u.ID,
		Name:    u.Name,
		Picture: u.Picture,
		Type:    u.Type,
	}
}

// Comment formats a single raw comment and its replies, recursively. A
// comment's date falls back from createdAt to date.
func Comment(c portal.RawComment) portal.Comment {
	date := c.CreatedAt
	if date == "" {
		date = c.Date
	}
	out := portal.Comment{
		ID:          c.ID,
		Content:     c.Content,
		ContentText: StripHTML(c.Content),
		Author:      formatAuthor(c.User),
		Date:        date,
		Upvotes:     c.Upvotes,
		Replies:     []portal.Comment{},
	}
	for _, reply := range c.Replies {
		out.Replies = append(out.Replies, Comment(reply))
	}
	return out
}

// Post formats one raw detail record into the stable output shape. Returns
// nil only for nil input.
func Post(raw *portal.RawPost) *portal.Post {
	if raw == nil {
		return nil
	}

	comments := []portal.Comment{}
	for _, c := range raw.Comments {
		comments = append(comments, Comment(c))
	}

	var status *portal.Status
	if raw.PostStatus != nil {
		status = &portal.Status{Name: raw.PostStatus.Name, Type: raw.PostStatus.Type}
	}
	var category *portal.Category
	if raw.PostCategory != nil {
		category = &portal.Category{Name: raw.PostCategory.Category, Icon: raw.PostCategory.Icon}
	}

	tags := raw.PostTags
	if len(tags) == 0 || string(tags) == "null" {
		tags = json.RawMessage("[]")
	}

	return &portal.Post{
		ID:           raw.ID,
		Slug:         raw.Slug,
		Title:        raw.Title,
		Content:      raw.Content,
		ContentText:  StripHTML(raw.Content),
		Submitter:    formatAuthor(raw.User),
		Date:         raw.Date,
		LastModified: raw.LastModified,
		Status:       status,
		Category:     category,
		Upvotes:      raw.Upvotes,
		CommentCount: raw.CommentCount,
		Comments:     comments,
		Tags:         tags,
		Images:       ExtractImages(raw.Content),
		Pinned:       raw.Pinned,
	}
}

// Posts formats a slice of raw records, dropping nil entries.
func Posts(raws []*portal.RawPost) []*portal.Post {
	out := make([]*portal.Post, 0, len(raws))
	for _, raw := range raws {
		if p := Post(raw); p != nil {
			out = append(out, p)
		}
	}
	return out
}

// RoadmapItem formats a raw roadmap item, tagging it with its section name.
func RoadmapItem(raw *portal.RawPost, sectionName string) *portal.Post {
	p := Post(raw)
	if p == nil {
		return nil
	}
	p.RoadmapSection = sectionName
	return p
}

// RoadmapItems formats a slice of raw roadmap items for one section.
func RoadmapItems(raws []*portal.RawPost, sectionName string) []*portal.Post {
	out := make([]*portal.Post, 0, len(raws))
	for _, raw := range raws {
		if p := RoadmapItem(raw, sectionName); p != nil {
			out = append(out, p)
		}
	}
	return out
}
