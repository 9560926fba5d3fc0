// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown renders post content to sanitized HTML and derives
// presentation metadata (excerpts, reading time) from raw markdown.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultExcerptLength is the maximum number of characters in a
// generated excerpt, before the trailing ellipsis.
const DefaultExcerptLength = 160

// wordsPerMinute is the assumed adult reading speed.
const wordsPerMinute = 200

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

var sanitizer = bluemonday.UGCPolicy()

// Render converts markdown to HTML and sanitizes the result. Post
// content is author-supplied, so script injection is stripped even
// though authors are trusted more than commenters.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return sanitizer.Sanitize(buf.String()), nil
}

var (
	headingRe    = regexp.MustCompile(`(?m)#{1,6}\s`)
	boldRe       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.+?)\*`)
	linkRe       = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
	inlineCodeRe = regexp.MustCompile("`(.+?)`")
	fencedRe     = regexp.MustCompile("(?s)```.*?```")
	spaceRe      = regexp.MustCompile(`\s+`)
)

// StripMarkup collapses markdown to plain text: heading markers are
// removed, emphasis and inline code keep their inner text, links keep
// the link text, and fenced code blocks are dropped entirely.
func StripMarkup(source string) string {
	s := fencedRe.ReplaceAllString(source, "")
	s = headingRe.ReplaceAllString(s, "")
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = linkRe.ReplaceAllString(s, "$1")
	s = inlineCodeRe.ReplaceAllString(s, "$1")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Excerpt generates a short plain-text summary from markdown content.
// The result is truncated to DefaultExcerptLength characters with a
// trailing "..." when the source text is longer.
func Excerpt(source string) string {
	plain := []rune(StripMarkup(source))
	if len(plain) <= DefaultExcerptLength {
		return string(plain)
	}
	return strings.TrimSpace(string(plain[:DefaultExcerptLength])) + "..."
}

// ReadingTime estimates reading time in whole minutes at 200 words per
// minute, rounding up. Every post reads for at least one minute.
func ReadingTime(source string) int {
	words := len(strings.Fields(StripMarkup(source)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
