// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer imports blog content from markdown files with YAML
// front matter, the interchange format most static site generators use.
package transfer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inkpress/internal/markdown"
	"inkpress/internal/model"
	"inkpress/internal/store"
	"inkpress/internal/util"
)

var frontMatterDelimiter = []byte("---")

// FrontMatter is the metadata block at the top of an import file.
// Title and Date are required; Draft defaults to false.
type FrontMatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags"`
	Excerpt string   `yaml:"excerpt"`
	Author  string   `yaml:"author"`
	Draft   bool     `yaml:"draft"`
	Slug    string   `yaml:"slug"`
}

// Document is one parsed import file.
type Document struct {
	Path    string
	Meta    FrontMatter
	Content string
	Date    time.Time
}

// Result summarizes an import run.
type Result struct {
	Imported int
	Skipped  int
	Errors   []FileError
}

// FileError ties a validation or write failure to its source file.
type FileError struct {
	Path    string
	Message string
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (r *Result) addError(path, message string) {
	r.Errors = append(r.Errors, FileError{Path: path, Message: message})
}

// Importer loads markdown documents into the posts table.
type Importer struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger

	// AuthorID is the fallback author for files without a resolvable
	// author field.
	AuthorID int64
}

// NewImporter creates a new Importer.
func NewImporter(db *sql.DB, logger *slog.Logger, authorID int64) *Importer {
	return &Importer{
		db:       db,
		queries:  store.New(db),
		logger:   logger,
		AuthorID: authorID,
	}
}

// Parse splits a markdown file into front matter and content and
// validates the front matter contract. The slug falls back from the
// front matter to the file name to the title, in that order.
func Parse(path string, raw []byte) (*Document, error) {
	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	var fm FrontMatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}

	fm.Title = strings.TrimSpace(fm.Title)
	if fm.Title == "" {
		return nil, errors.New("front matter is missing a title")
	}
	if fm.Date == "" {
		return nil, errors.New("front matter is missing a date")
	}
	// time.Parse alone accepts dates like 2024-02-31 by rolling them
	// over; round-tripping catches those.
	date, err := time.Parse("2006-01-02", fm.Date)
	if err != nil || date.Format("2006-01-02") != fm.Date {
		return nil, fmt.Errorf("date %q is not a valid YYYY-MM-DD calendar date", fm.Date)
	}

	if fm.Slug == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		fm.Slug = util.Slugify(base)
	}
	if fm.Slug == "" {
		fm.Slug = util.Slugify(fm.Title)
	}
	if !util.IsValidSlug(fm.Slug) {
		return nil, fmt.Errorf("cannot derive a valid slug for %q", path)
	}

	content := strings.TrimSpace(string(body))
	if content == "" {
		return nil, errors.New("document has no content")
	}

	return &Document{
		Path:    path,
		Meta:    fm,
		Content: content,
		Date:    date,
	}, nil
}

func splitFrontMatter(raw []byte) (meta, body []byte, err error) {
	trimmed := bytes.TrimLeft(raw, "\ufeff\n\r ")
	if !bytes.HasPrefix(trimmed, frontMatterDelimiter) {
		return nil, nil, errors.New("document has no front matter block")
	}

	rest := trimmed[len(frontMatterDelimiter):]
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelimiter...))
	if end < 0 {
		return nil, nil, errors.New("front matter block is not closed")
	}

	meta = rest[:end]
	body = rest[end+1+len(frontMatterDelimiter):]
	return meta, body, nil
}

// ImportDir imports every .md file under dir. Parse failures are
// collected per file; one broken document does not stop the run.
func (i *Importer) ImportDir(ctx context.Context, fsys fs.FS, dir string) (*Result, error) {
	result := &Result{}

	var docs []*Document
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		raw, err := fs.ReadFile(fsys, path)
		if err != nil {
			result.addError(path, err.Error())
			return nil
		}
		doc, err := Parse(path, raw)
		if err != nil {
			result.addError(path, err.Error())
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	for _, doc := range docs {
		if err := i.importDocument(ctx, doc, result); err != nil {
			result.addError(doc.Path, err.Error())
		}
	}

	i.logger.Info("markdown import finished",
		"imported", result.Imported, "skipped", result.Skipped, "errors", len(result.Errors))
	return result, nil
}

// importDocument writes one document and its tags in a transaction.
// Drafts are skipped without touching the database.
func (i *Importer) importDocument(ctx context.Context, doc *Document, result *Result) error {
	if doc.Meta.Draft {
		result.Skipped++
		return nil
	}

	if _, err := i.queries.GetPostBySlug(ctx, doc.Meta.Slug); err == nil {
		result.Skipped++
		i.logger.Warn("skipping document, slug exists", "path", doc.Path, "slug", doc.Meta.Slug)
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking slug: %w", err)
	}

	authorID, err := i.resolveAuthor(ctx, doc.Meta.Author)
	if err != nil {
		return err
	}

	excerpt := strings.TrimSpace(doc.Meta.Excerpt)
	if excerpt == "" {
		excerpt = markdown.Excerpt(doc.Content)
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := i.queries.WithTx(tx)
	now := time.Now()
	post, err := q.CreatePost(ctx, store.CreatePostParams{
		Title:       doc.Meta.Title,
		Slug:        doc.Meta.Slug,
		Content:     doc.Content,
		Excerpt:     excerpt,
		Status:      model.PostStatusPublished,
		AuthorID:    authorID,
		CreatedAt:   doc.Date,
		UpdatedAt:   now,
		PublishedAt: model.NullTimeFrom(doc.Date),
	})
	if err != nil {
		return fmt.Errorf("creating post: %w", err)
	}

	for _, name := range doc.Meta.Tags {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		slug := util.Slugify(name)
		if slug == "" {
			continue
		}

		tag, err := q.GetTagBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			tag, err = q.CreateTag(ctx, store.CreateTagParams{
				Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now,
			})
		}
		if err != nil {
			return fmt.Errorf("upserting tag %q: %w", name, err)
		}
		if err := q.AddPostTag(ctx, post.ID, tag.ID); err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	result.Imported++
	return nil
}

// resolveAuthor maps a front matter author email to a user id, falling
// back to the configured default author.
func (i *Importer) resolveAuthor(ctx context.Context, email string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return i.AuthorID, nil
	}

	user, err := i.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		i.logger.Warn("unknown author, using default", "author", email)
		return i.AuthorID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving author: %w", err)
	}
	return user.ID, nil
}
