package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	apperrors "fitmate/errors"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._\s-]`)

// DocumentExtensions are the file types accepted for the knowledge base.
var DocumentExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
	".html": true,
	".json": true,
}

// SanitizeFilename cleans filename for safe upload by removing dangerous characters
// and limiting length. It trims spaces and dots, removes parent directory references,
// and filters out non-alphanumeric characters except for safe punctuation.
func SanitizeFilename(filename string) string {
	sanitized := strings.Trim(filename, " .")
	sanitized = strings.ReplaceAll(sanitized, "..", "")
	sanitized = unsafeFilenameChars.ReplaceAllString(sanitized, "")
	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}
	if sanitized == "" {
		return "document"
	}
	return sanitized
}

// VerifyFileExists checks if file exists at the given path and is not a directory.
func VerifyFileExists(dir, filename string) bool {
	info, err := os.Stat(filepath.Join(dir, filename))
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CollectDocuments expands paths into a sorted, de-duplicated list of
// knowledge base files. Directories are walked recursively and only files with
// a known extension are kept from them; files named explicitly must exist.
func CollectDocuments(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var docs []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			docs = append(docs, p)
		}
	}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, apperrors.WrapErrorf(apperrors.ErrNotFound, "document %s", p)
		}

		if !info.IsDir() {
			if !VerifyFileExists(filepath.Dir(p), filepath.Base(p)) {
				return nil, apperrors.WrapErrorf(apperrors.ErrNotFound, "document %s", p)
			}
			add(filepath.Clean(p))
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !DocumentExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			add(filepath.Clean(path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	if len(docs) == 0 {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "no documents found")
	}
	sort.Strings(docs)
	return docs, nil
}
