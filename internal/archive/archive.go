// Package archive bundles project files into ZIP archives and samples
// readable text out of uploaded ones.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

const (
	// maxSampleFiles caps how many entries an uploaded archive contributes
	// to the analysis text.
	maxSampleFiles = 30

	// maxSampleBytes caps the text extracted from a single entry.
	maxSampleBytes = 20000

	// defaultName is used when the project name sanitizes down to nothing.
	defaultName = "vipudev-project"
)

// ErrNoFiles indicates a bundle request with an empty files array.
var ErrNoFiles = errors.New("files array is required")

// File is one project file going into an archive.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// Filename derives a download filename from a project name. Anything
// outside [a-zA-Z0-9-_] is replaced, and an empty name falls back to the
// default.
func Filename(projectName string) string {
	name := unsafeNameChars.ReplaceAllString(strings.TrimSpace(projectName), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = defaultName
	}
	return name + ".zip"
}

// Bundle writes the files as a ZIP archive. Entry paths keep their relative
// structure; leading slashes are stripped so extraction stays relative.
func Bundle(w io.Writer, files []File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		name := strings.TrimLeft(f.Path, "/")
		if name == "" {
			continue
		}
		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		if _, err := entry.Write([]byte(f.Content)); err != nil {
			return fmt.Errorf("writing archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// binaryExtensions lists entry suffixes skipped during sampling. These are
// never useful as analysis text and would blow the byte budget.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".webp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".zip": true, ".gz": true, ".tar": true, ".rar": true, ".7z": true,
	".pdf": true, ".exe": true, ".dll": true, ".so": true, ".bin": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true,
	".jar": true, ".class": true, ".pyc": true, ".wasm": true,
	".lock": true, ".lockb": true,
}

// skippedDirs lists path prefixes excluded from sampling.
var skippedDirs = []string{
	"node_modules/",
	".git/",
	"dist/",
	"build/",
	"__pycache__/",
	".next/",
}

// skipEntry reports whether an archive entry is excluded from sampling.
func skipEntry(name string) bool {
	for _, dir := range skippedDirs {
		if strings.HasPrefix(name, dir) || strings.Contains(name, "/"+dir) {
			return true
		}
	}
	return binaryExtensions[strings.ToLower(path.Ext(name))]
}

// Sample extracts readable text from an uploaded ZIP archive: up to
// maxSampleFiles entries, each truncated to maxSampleBytes. Entries under
// dependency or build directories and entries with binary extensions are
// skipped. The text is a concatenation of per-file sections suitable for
// feeding to the assistant; it is empty when nothing readable was found.
// The returned count is the number of entries sampled.
func Sample(r io.ReaderAt, size int64) (string, int, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", 0, fmt.Errorf("opening archive: %w", err)
	}

	var (
		sb        strings.Builder
		fileCount int
	)
	for _, entry := range zr.File {
		if fileCount >= maxSampleFiles {
			break
		}
		if entry.FileInfo().IsDir() || skipEntry(entry.Name) {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			continue // unreadable entry, move on
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxSampleBytes))
		rc.Close()
		if err != nil {
			continue
		}

		sb.WriteString("=== ")
		sb.WriteString(entry.Name)
		sb.WriteString(" ===\n")
		sb.Write(content)
		sb.WriteString("\n\n")

		fileCount++
	}
	return sb.String(), fileCount, nil
}
