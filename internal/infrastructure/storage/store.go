// Package storage persists exported structure files. FileStore writes to a
// local directory; the minio subpackage uploads to an S3-compatible bucket.
package storage

import (
	"context"
	"strings"
	"unicode"
)

// SDFContentType is the media type of exported structure files.
const SDFContentType = "chemical/x-mdl-sdfile"

// Object is one file to store.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// ExportStore saves objects and reports where they went.
type ExportStore interface {
	Save(ctx context.Context, obj Object) (location string, err error)
}

// SanitizeKey makes name safe as a single path element or object key.
// Separators and control characters become "_"; an empty result becomes
// "compound.sdf".
func SanitizeKey(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case unicode.IsControl(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "compound.sdf"
	}
	return cleaned
}
