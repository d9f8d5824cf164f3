// Package video resolves pasted URLs into canonical video identifiers.
package video

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyURL is returned for blank input.
	ErrEmptyURL = errors.New("empty video URL")
	// ErrInvalidURL is returned when no video id can be extracted.
	ErrInvalidURL = errors.New("invalid YouTube URL")
)

// idLen is the length of every canonical video id.
const idLen = 11

// Recognizes youtu.be/<id>, /v/<id>, /u/<x>/<id>, /embed/<id>, watch?v=<id>
// and &v=<id>; the id runs until the next '#', '&' or '?'.
var idPattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

var bareID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ExtractID returns the video id embedded in rawURL.
func ExtractID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrEmptyURL
	}
	m := idPattern.FindStringSubmatch(rawURL)
	if m == nil || len(m[2]) != idLen {
		return "", ErrInvalidURL
	}
	return m[2], nil
}

// EmbedURL returns the embeddable player URL for id.
func EmbedURL(id string) string {
	return "https://www.youtube.com/embed/" + id
}

// ParseID accepts either a URL or a bare video id, as typed on a command
// line.
func ParseID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if bareID.MatchString(s) {
		return s, nil
	}
	return ExtractID(s)
}
