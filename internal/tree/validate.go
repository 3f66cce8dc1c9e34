package tree

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const MaxNameLength = 255

var errNameSeparator = errors.New("must not contain '/'")

var nameRules = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, MaxNameLength),
	validation.NotIn(".", ".."),
	validation.By(func(value interface{}) error {
		if s, _ := value.(string); strings.Contains(s, "/") {
			return errNameSeparator
		}
		return nil
	}),
}

// NormalizeName trims raw and checks it can name a node.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if err := validation.Validate(name, nameRules...); err != nil {
		return "", badInput("invalid name %q: %v", name, err)
	}
	return name, nil
}

// SplitRelativePath turns a client supplied path like "a/b/c.txt" into its
// directory segments and final file name. Backslashes are treated as
// separators and empty or "." segments are dropped; ".." is rejected.
func SplitRelativePath(raw string) ([]string, string, error) {
	cleaned := strings.ReplaceAll(raw, "\\", "/")

	var segments []string
	for _, segment := range strings.Split(cleaned, "/") {
		segment = strings.TrimSpace(segment)
		switch segment {
		case "", ".":
			continue
		case "..":
			return nil, "", badInput("malformed path %q", raw)
		}
		segments = append(segments, segment)
	}

	if len(segments) == 0 {
		return nil, "", badInput("malformed path %q", raw)
	}

	name, err := NormalizeName(segments[len(segments)-1])
	if err != nil {
		return nil, "", err
	}
	dirs := segments[:len(segments)-1]
	for i, dir := range dirs {
		if dirs[i], err = NormalizeName(dir); err != nil {
			return nil, "", err
		}
	}
	return dirs, name, nil
}
