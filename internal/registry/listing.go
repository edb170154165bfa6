package registry

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// parseListing extracts the subdirectory names linked from a repository index
// page: every anchor whose href ends with "/" except the parent link.
func parseListing(body []byte) ([]string, error) {
	var dirs []string
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return dirs, nil
			}
			return nil, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if dir, ok := directory(string(val)); ok {
						dirs = append(dirs, dir)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

func directory(href string) (string, bool) {
	if !strings.HasSuffix(href, "/") || href == "../" || strings.Contains(href, "://") {
		return "", false
	}
	name := strings.TrimSuffix(href, "/")
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
