// Package fetch turns user-supplied identifiers into document sources and
// routes them to the fetcher able to read them.
package fetch

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"askip/internal/domain"
)

// DefaultLanguage is used for bare Wikipedia titles when no language is given.
const DefaultLanguage = "en"

// ParseSource maps an identifier to a source:
//   - https://<lang>.wikipedia.org/wiki/<Title> is a Wikipedia page in that edition
//   - any other http(s) URL is rejected
//   - a path ending in .pdf is a PDF file, an existing path a text file
//   - anything else is a Wikipedia title in defaultLang
func ParseSource(identifier, defaultLang string) (domain.Source, error) {
	id := strings.TrimSpace(identifier)
	if defaultLang == "" {
		defaultLang = DefaultLanguage
	}
	if id == "" {
		return domain.Source{}, fmt.Errorf("%w: empty identifier", domain.ErrInvalidSource)
	}

	if u, err := url.Parse(id); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return parseURL(u)
	}

	if strings.HasSuffix(strings.ToLower(id), ".pdf") {
		return domain.Source{Kind: domain.SourcePDF, Identifier: id, Language: defaultLang}, nil
	}
	if fi, err := os.Stat(id); err == nil && !fi.IsDir() {
		return domain.Source{Kind: domain.SourceFile, Identifier: id, Language: defaultLang}, nil
	}
	return domain.Source{Kind: domain.SourceWikipedia, Identifier: id, Language: defaultLang}, nil
}

func parseURL(u *url.URL) (domain.Source, error) {
	host := strings.ToLower(u.Hostname())
	if !strings.HasSuffix(host, ".wikipedia.org") {
		return domain.Source{}, fmt.Errorf("%w: %s is not a Wikipedia URL", domain.ErrInvalidSource, u)
	}
	// fr.wikipedia.org, fr.m.wikipedia.org
	lang := strings.SplitN(host, ".", 2)[0]
	if lang == "www" || lang == "m" {
		lang = DefaultLanguage
	}
	if !strings.HasPrefix(u.Path, "/wiki/") {
		return domain.Source{}, fmt.Errorf("%w: %s has no /wiki/ path", domain.ErrInvalidSource, u)
	}
	title := path.Base(u.Path)
	if title == "" || title == "wiki" || title == "/" {
		return domain.Source{}, fmt.Errorf("%w: %s has no page title", domain.ErrInvalidSource, u)
	}
	return domain.Source{Kind: domain.SourceWikipedia, Identifier: title, Language: lang}, nil
}
