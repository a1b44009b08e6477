// Package i18n resolves user-facing message keys into localized text.
//
// Catalogs are embedded YAML documents, one per language. Nested keys are
// flattened with dots, so
//
//	error:
//	  server: "..."
//
// is looked up as "error.server". Lookups fall back to the default language
// and finally to the key itself, so Translate always returns something
// printable.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// Translator resolves a message key for a language (a BCP 47 tag or an
// Accept-Language value).
type Translator interface {
	Translate(key, lang string) string
}

// Func adapts a plain function to [Translator].
type Func func(key, lang string) string

// Translate calls f.
func (f Func) Translate(key, lang string) string {
	return f(key, lang)
}

// Catalog holds messages for a fixed set of languages.
type Catalog struct {
	tags     []language.Tag
	matcher  language.Matcher
	messages []map[string]string
}

// Default language of every catalog built by this package.
var Default = language.English

// New loads every embedded catalog.
func New() (*Catalog, error) {
	return Load(catalogFS, "catalogs")
}

// MustNew is like [New] but panics on error. The embedded catalogs are
// checked by tests, so this only fails on a broken build.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads "<lang>.yaml" files from dir in fsys. A catalog for [Default]
// is required.
func Load(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("i18n: read catalogs: %w", err)
	}

	byTag := map[language.Tag]map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("i18n: catalog %q: %w", entry.Name(), err)
		}

		raw, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %q: %w", entry.Name(), err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("i18n: parse %q: %w", entry.Name(), err)
		}

		messages := map[string]string{}
		flatten("", doc, messages)
		byTag[tag] = messages
	}

	if _, ok := byTag[Default]; !ok {
		return nil, fmt.Errorf("i18n: no catalog for default language %s", Default)
	}

	// The default language goes first so the matcher falls back to it.
	tags := []language.Tag{Default}
	for tag := range byTag {
		if tag != Default {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags[1:], func(i, j int) bool {
		return tags[i+1].String() < tags[j+1].String()
	})

	c := &Catalog{tags: tags, matcher: language.NewMatcher(tags)}
	for _, tag := range tags {
		c.messages = append(c.messages, byTag[tag])
	}
	return c, nil
}

// Languages lists the catalog languages, default first.
func (c *Catalog) Languages() []string {
	out := make([]string, len(c.tags))
	for i, tag := range c.tags {
		out[i] = tag.String()
	}
	return out
}

// Translate returns the message for key in the best matching language.
func (c *Catalog) Translate(key, lang string) string {
	if c == nil {
		return key
	}
	if msg, ok := c.messages[c.match(lang)][key]; ok {
		return msg
	}
	if msg, ok := c.messages[0][key]; ok {
		return msg
	}
	return key
}

func (c *Catalog) match(lang string) int {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return 0
	}
	desired, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(desired) == 0 {
		return 0
	}
	_, idx, confidence := c.matcher.Match(desired...)
	if confidence == language.No {
		return 0
	}
	return idx
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
