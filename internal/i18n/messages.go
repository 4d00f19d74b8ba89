package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/invoicely/invoicely/web"
)

// Messages is a flattened message bundle keyed by dotted path, e.g. "Invoice.title".
type Messages map[string]string

// Get returns the translation for key, or the key itself when missing.
func (m Messages) Get(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

// Catalog holds every parsed bundle.
type Catalog struct {
	bundles map[Locale]Messages
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog parses the embedded bundles once.
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = NewCatalog(web.Messages, "messages")
	})
	return defaultCatalog, defaultCatalogErr
}

// NewCatalog loads "<dir>/<locale>.json" for each supported locale from fsys.
func NewCatalog(fsys fs.FS, dir string) (*Catalog, error) {
	c := &Catalog{bundles: make(map[Locale]Messages, len(Supported))}
	for _, loc := range Supported {
		raw, err := fs.ReadFile(fsys, dir+"/"+string(loc)+".json")
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s bundle: %w", loc, err)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n: parse %s bundle: %w", loc, err)
		}
		flat := make(Messages)
		flatten("", tree, flat)
		c.bundles[loc] = flat
	}
	return c, nil
}

// Load returns the bundle for the raw locale parameter. Unsupported values get
// the English bundle; no redirect is implied.
func (c *Catalog) Load(raw string) (Locale, Messages) {
	loc, ok := Parse(raw)
	if !ok || string(loc) != raw {
		return DefaultLocale, c.bundles[DefaultLocale]
	}
	return loc, c.bundles[loc]
}

func flatten(prefix string, node map[string]any, out Messages) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(path, v, out)
		case string:
			out[path] = v
		default:
			out[path] = fmt.Sprint(v)
		}
	}
}
