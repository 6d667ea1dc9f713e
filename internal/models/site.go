// Package models defines data structures shared by the crawler, normalizer and formatter.
package models

// Site is a single normalized streaming site entry.
type Site struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	API    string `json:"api"`
	Active bool   `json:"active"`
}

// Catalog is the persisted output document.
type Catalog struct {
	Sites []Site `json:"sites"`
}

// NewCatalog returns an empty catalog whose Sites serializes as [] rather than null.
func NewCatalog() *Catalog {
	return &Catalog{Sites: []Site{}}
}

// Add appends a site to the catalog.
func (c *Catalog) Add(site Site) {
	c.Sites = append(c.Sites, site)
}

// Len returns the number of sites.
func (c *Catalog) Len() int {
	return len(c.Sites)
}

// Keys returns the site keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Sites))
	for _, s := range c.Sites {
		keys = append(keys, s.Key)
	}

	return keys
}

// Lookup returns the site with the given key.
func (c *Catalog) Lookup(key string) (Site, bool) {
	for _, s := range c.Sites {
		if s.Key == key {
			return s, true
		}
	}

	return Site{}, false
}
