package formatter

import (
	"strings"
	"testing"

	"sitesync/internal/models"
	"sitesync/pkg/metadata"
)

func TestFormatCatalog(t *testing.T) {
	catalog := models.NewCatalog()
	catalog.Add(models.Site{Key: "site_test", Name: "Test", API: "http://x.com/a", Active: true})
	catalog.Add(models.Site{Key: "site_电影天堂", Name: "电影天堂", API: "http://dy.tt/api.php/provide/vod", Active: true})

	report := FormatCatalog(catalog, metadata.Info{Source: "http://feed", RunID: "run-1", Validated: true})

	if ok, err := metadata.Verify(report); !ok || err != nil {
		t.Fatalf("report does not verify: %v, %v", ok, err)
	}

	meta, clean := metadata.Extract(report)
	if meta.Sites != 2 {
		t.Errorf("Sites = %d, want 2", meta.Sites)
	}

	want := strings.Join([]string{
		"# Site Catalog",
		"",
		"- Source: http://feed",
		"- Sites: 2",
		"",
		"| #   | Key           | Name     | API                              |",
		"| --- | ------------- | -------- | -------------------------------- |",
		"| 1   | site_test     | Test     | http://x.com/a                   |",
		"| 2   | site_电影天堂 | 电影天堂 | http://dy.tt/api.php/provide/vod |",
	}, "\n")

	if clean != want {
		t.Errorf("FormatCatalog() = \n%s\nwant \n%s", clean, want)
	}
}

func TestFormatCatalogEmpty(t *testing.T) {
	report := FormatCatalog(models.NewCatalog(), metadata.Info{})

	_, clean := metadata.Extract(report)
	if !strings.Contains(clean, "- Sites: 0") || !strings.Contains(clean, "_No sites._") {
		t.Errorf("unexpected empty report:\n%s", clean)
	}
}

func TestFormatCatalogEscapesPipes(t *testing.T) {
	catalog := models.NewCatalog()
	catalog.Add(models.Site{Key: "site_ab", Name: "A|B", API: "http://ab.com", Active: true})

	_, clean := metadata.Extract(FormatCatalog(catalog, metadata.Info{}))
	if !strings.Contains(clean, `| A\|B |`) {
		t.Errorf("pipe not escaped:\n%s", clean)
	}
}
