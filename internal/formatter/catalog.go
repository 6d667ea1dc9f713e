package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"sitesync/internal/models"
	"sitesync/pkg/metadata"
)

// FormatCatalog renders the catalog as a signed markdown report.
func FormatCatalog(catalog *models.Catalog, info metadata.Info) string {
	var b strings.Builder

	b.WriteString("# Site Catalog\n\n")

	if info.Source != "" {
		fmt.Fprintf(&b, "- Source: %s\n", info.Source)
	}

	fmt.Fprintf(&b, "- Sites: %d\n\n", catalog.Len())

	if catalog.Len() == 0 {
		b.WriteString("_No sites._\n")
	} else {
		table := make([][]string, 0, catalog.Len()+2)
		table = append(table, []string{"#", "Key", "Name", "API"}, []string{"---", "---", "---", "---"})

		for i, site := range catalog.Sites {
			table = append(table, []string{
				strconv.Itoa(i + 1),
				escapeCell(site.Key),
				escapeCell(site.Name),
				escapeCell(site.API),
			})
		}

		b.WriteString(strings.Join(renderTable(table, 1), "\n"))
		b.WriteString("\n")
	}

	info.Sites = catalog.Len()

	return metadata.Sign(b.String(), info)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")

	return strings.ReplaceAll(s, "|", `\|`)
}
