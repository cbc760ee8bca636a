package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Format is an output format
type Format string

const (
	// FormatTable prints aligned columns, one title per row
	FormatTable Format = "table"
	// FormatJSON prints an indented JSON array
	FormatJSON Format = "json"
	// FormatYAML prints a YAML sequence
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (must be table, json or yaml)", s)
	}
}

// Column is one table column
type Column struct {
	Name  string
	Value func(Title) string
}

var (
	idColumn       = Column{"id", func(t Title) string { return t.ID }}
	titleColumn    = Column{"title", func(t Title) string { return t.Title }}
	releasedColumn = Column{"released", func(t Title) string { return t.Released }}
	runtimeColumn  = Column{"runtime", func(t Title) string { return t.Runtime }}
	expiringColumn = Column{"expiring", func(t Title) string { return t.Expiring }}
	ratingColumn   = Column{"rating", func(t Title) string {
		if t.Rating == 0 {
			return ""
		}
		return strconv.FormatFloat(t.Rating, 'f', -1, 64)
	}}
	yearColumn = Column{"year", func(t Title) string {
		if t.Year == 0 {
			return ""
		}
		return strconv.Itoa(t.Year)
	}}
)

var (
	// ListingColumns are shown for new releases
	ListingColumns = []Column{idColumn, titleColumn, releasedColumn, runtimeColumn}
	// ExpiringColumns lead with the expiry date
	ExpiringColumns = []Column{expiringColumn, idColumn, titleColumn, releasedColumn, runtimeColumn}
	// SearchColumns are shown for search results
	SearchColumns = []Column{idColumn, titleColumn, ratingColumn, yearColumn, runtimeColumn}
)

// Formatter renders titles
type Formatter struct {
	format Format
	title  cases.Caser
}

// NewFormatter creates a formatter for the given output format
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
		title:  cases.Title(language.English),
	}
}

// Render writes titles to w. Tables use columns; json and yaml emit every field.
func (f *Formatter) Render(w io.Writer, titles []Title, columns []Column) error {
	if titles == nil {
		titles = []Title{}
	}

	switch f.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(titles)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(titles); err != nil {
			return err
		}
		return enc.Close()
	default:
		return f.renderTable(w, titles, columns)
	}
}

func (f *Formatter) renderTable(w io.Writer, titles []Title, columns []Column) error {
	if len(titles) == 0 {
		_, err := fmt.Fprintln(w, "No titles found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	headers := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = f.title.String(col.Name)
		rules[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	cells := make([]string, len(columns))
	for _, t := range titles {
		for i, col := range columns {
			cells[i] = sanitizeCell(col.Value(t))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

// sanitizeCell keeps a value on one table line
func sanitizeCell(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
