package sheet

import (
	"encoding/base64"
	"html"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/akolanti/extractview/internal/config"
)

var placeholderPattern = regexp.MustCompile(`(?i)(?:<|&lt;)([^>]+?\.[a-zA-Z0-9]{3,4})(?:[\s/]*(?:>|&gt;))`)

// RenderOptions locates the table inside its extraction so image
// placeholders can be resolved. Without an ExtractId placeholders stay text.
type RenderOptions struct {
	ExtractId    string
	RelativeBase string
}

type Renderer struct {
	formatter *Formatter
}

func NewRenderer(locale string) *Renderer {
	return &Renderer{formatter: NewFormatter(locale)}
}

// RelativeBase derives the folder holding the page's images from a table
// path: "2/tables/T1.xlsx" gives "2", "T1.xlsx" gives "".
func RelativeBase(tablePath string) string {
	parts := strings.Split(strings.Trim(path.Clean("/"+strings.ReplaceAll(tablePath, `\`, "/")), "/"), "/")
	if len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 0 && strings.EqualFold(parts[len(parts)-1], "tables") {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "/")
}

// Bounds returns the rows and columns the table spans. Rows grow to cover
// anchored images; an undeclared column count falls back to a fixed width.
func Bounds(ws *Worksheet) (rows, cols int) {
	rows = ws.RowCount
	for _, img := range ws.Images {
		rows = max(rows, img.To.Row, img.From.Row)
	}
	cols = ws.ColumnCount
	if cols <= 0 {
		cols = config.DefaultColumnCount
	}
	return rows, cols
}

func (r *Renderer) Render(ws *Worksheet, opts RenderOptions) string {
	merges := ResolveMerges(ws)
	rows, cols := Bounds(ws)

	var b strings.Builder
	b.WriteString(`<div class="excel-wrapper" style="position: relative; display: inline-block;">`)
	b.WriteString(`<table class="excel-styled-table">`)
	for row := 1; row <= rows; row++ {
		b.WriteString("<tr>")
		for col := 1; col <= cols; col++ {
			if merges.Skip(row, col) {
				continue
			}
			cell := ws.Cell(row, col)
			content := ""
			if cell != nil {
				content = r.formatter.HTML(cell.Value, cell.Display)
				if opts.ExtractId != "" {
					content = r.substitutePlaceholder(content, opts)
				}
			}

			merge, isMaster := merges.Master(row, col)
			var spanAttrs string
			if isMaster {
				if merge.RowSpan > 1 {
					spanAttrs += ` rowspan="` + strconv.Itoa(merge.RowSpan) + `"`
				}
				if merge.ColSpan > 1 {
					spanAttrs += ` colspan="` + strconv.Itoa(merge.ColSpan) + `"`
				}
			} else {
				merge = nil
			}

			b.WriteString(`<td style="`)
			b.WriteString(html.EscapeString(ResolveStyle(cell, merge).String()))
			b.WriteString(`"`)
			b.WriteString(spanAttrs)
			b.WriteString(">")
			b.WriteString(content)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")

	for _, img := range ws.Images {
		b.WriteString(anchoredImage(img))
	}
	b.WriteString("</div>")
	return b.String()
}

// substitutePlaceholder swaps text like <foo.png/> for an <img> pointing at
// the page's images folder.
func (r *Renderer) substitutePlaceholder(content string, opts RenderOptions) string {
	match := placeholderPattern.FindStringSubmatch(content)
	if match == nil {
		return content
	}
	filename := path.Base(strings.ReplaceAll(html.UnescapeString(match[1]), `\`, "/"))
	prefix := ""
	if opts.RelativeBase != "" {
		prefix = escapePath(opts.RelativeBase) + "/"
	}
	src := "/uploads/" + url.PathEscape(opts.ExtractId) + "/" + prefix + "images/" + url.PathEscape(filename)
	return `<img src="` + src + `" style="max-width: 100px; max-height: 80px; object-fit: contain; display: block; margin: 0 auto;" alt="` + html.EscapeString(filename) + `" />`
}

// anchoredImage positions a floating image with fixed row/column pixel
// estimates; it is not pixel exact.
func anchoredImage(img Image) string {
	if len(img.Data) == 0 {
		return ""
	}
	ext := strings.TrimPrefix(strings.ToLower(img.Extension), ".")
	if ext == "" {
		ext = "png"
	}
	if ext == "jpg" {
		ext = "jpeg"
	}
	top := max(img.From.Row-1, 0) * config.RowHeightPx
	left := max(img.From.Col-1, 0) * config.ColumnWidthPx
	return `<img src="data:image/` + ext + `;base64,` + base64.StdEncoding.EncodeToString(img.Data) +
		`" style="position: absolute; top: ` + strconv.Itoa(top) + `px; left: ` + strconv.Itoa(left) +
		`px; max-width: 150px; max-height: 100px;" />`
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
