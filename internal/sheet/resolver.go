package sheet

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const contrastThreshold = 50

type Range struct {
	Top    int
	Left   int
	Bottom int
	Right  int
}

// ParseRange parses "A1:C3". Reversed corners are normalised.
func ParseRange(s string) (Range, bool) {
	start, end, ok := strings.Cut(strings.ReplaceAll(strings.TrimSpace(s), "$", ""), ":")
	if !ok {
		return Range{}, false
	}
	c1, r1, err := excelize.CellNameToCoordinates(start)
	if err != nil {
		return Range{}, false
	}
	c2, r2, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return Range{}, false
	}
	return Range{
		Top:    min(r1, r2),
		Left:   min(c1, c2),
		Bottom: max(r1, r2),
		Right:  max(c1, c2),
	}, true
}

type Merge struct {
	Range
	RowSpan int
	ColSpan int
	Borders Borders
}

type MergeMap struct {
	masters map[CellRef]*Merge
	skip    map[CellRef]struct{}
}

func (m *MergeMap) Master(row, col int) (*Merge, bool) {
	merge, ok := m.masters[CellRef{Row: row, Col: col}]
	return merge, ok
}

// Skip reports whether the cell is covered by another cell's span.
func (m *MergeMap) Skip(row, col int) bool {
	_, ok := m.skip[CellRef{Row: row, Col: col}]
	return ok
}

func (m *MergeMap) Len() int {
	return len(m.masters)
}

// ResolveMerges computes master spans, covered cells and the border union of
// every multi-cell merge. Borders are often stored on an edge cell instead
// of the master, so each edge takes the first border found along it.
func ResolveMerges(ws *Worksheet) *MergeMap {
	m := &MergeMap{
		masters: make(map[CellRef]*Merge),
		skip:    make(map[CellRef]struct{}),
	}
	for _, raw := range mergeList(ws) {
		rng, ok := ParseRange(raw)
		if !ok {
			continue
		}
		rowSpan := rng.Bottom - rng.Top + 1
		colSpan := rng.Right - rng.Left + 1
		if rowSpan == 1 && colSpan == 1 {
			continue
		}
		master := CellRef{Row: rng.Top, Col: rng.Left}
		if _, dup := m.masters[master]; dup {
			continue
		}
		merge := &Merge{Range: rng, RowSpan: rowSpan, ColSpan: colSpan}
		for r := rng.Top; r <= rng.Bottom; r++ {
			for c := rng.Left; c <= rng.Right; c++ {
				if r != rng.Top || c != rng.Left {
					m.skip[CellRef{Row: r, Col: c}] = struct{}{}
				}
				cell := ws.Cell(r, c)
				if cell == nil || cell.Style == nil {
					continue
				}
				b := cell.Style.Border
				if r == rng.Top && b.Top != nil && merge.Borders.Top == nil {
					merge.Borders.Top = b.Top
				}
				if r == rng.Bottom && b.Bottom != nil && merge.Borders.Bottom == nil {
					merge.Borders.Bottom = b.Bottom
				}
				if c == rng.Left && b.Left != nil && merge.Borders.Left == nil {
					merge.Borders.Left = b.Left
				}
				if c == rng.Right && b.Right != nil && merge.Borders.Right == nil {
					merge.Borders.Right = b.Right
				}
			}
		}
		m.masters[master] = merge
	}
	return m
}

func mergeList(ws *Worksheet) []string {
	out := make([]string, 0, len(ws.Merges)+len(ws.MergeIndex))
	seen := make(map[string]struct{})
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range ws.Merges {
		add(s)
	}
	// sorted so the same master always wins when ranges collide
	for _, master := range slices.Sorted(maps.Keys(ws.MergeIndex)) {
		rng := ws.MergeIndex[master]
		if rng == "" {
			rng = master
		}
		add(rng)
	}
	return out
}

type Declaration struct {
	Property string
	Value    string
}

// ResolvedStyle is an ordered list of CSS declarations.
type ResolvedStyle []Declaration

func (s ResolvedStyle) Get(property string) (string, bool) {
	for _, d := range s {
		if d.Property == property {
			return d.Value, true
		}
	}
	return "", false
}

func (s ResolvedStyle) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.Property + ": " + d.Value
	}
	return strings.Join(parts, "; ")
}

func (s *ResolvedStyle) add(property, value string) {
	*s = append(*s, Declaration{Property: property, Value: value})
}

// ResolveStyle maps a cell's formatting to CSS. cell may be nil for an empty
// position; merge is the span the cell masters, if any. Missing attributes
// fall back to defaults, nothing here fails.
func ResolveStyle(cell *Cell, merge *Merge) ResolvedStyle {
	var style ResolvedStyle
	var cs CellStyle
	if cell != nil && cell.Style != nil {
		cs = *cell.Style
	}

	bgHex := "FFFFFF"
	if cs.Fill != "" {
		bgHex = cs.Fill
		style.add("background-color", "#"+bgHex)
	}

	fontHex := "000000"
	explicitColor := false
	if cs.Font != nil {
		if cs.Font.Bold {
			style.add("font-weight", "bold")
		}
		if cs.Font.Italic {
			style.add("font-style", "italic")
		}
		if cs.Font.Size > 0 {
			style.add("font-size", formatPt(cs.Font.Size+3))
		}
		if cs.Font.Color != "" {
			fontHex = cs.Font.Color
			explicitColor = true
		}
	}
	corrected := ContrastColor(bgHex, fontHex)
	if explicitColor || corrected != "000000" {
		style.add("color", "#"+corrected)
	}
	if cs.Font != nil && cs.Font.Name != "" {
		style.add("font-family", "'"+cs.Font.Name+"'")
	}

	hasHorizontal := false
	if cs.Alignment != nil {
		if h := mapHorizontal(cs.Alignment.Horizontal); h != "" {
			hasHorizontal = true
			style.add("text-align", h)
		}
		if v := mapVertical(cs.Alignment.Vertical); v != "" {
			style.add("vertical-align", v)
		}
	}
	if merge != nil && !hasHorizontal {
		style.add("text-align", "center")
		style.add("vertical-align", "middle")
	}

	if cs.Alignment != nil {
		style = append(style, rotationCSS(cs.Alignment.TextRotation)...)
	}

	borders := cs.Border
	if merge != nil {
		borders = merge.Borders
	}
	if borders.Top != nil {
		style.add("border-top", BorderCSS(borders.Top))
	}
	if borders.Bottom != nil {
		style.add("border-bottom", BorderCSS(borders.Bottom))
	}
	if borders.Left != nil {
		style.add("border-left", BorderCSS(borders.Left))
	}
	if borders.Right != nil {
		style.add("border-right", BorderCSS(borders.Right))
	}

	style.add("padding", "4px 8px")
	if cs.Alignment != nil && cs.Alignment.WrapText {
		style.add("white-space", "normal")
	} else {
		style.add("white-space", "nowrap")
	}
	return style
}

// Luminance of an RRGGBB color; anything that is not six hex digits counts as white.
func Luminance(hex string) float64 {
	if len(hex) != 6 {
		return 255
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 255
	}
	r := float64(rgb >> 16 & 0xFF)
	g := float64(rgb >> 8 & 0xFF)
	b := float64(rgb & 0xFF)
	return 0.299*r + 0.587*g + 0.114*b
}

// ContrastColor returns fg, or black/white when fg is nearly invisible on bg.
func ContrastColor(bg, fg string) string {
	bgLum := Luminance(bg)
	if math.Abs(bgLum-Luminance(fg)) < contrastThreshold {
		if bgLum > 128 {
			return "000000"
		}
		return "FFFFFF"
	}
	return fg
}

func BorderCSS(b *Border) string {
	width, kind := "1px", "solid"
	switch b.Style {
	case "thin", "hair":
	case "medium":
		width = "2px"
	case "thick":
		width = "3px"
	case "double":
		width, kind = "3px", "double"
	case "dotted":
		kind = "dotted"
	case "dashed":
		kind = "dashed"
	}
	color := "#000000"
	if b.Color != "" {
		color = "#" + b.Color
	}
	return width + " " + kind + " " + color
}

func mapHorizontal(h string) string {
	switch h {
	case "", "general":
		return ""
	case "centerContinuous":
		return "center"
	case "distributed":
		return "justify"
	case "fill":
		return "left"
	}
	return h
}

func mapVertical(v string) string {
	switch v {
	case "":
		return ""
	case "center":
		return "middle"
	case "distributed", "justify":
		return "middle"
	}
	return v
}

// rotationCSS follows the xlsx encoding: 1-90 counter-clockwise, 91-180
// clockwise by (n-90), 255 stacked vertical text.
func rotationCSS(rotation int) []Declaration {
	switch {
	case rotation == 0:
		return nil
	case rotation == 255:
		return []Declaration{{"writing-mode", "vertical-rl"}, {"text-orientation", "upright"}}
	case rotation == 90:
		return []Declaration{{"writing-mode", "vertical-rl"}, {"transform", "rotate(180deg)"}}
	case rotation == 180 || rotation == -90 || rotation == 270:
		return []Declaration{{"writing-mode", "vertical-rl"}}
	case rotation > 0 && rotation < 90:
		return []Declaration{{"transform", fmt.Sprintf("rotate(-%ddeg)", rotation)}}
	case rotation > 90 && rotation < 180:
		return []Declaration{{"transform", fmt.Sprintf("rotate(%ddeg)", rotation-90)}}
	case rotation < 0 && rotation > -90:
		return []Declaration{{"transform", fmt.Sprintf("rotate(%ddeg)", -rotation)}}
	}
	return nil
}

func formatPt(size float64) string {
	return strconv.FormatFloat(size, 'f', -1, 64) + "pt"
}
