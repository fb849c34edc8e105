package sheet

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/xuri/excelize/v2"
)

type Loader interface {
	Load(path string) (*Worksheet, error)
}

// ExcelizeLoader reads the first worksheet of an .xlsx file.
type ExcelizeLoader struct{}

var borderStyleNames = map[int]string{
	1:  "thin",
	2:  "medium",
	3:  "dashed",
	4:  "dotted",
	5:  "thick",
	6:  "double",
	7:  "hair",
	8:  "mediumDashed",
	9:  "dashDot",
	10: "mediumDashDot",
	11: "dashDotDot",
	12: "mediumDashDotDot",
	13: "slantDashDot",
}

func openWorkbook(path string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w: %w", extractionModel.ErrValidation, err)
	}
	return f, nil
}

func (ExcelizeLoader) Load(path string) (*Worksheet, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", extractionModel.ErrValidation)
	}
	name := sheets[0]
	ws := &Worksheet{
		Name:  name,
		Cells: make(map[CellRef]*Cell),
	}

	if dim, err := f.GetSheetDimension(name); err == nil {
		ws.RowCount, ws.ColumnCount = dimensionBounds(dim)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	ws.RowCount = max(ws.RowCount, len(rows))
	for _, row := range rows {
		ws.ColumnCount = max(ws.ColumnCount, len(row))
	}

	merges, err := f.GetMergeCells(name)
	if err == nil {
		for _, mc := range merges {
			rng := mc.GetStartAxis() + ":" + mc.GetEndAxis()
			ws.Merges = append(ws.Merges, rng)
			if parsed, ok := ParseRange(rng); ok {
				ws.RowCount = max(ws.RowCount, parsed.Bottom)
				ws.ColumnCount = max(ws.ColumnCount, parsed.Right)
			}
		}
	}

	styles := &styleCache{file: f, byID: make(map[int]*cachedStyle)}
	for r := 1; r <= ws.RowCount; r++ {
		for c := 1; c <= ws.ColumnCount; c++ {
			cell, err := readCell(f, name, r, c, styles)
			if err != nil {
				return nil, err
			}
			if cell != nil {
				ws.SetCell(r, c, cell)
			}
		}
	}

	ws.Images = readImages(f, name)
	return ws, nil
}

func dimensionBounds(dim string) (rows, cols int) {
	end := dim
	if _, after, ok := strings.Cut(dim, ":"); ok {
		end = after
	}
	col, row, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return 0, 0
	}
	return row, col
}

type cachedStyle struct {
	style  *CellStyle
	isDate bool
}

type styleCache struct {
	file *excelize.File
	byID map[int]*cachedStyle
}

func (s *styleCache) get(id int) *cachedStyle {
	if cached, ok := s.byID[id]; ok {
		return cached
	}
	cached := &cachedStyle{}
	if st, err := s.file.GetStyle(id); err == nil && st != nil {
		cached.style = convertStyle(st)
		cached.isDate = isDateFormat(st)
	}
	s.byID[id] = cached
	return cached
}

func readCell(f *excelize.File, sheet string, row, col int, styles *styleCache) (*Cell, error) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	styleID, _ := f.GetCellStyle(sheet, axis)
	st := styles.get(styleID)

	raw, err := f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", axis, err)
	}
	display, _ := f.GetCellValue(sheet, axis)
	formula, _ := f.GetCellFormula(sheet, axis)
	cellType, _ := f.GetCellType(sheet, axis)

	value := classify(f, sheet, axis, raw, cellType, st.isDate)
	if formula != "" {
		result := value
		value = Value{Kind: ValueFormula, Text: formula}
		if result.Kind != ValueEmpty {
			value.Result = &result
		}
	}
	if value.Kind == ValueEmpty && styleID == 0 {
		return nil, nil
	}
	return &Cell{Value: value, Display: display, Style: st.style}, nil
}

func classify(f *excelize.File, sheet, axis, raw string, cellType excelize.CellType, isDate bool) Value {
	switch cellType {
	case excelize.CellTypeBool:
		return Value{Kind: ValueBool, Bool: raw == "1" || strings.EqualFold(raw, "true")}
	case excelize.CellTypeError:
		return Value{Kind: ValueError, Text: raw}
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return Value{Kind: ValueDate, Date: t}
		}
		return Value{Kind: ValueString, Text: raw}
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		if runs, err := f.GetCellRichText(sheet, axis); err == nil && len(runs) > 1 {
			texts := make([]string, len(runs))
			for i, run := range runs {
				texts[i] = run.Text
			}
			return Value{Kind: ValueRichText, Runs: texts}
		}
		return Value{Kind: ValueString, Text: raw}
	case excelize.CellTypeFormula:
		// t="str": formula with a string result
		return Value{Kind: ValueString, Text: raw}
	}
	if raw == "" {
		return Value{Kind: ValueEmpty}
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Value{Kind: ValueString, Text: raw}
	}
	if isDate {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return Value{Kind: ValueDate, Date: t}
		}
	}
	return Value{Kind: ValueNumber, Number: n}
}

func convertStyle(st *excelize.Style) *CellStyle {
	cs := &CellStyle{}
	if st.Fill.Type == "pattern" && st.Fill.Pattern > 0 && len(st.Fill.Color) > 0 {
		cs.Fill = normalizeColor(st.Fill.Color[0])
	}
	if st.Font != nil {
		cs.Font = &Font{
			Bold:   st.Font.Bold,
			Italic: st.Font.Italic,
			Size:   st.Font.Size,
			Color:  normalizeColor(st.Font.Color),
			Name:   st.Font.Family,
		}
	}
	if st.Alignment != nil {
		cs.Alignment = &Alignment{
			Horizontal:   st.Alignment.Horizontal,
			Vertical:     st.Alignment.Vertical,
			WrapText:     st.Alignment.WrapText,
			TextRotation: st.Alignment.TextRotation,
		}
	}
	for _, b := range st.Border {
		name, ok := borderStyleNames[b.Style]
		if !ok {
			continue
		}
		border := &Border{Style: name, Color: normalizeColor(b.Color)}
		switch b.Type {
		case "top":
			cs.Border.Top = border
		case "bottom":
			cs.Border.Bottom = border
		case "left":
			cs.Border.Left = border
		case "right":
			cs.Border.Right = border
		}
	}
	return cs
}

// normalizeColor reduces "#RRGGBB", "AARRGGBB" or "RRGGBB" to upper-case RRGGBB.
func normalizeColor(c string) string {
	c = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(c), "#"))
	if len(c) == 8 {
		c = c[2:]
	}
	if len(c) != 6 {
		return ""
	}
	if _, err := strconv.ParseUint(c, 16, 32); err != nil {
		return ""
	}
	return c
}

func isDateFormat(st *excelize.Style) bool {
	switch {
	case st.NumFmt >= 14 && st.NumFmt <= 22, st.NumFmt >= 45 && st.NumFmt <= 47:
		return true
	}
	if st.CustomNumFmt == nil {
		return false
	}
	format := strings.ToLower(*st.CustomNumFmt)
	// drop quoted literals and bracketed colours/conditions
	var cleaned strings.Builder
	depth, quoted := 0, false
	for _, r := range format {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			cleaned.WriteRune(r)
		}
	}
	s := cleaned.String()
	return strings.ContainsAny(s, "dy") || (strings.Contains(s, "m") && strings.ContainsAny(s, "hs"))
}

func readImages(f *excelize.File, sheet string) []Image {
	cells, err := f.GetPictureCells(sheet)
	if err != nil {
		return nil
	}
	var images []Image
	for _, axis := range cells {
		col, row, err := excelize.CellNameToCoordinates(axis)
		if err != nil {
			continue
		}
		pics, err := f.GetPictures(sheet, axis)
		if err != nil {
			continue
		}
		for _, pic := range pics {
			rows, cols := pictureSpan(pic)
			images = append(images, Image{
				From:      CellRef{Row: row, Col: col},
				To:        CellRef{Row: row + rows - 1, Col: col + cols - 1},
				Extension: pic.Extension,
				Data:      pic.File,
			})
		}
	}
	return images
}

// pictureSpan estimates how many rows and columns a picture covers from its
// pixel size, using the same fixed cell size the renderer positions with.
// Formats image cannot decode cover their anchor cell only.
func pictureSpan(pic excelize.Picture) (rows, cols int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(pic.File))
	if err != nil {
		return 1, 1
	}
	scaleX, scaleY := 1.0, 1.0
	var offsetX, offsetY int
	if pic.Format != nil {
		if pic.Format.ScaleX > 0 {
			scaleX = pic.Format.ScaleX
		}
		if pic.Format.ScaleY > 0 {
			scaleY = pic.Format.ScaleY
		}
		offsetX, offsetY = pic.Format.OffsetX, pic.Format.OffsetY
	}
	height := float64(offsetY) + float64(cfg.Height)*scaleY
	width := float64(offsetX) + float64(cfg.Width)*scaleX
	rows = max(int(math.Ceil(height/config.RowHeightPx)), 1)
	cols = max(int(math.Ceil(width/config.ColumnWidthPx)), 1)
	return rows, cols
}
