// Package sheet turns the first worksheet of an .xlsx file into a styled HTML
// table: merge geometry, per-cell CSS, value formatting and embedded images.
package sheet

import "time"

// CellRef is a 1-based row/column position.
type CellRef struct {
	Row int
	Col int
}

type Border struct {
	Style string // thin, medium, thick, double, dotted, dashed, hair, ...
	Color string // RRGGBB, empty for automatic
}

type Borders struct {
	Top    *Border
	Right  *Border
	Bottom *Border
	Left   *Border
}

type Font struct {
	Bold   bool
	Italic bool
	Size   float64
	Color  string
	Name   string
}

type Alignment struct {
	Horizontal   string
	Vertical     string
	WrapText     bool
	TextRotation int
}

type CellStyle struct {
	Fill      string // RRGGBB of the pattern foreground
	Font      *Font
	Alignment *Alignment
	Border    Borders
}

type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueNumber
	ValueString
	ValueBool
	ValueDate
	ValueRichText
	ValueFormula
	ValueError
)

type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Bool   bool
	Date   time.Time
	Runs   []string
	Result *Value // cached result of a formula
}

type Cell struct {
	Value Value
	// Display is the text the authoring tool would show. Ignored for numbers.
	Display string
	Style   *CellStyle
}

type Image struct {
	From      CellRef
	To        CellRef
	Extension string
	Data      []byte
}

// Worksheet is the parsed view the renderer works from. Merges may be given
// as a list of "A1:B2" ranges, as a master-address index, or both.
type Worksheet struct {
	Name        string
	RowCount    int
	ColumnCount int
	Merges      []string
	MergeIndex  map[string]string
	Cells       map[CellRef]*Cell
	Images      []Image
}

func (ws *Worksheet) Cell(row, col int) *Cell {
	if ws.Cells == nil {
		return nil
	}
	return ws.Cells[CellRef{Row: row, Col: col}]
}

func (ws *Worksheet) SetCell(row, col int, c *Cell) {
	if ws.Cells == nil {
		ws.Cells = make(map[CellRef]*Cell)
	}
	ws.Cells[CellRef{Row: row, Col: col}] = c
}
