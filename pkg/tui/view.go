package tui

import (
	"fmt"
	"strings"

	"github.com/chazu/birdomatic/pkg/params"
	"github.com/gdamore/tcell/v2"
)

const (
	labelWidth = 22
	barWidth   = 20
	helpText   = "↑↓ select  ←→ adjust  r reset  R reset all  ⏎ generate  s stl  p png  w preset  q quit"
)

var (
	styleDefault  = tcell.StyleDefault
	styleHeader   = tcell.StyleDefault.Bold(true)
	styleGroup    = tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleOutside  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStale    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// putStr writes s at (x, y) and returns the column after it.
func putStr(s tcell.Screen, x, y int, str string, style tcell.Style) int {
	for _, r := range str {
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}

// bar renders v's position in r as a fixed-width gauge.
func bar(v float64, r params.Range) string {
	pos := 0
	if r.Span() > 0 {
		pos = int((r.Clamp(v) - r.Min) / r.Span() * barWidth)
	}
	if pos > barWidth {
		pos = barWidth
	}
	return strings.Repeat("█", pos) + strings.Repeat("░", barWidth-pos)
}

// Draw paints the editor onto s. Rows that do not fit are dropped.
func (e *Editor) Draw(s tcell.Screen) {
	s.Clear()
	_, h := s.Size()

	putStr(s, 0, 0, "birdomatic", styleHeader)
	y := 2
	for _, g := range params.Groups() {
		if y >= h-3 {
			break
		}
		putStr(s, 0, y, strings.ToUpper(string(g)), styleGroup)
		y++
		for _, f := range params.FieldsIn(g) {
			if y >= h-3 {
				break
			}
			e.drawField(s, y, f)
			y++
		}
	}

	info := e.Selected().Info()
	putStr(s, 0, h-3, fmt.Sprintf("%s: %s", info.Label, info.Description), styleDim)

	statusStyle := styleDefault
	if e.stale && e.meshes != nil {
		statusStyle = styleStale
	}
	putStr(s, 0, h-2, e.status, statusStyle)
	putStr(s, 0, h-1, helpText, styleDim)
	s.Show()
}

func (e *Editor) drawField(s tcell.Screen, y int, f params.Field) {
	style := styleDefault
	marker := "  "
	if f == e.Selected() {
		style = styleSelected
		marker = "> "
	}
	v := e.rec.Get(f)
	r := f.Range()

	x := putStr(s, 0, y, marker+fmt.Sprintf("%-*s", labelWidth, f.Label()), style)
	valueStyle := style
	if !r.Contains(v) {
		valueStyle = styleOutside
	}
	x = putStr(s, x, y, fmt.Sprintf("%8.2f ", v), valueStyle)
	x = putStr(s, x, y, bar(v, r), style)
	putStr(s, x, y, fmt.Sprintf(" [%g..%g]", r.Min, r.Max), styleDim)
}
