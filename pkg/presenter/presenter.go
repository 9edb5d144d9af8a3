// Package presenter renders a poll cycle snapshot as a terminal table.
package presenter

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"minerwatch/internal/model"
)

const (
	columnGap   = "  "
	minCPUWidth = 8
)

var headers = []string{
	"Hostname",
	"Hashrate",
	"CPU Model",
	"Cores (C/T)",
	"Total Memory",
	"Free Memory",
	"Load Average (1m, 5m, 15m)",
	"Pool",
	"Status",
}

const cpuColumn = 2

// Options presenter options
type Options struct {
	Color       bool // ANSI colors
	ClearScreen bool // Reset the terminal before drawing
	Width       int  // Terminal width, 0 = unlimited
}

// Presenter draws worker tables
type Presenter struct {
	color bool
	clear bool
	width int
}

// New creates a presenter
func New(opts Options) *Presenter {
	return &Presenter{
		color: opts.Color,
		clear: opts.ClearScreen,
		width: opts.Width,
	}
}

// cell plain text plus the color it is drawn in
type cell struct {
	text  string
	color string
}

// Render draws the snapshot to w.
// Offline rows are dimmed and show zeroed live metrics; the summary lines
// always report the fleet aggregate as computed.
func (p *Presenter) Render(w io.Writer, snap *model.Snapshot) error {
	out := bufio.NewWriter(w)

	if p.clear {
		_, _ = out.WriteString(clearScreen)
	}

	var workers []model.WorkerRecord
	var fleet model.FleetAggregate
	if snap != nil {
		workers = snap.Workers
		fleet = snap.Fleet
	}

	rows := make([][]cell, 0, len(workers))
	for _, wr := range workers {
		rows = append(rows, p.row(wr))
	}

	widths := columnWidths(rows)
	p.fitWidth(widths, rows)

	p.writeRow(out, headerCells(), widths, "")
	separators := make([]cell, len(widths))
	for i, width := range widths {
		separators[i] = cell{text: strings.Repeat("-", width)}
	}
	p.writeRow(out, separators, widths, "")
	for i, r := range rows {
		style := ""
		if !workers[i].Online() {
			style = colorDim
		}
		p.writeRow(out, r, widths, style)
	}

	p.writeSummary(out, snap, fleet)
	return out.Flush()
}

func headerCells() []cell {
	cells := make([]cell, len(headers))
	for i, h := range headers {
		cells[i] = cell{text: h}
	}
	return cells
}

func (p *Presenter) row(w model.WorkerRecord) []cell {
	if !w.Online() {
		return []cell{
			{text: w.WorkerID, color: colorGreen},
			{text: FormatHashRate(0), color: colorCyan},
			{text: w.CPUModel, color: colorYellow},
			{text: "0c/0t", color: colorMagenta},
			{text: FormatMemory(0), color: colorBlue},
			{text: FormatMemory(0), color: colorBlue},
			{text: FormatLoad([3]float64{}), color: colorRed},
			{text: model.Unknown, color: colorYellow},
			{text: "Offline", color: colorRed},
		}
	}

	return []cell{
		{text: w.WorkerID, color: colorGreen},
		{text: formatOptionalHashRate(w.Hashrate), color: colorCyan},
		{text: w.CPUModel, color: colorYellow},
		{text: FormatCoresThreads(w.Cores, w.Threads), color: colorMagenta},
		{text: FormatMemory(w.TotalMemoryMB), color: colorBlue},
		{text: FormatMemory(w.FreeMemoryMB), color: colorBlue},
		{text: FormatLoad(w.LoadAverage), color: colorRed},
		{text: w.Pool, color: colorYellow},
		{text: "Online", color: colorGreen},
	}
}

func columnWidths(rows [][]cell) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if n := utf8.RuneCountInString(c.text); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

// fitWidth narrows the CPU model column when the table is wider than the terminal
func (p *Presenter) fitWidth(widths []int, rows [][]cell) {
	if p.width <= 0 {
		return
	}
	total := len(columnGap) * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	excess := total - p.width
	if excess <= 0 {
		return
	}

	target := widths[cpuColumn] - excess
	if target < minCPUWidth {
		target = minCPUWidth
	}
	if target >= widths[cpuColumn] {
		return
	}
	widths[cpuColumn] = target
	for _, r := range rows {
		r[cpuColumn].text = truncate(r[cpuColumn].text, target)
	}
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}

func (p *Presenter) writeRow(out *bufio.Writer, cells []cell, widths []int, style string) {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString(columnGap)
		}
		text := truncate(c.text, widths[i])
		padding := widths[i] - utf8.RuneCountInString(text)
		if style != "" && p.color {
			b.WriteString(style)
		}
		b.WriteString(p.paint(c.color, text))
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", padding))
		}
	}
	b.WriteString("\n")
	_, _ = out.WriteString(b.String())
}

func (p *Presenter) writeSummary(out *bufio.Writer, snap *model.Snapshot, fleet model.FleetAggregate) {
	pools := "-"
	if len(fleet.ActivePools) > 0 {
		pools = strings.Join(fleet.ActivePools, ", ")
	}

	fmt.Fprintf(out, "\n%s %s\n",
		p.paint(colorYellow, "Total hashrate:"),
		p.paint(colorGreen, FormatHashRate(fleet.TotalHashrate)))
	fmt.Fprintf(out, "%s %s\n", p.paint(colorCyan, "Pools:"), pools)
	fmt.Fprintf(out, "%s %d online, %d offline\n",
		p.paint(colorCyan, "Workers:"), fleet.Online, fleet.Offline)

	if snap != nil && !snap.FinishedAt.IsZero() {
		fmt.Fprintf(out, "%s\n", p.paint(colorDim, "Updated "+snap.FinishedAt.Local().Format(time.DateTime)))
	}
}
