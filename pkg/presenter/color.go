package presenter

const (
	colorReset   = "\x1b[0m"
	colorDim     = "\x1b[2m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"

	clearScreen = "\x1bc"
)

// paint wraps text in color when enabled
func (p *Presenter) paint(color, text string) string {
	if !p.color || color == "" {
		return text
	}
	return color + text + colorReset
}
