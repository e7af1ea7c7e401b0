package banner

import (
	"github.com/charmbracelet/lipgloss"

	"surge/internal/tui/styles"
)

const ascii = `
   _____                      
  / ___/__  ___________ ____ 
  \__ \/ / / / ___/ __ '/ _ \
 ___/ / /_/ / /  / /_/ /  __/
/____/\__,_/_/   \__, /\___/ 
                /____/       `

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n"
}
