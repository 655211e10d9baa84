package ui

import "strings"

const (
	reset      = "\033[0m"
	bold       = "\033[1m"
	skyBlue    = "\033[38;5;117m"
	cobalt     = "\033[38;5;33m"
	deepIndigo = "\033[38;5;61m"
	mint       = "\033[38;5;121m"
	dimGray    = "\033[38;5;244m"
)

var wordmark = [][]string{
	{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔══██╗", "██║  ██║", "╚═╝  ╚═╝"},
	{"███╗   ██╗", "████╗  ██║", "██╔██╗ ██║", "██║╚██╗██║", "██║ ╚████║", "╚═╝  ╚═══╝"},
	{"███████╗", "██╔════╝", "███████╗", "╚════██║", "███████║", "╚══════╝"},
}

var wordmarkGradient = []string{skyBlue, cobalt, deepIndigo}

// Banner renders the colored RealNerdStats wordmark and tagline.
func Banner() string {
	var b strings.Builder

	rows := make([]string, len(wordmark[0]))
	for i, letter := range wordmark {
		color := wordmarkGradient[i%len(wordmarkGradient)]
		for row := range letter {
			rows[row] += color + letter[row] + "  "
		}
	}
	for _, line := range rows {
		b.WriteString(bold + line + reset + "\n")
	}

	b.WriteString("\n")
	b.WriteString(bold + mint + "RealNerdStats" + reset + dimGray + "  •  live system & process monitor" + reset + "\n")

	return b.String()
}
