package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when an interactive
// conversation starts.
func PrintBanner() {
	p := termenv.ColorProfile()
	s1 := termenv.String("                                 __ _               ").Foreground(p.Color("#38bdf8"))
	s2 := termenv.String("  ___ ___  _ ____   _____  / _| | _____      __").Foreground(p.Color("#22d3ee"))
	s3 := termenv.String(" / __/ _ \\| '_ \\ \\ / / _ \\| |_| |/ _ \\ \\ /\\ / /").Foreground(p.Color("#2dd4bf"))
	s4 := termenv.String("| (_| (_) | | | \\ V / (_) |  _| | (_) \\ V  V / ").Foreground(p.Color("#34d399"))
	s5 := termenv.String(" \\___\\___/|_| |_|\\_/ \\___/|_| |_|\\___/ \\_/\\_/  ").Foreground(p.Color("#4ade80"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}

// PromptStyle colors the user input prompt.
func PromptStyle(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#818cf8")).Bold().String()
}

// ChoiceStyle colors a numbered option line.
func ChoiceStyle(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#fbbf24")).String()
}
