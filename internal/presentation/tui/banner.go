package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  ____       _ _                         ", "#fbbf24"},
	{" |  _ \\ __ _(_) |_      ____ _ _   _ ___ ", "#f59e0b"},
	{" | |_) / _` | | \\ \\ /\\ / / _` | | | / __|", "#f97316"},
	{" |  _ < (_| | | |\\ V  V / (_| | |_| \\__ \\", "#ef4444"},
	{" |_| \\_\\__,_|_|_| \\_/\\_/ \\__,_|\\__, |___/", "#dc2626"},
	{"                               |___/     ", "#b91c1c"},
}

// PrintBanner writes the Railways banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String(fmt.Sprintf("  conflict engine v%s", version)).Faint())
	fmt.Fprintln(w)
}
