package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"material-updater/internal/diff"
	"material-updater/internal/materialbin"
	"material-updater/internal/shaderfix"
	"material-updater/internal/transcode"
	"material-updater/internal/version"
)

// ANSI palette indices.
const (
	colorRed    = "1"
	colorGreen  = "2"
	colorYellow = "3"
	colorCyan   = "6"
)

// console prints progress lines and implements transcode.Reporter. Styling
// is dropped automatically when stdout is not a terminal.
type console struct {
	out      *termenv.Output
	showDiff bool
	diff     diff.Options
}

func newConsole(w io.Writer, showDiff bool, diffMax int, opts ...termenv.OutputOption) *console {
	return &console{
		out:      termenv.NewOutput(w, opts...),
		showDiff: showDiff,
		diff:     diff.Options{MaxBytes: diffMax},
	}
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) name(s string) termenv.Style {
	return c.out.String(s).Foreground(c.out.Color(colorCyan))
}

func (c *console) Material(name string, matched materialbin.Version) {
	c.printf("Processing file %s %s\n", c.name(name), c.out.String("["+matched.String()+"]").Faint())
}

func (c *console) CompatSkipped(name string, err *materialbin.CompatError) {
	label := c.out.String("Ignoring materialbin because of compatibility error:").
		Foreground(c.out.Color(colorRed)).
		Background(c.out.Color(colorYellow))
	c.printf("%s %s\n%v\n", label, c.name(name), err)
}

func (c *console) ShaderChanged(name string, change shaderfix.Change) {
	if !c.showDiff {
		return
	}
	patch, oversize := diff.Change(name, change, c.diff)
	c.printf("%s", patch)
	if oversize {
		c.printf("%s\n", c.out.String(fmt.Sprintf("diff of %s:%s omitted, raise -diff-max-bytes to see it", name, change.Location)).
			Foreground(c.out.Color(colorYellow)))
	}
}

// summary prints the archive totals.
func (c *console) summary(res transcode.Result, target version.Target) {
	if res.Warnings != 0 {
		c.printf("%s\n", c.out.String(fmt.Sprintf("%d warnings while updating", res.Warnings)).
			Foreground(c.out.Color(colorYellow)))
	}
	c.printf("Ported %s materials in zip to version %s\n",
		c.out.String(fmt.Sprint(res.Translated)).Foreground(c.out.Color(colorGreen)),
		c.name(target.Binary().String()))
}
