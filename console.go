package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/getsentry/sentry-go"
)

// console prints run messages to the terminal: messages plain on out, warnings in
// yellow and errors in red on errOut.
type console struct {
	out    io.Writer
	errOut io.Writer
	warn   *color.Color
	fail   *color.Color
}

func newConsole(out, errOut io.Writer) *console {
	return &console{
		out:    out,
		errOut: errOut,
		warn:   color.New(color.FgYellow),
		fail:   color.New(color.FgRed, color.Bold),
	}
}

func (c *console) AddMessage(msg string) {
	breadcrumbs.RecordMessage(sentry.LevelInfo, msg)
	fmt.Fprintln(c.out, msg)
}

func (c *console) AddWarning(msg string) {
	breadcrumbs.RecordMessage(sentry.LevelWarning, msg)
	c.warn.Fprintln(c.errOut, "WARNING: "+msg)
}

func (c *console) AddError(msg string) {
	breadcrumbs.RecordMessage(sentry.LevelError, msg)
	c.fail.Fprintln(c.errOut, "ERROR: "+msg)
}
