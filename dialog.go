package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rivo/tview"

	"selq/internal/selq"
)

// logView is a Messenger that appends to the dialog's log pane.
type logView struct {
	*tview.TextView
}

func newLogView() *logView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")
	return &logView{TextView: tv}
}

func (l *logView) add(tag, msg string) {
	fmt.Fprintf(l, "%s%s[-]\n", tag, tview.Escape(msg))
	l.ScrollToEnd()
}

func (l *logView) AddMessage(msg string) {
	breadcrumbs.RecordMessage(sentry.LevelInfo, msg)
	l.add("", msg)
}

func (l *logView) AddWarning(msg string) {
	breadcrumbs.RecordMessage(sentry.LevelWarning, msg)
	l.add("[yellow]", msg)
}

func (l *logView) AddError(msg string) {
	breadcrumbs.RecordMessage(sentry.LevelError, msg)
	l.add("[red::b]", msg)
}

// pickDialog collects the view, field and apply flag and runs the pipeline.
type pickDialog struct {
	ctx     context.Context
	session *selq.Session

	app      *tview.Application
	selector *FuzzySelector
	form     *tview.Form
	fields   *tview.DropDown
	log      *logView

	view     string
	field    string
	apply    bool
	distinct bool
}

func newPickDialog(ctx context.Context, s *selq.Session) *pickDialog {
	d := &pickDialog{
		ctx:     ctx,
		session: s,
		app:     tview.NewApplication(),
		log:     newLogView(),
	}
	s.Msg = d.log

	d.selector = NewFuzzySelector(s.Doc.ViewNames(), d.selectView, d.app.Stop)
	d.selector.SetBorder(true).SetTitle(" View ")

	d.fields = tview.NewDropDown().SetLabel("Field ")
	d.form = tview.NewForm().
		AddFormItem(d.fields).
		AddCheckbox("Apply ", false, func(checked bool) { d.apply = checked }).
		AddCheckbox("Distinct ", false, func(checked bool) { d.distinct = checked }).
		AddButton("Run", d.run).
		AddButton("Quit", d.app.Stop)
	d.form.SetBorder(true).SetTitle(" Query ")
	d.form.SetCancelFunc(func() {
		breadcrumbs.RecordNavigation("view", "back to view picker")
		d.app.SetFocus(d.selector)
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.selector, 9, 0, true).
		AddItem(d.form, 9, 0, false).
		AddItem(d.log, 0, 1, false)

	d.app.SetRoot(layout, true).EnableMouse(true).SetFocus(d.selector)
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			d.app.Stop()
			return nil
		}
		return event
	})
	return d
}

// Run blocks until the dialog is closed or ctx is done.
func (d *pickDialog) Run() error {
	stop := context.AfterFunc(d.ctx, d.app.Stop)
	defer stop()
	return d.app.Run()
}

func (d *pickDialog) selectView(name string) {
	breadcrumbs.RecordNavigation("view", name)
	d.view, d.field = name, ""
	d.selector.SetTitle(" View: " + tview.Escape(name) + " ")

	v, _, err := d.session.Doc.FindView(name)
	if err != nil {
		d.log.AddError(err.Error())
		return
	}
	rel, err := d.session.Relation(v)
	if err != nil {
		d.log.AddError(err.Error())
		return
	}

	var options []string
	for _, col := range rel.Columns {
		if col.Kind.Supported() {
			options = append(options, col.Name)
		}
	}
	if len(options) == 0 {
		d.log.AddWarning(name + " has no fields that can be listed in a query.")
		d.fields.SetOptions(nil, nil)
		return
	}

	d.fields.SetOptions(options, func(option string, _ int) {
		d.field = option
	})
	d.fields.SetCurrentOption(0)
	d.app.SetFocus(d.form)
}

func (d *pickDialog) run() {
	if d.view == "" || d.field == "" {
		d.log.AddWarning("Choose a view and a field first.")
		return
	}

	flag := ""
	if d.apply {
		flag = selq.ApplyFlag
	}
	breadcrumbs.RecordStep("run", d.view+"."+d.field)

	res, err := d.session.Run(d.ctx, selq.Params{
		View:     d.view,
		Field:    d.field,
		Apply:    flag,
		Distinct: d.distinct,
	})
	if err != nil {
		d.log.AddError(err.Error())
		if !errors.Is(err, selq.ErrEmptySelection) {
			var unsupported *selq.UnsupportedFieldTypeError
			if !errors.As(err, &unsupported) {
				CaptureError(err)
			}
		}
		return
	}
	if res.Matched == 0 {
		return
	}

	if err := d.session.Doc.Save(); err != nil {
		d.log.AddError(err.Error())
		return
	}
	breadcrumbs.RecordDocument("save", d.session.Doc.Path())
	d.log.AddMessage(fmt.Sprintf("Saved %s.", d.session.Doc.Path()))
}
