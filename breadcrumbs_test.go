package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadcrumbBuffer_AggregatesRepeats(t *testing.T) {
	b := NewBreadcrumbBuffer(10)

	b.RecordStep("run", "Parcels.Code")
	b.RecordStep("run", "Parcels.Code")
	b.RecordDocument("save", "/tmp/selq.yaml")

	entries := b.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, BreadcrumbPipeline, entries[0].Type)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, BreadcrumbDocument, entries[1].Type)
	assert.Equal(t, 1, entries[1].Count)
}

func TestBreadcrumbBuffer_SpacedEventsAreKept(t *testing.T) {
	b := NewBreadcrumbBuffer(10)

	now := time.Now()
	b.addEntry(BreadcrumbEntry{Type: BreadcrumbPipeline, Message: "Step: run", Timestamp: now})
	b.addEntry(BreadcrumbEntry{Type: BreadcrumbPipeline, Message: "Step: run", Timestamp: now.Add(time.Second)})

	assert.Len(t, b.Entries(), 2)
}

func TestBreadcrumbBuffer_Wraps(t *testing.T) {
	b := NewBreadcrumbBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d", "e"} {
		b.RecordMessage(sentry.LevelInfo, msg)
	}

	var got []string
	for _, e := range b.Entries() {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"c", "d", "e"}, got)
}

func TestBreadcrumbBuffer_FlushEmpties(t *testing.T) {
	b := NewBreadcrumbBuffer(5)
	b.RecordNavigation("view", "Parcels")
	b.Flush()
	assert.Empty(t, b.Entries())

	b.Flush()
}

func TestConsole(t *testing.T) {
	color.NoColor = true
	InitBreadcrumbs(10)

	var out, errOut bytes.Buffer
	c := newConsole(&out, &errOut)
	c.AddMessage("Output query: ID IN (1)")
	c.AddWarning("careful")
	c.AddError("broken")

	assert.Equal(t, "Output query: ID IN (1)\n", out.String())
	assert.Equal(t, "WARNING: careful\nERROR: broken\n", errOut.String())

	entries := breadcrumbs.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, sentry.LevelWarning, entries[1].Level)
	assert.Equal(t, sentry.LevelError, entries[2].Level)
}
