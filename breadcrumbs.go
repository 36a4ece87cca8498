package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// BreadcrumbType represents the type of breadcrumb event
type BreadcrumbType string

const (
	BreadcrumbPipeline   BreadcrumbType = "pipeline"
	BreadcrumbDocument   BreadcrumbType = "document"
	BreadcrumbMessage    BreadcrumbType = "message"
	BreadcrumbNavigation BreadcrumbType = "navigation"
)

// BreadcrumbEntry represents a single breadcrumb event
type BreadcrumbEntry struct {
	Type      BreadcrumbType
	Message   string
	Data      map[string]any
	Timestamp time.Time
	Level     sentry.Level
	Count     int
}

// BreadcrumbBuffer is a thread-safe circular buffer for breadcrumbs with aggregation
type BreadcrumbBuffer struct {
	entries      []BreadcrumbEntry
	maxSize      int
	currentIndex int
	count        int
	mu           sync.Mutex
}

// NewBreadcrumbBuffer creates a new breadcrumb buffer with the given max size
func NewBreadcrumbBuffer(maxSize int) *BreadcrumbBuffer {
	if maxSize < 1 {
		maxSize = 1
	}
	return &BreadcrumbBuffer{
		entries: make([]BreadcrumbEntry, maxSize),
		maxSize: maxSize,
	}
}

// addEntry adds an entry to the buffer, folding it into the previous one when they repeat
func (b *BreadcrumbBuffer) addEntry(entry BreadcrumbEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry.Count = 1
	if b.count > 0 {
		lastIdx := (b.currentIndex - 1 + b.maxSize) % b.maxSize
		last := &b.entries[lastIdx]
		if canAggregate(last, &entry) {
			last.Count++
			last.Timestamp = entry.Timestamp
			return
		}
	}

	b.entries[b.currentIndex] = entry
	b.currentIndex = (b.currentIndex + 1) % b.maxSize
	if b.count < b.maxSize {
		b.count++
	}
}

// canAggregate reports whether current repeats last closely enough to be counted
// instead of stored.
func canAggregate(last, current *BreadcrumbEntry) bool {
	if last.Type != current.Type || last.Message != current.Message {
		return false
	}
	// Navigation repeats while typing in the picker; everything else must be back to back
	if current.Type == BreadcrumbNavigation {
		return current.Timestamp.Sub(last.Timestamp) <= time.Second
	}
	return current.Timestamp.Sub(last.Timestamp) <= 100*time.Millisecond
}

// RecordStep records a pipeline step such as resolving a field or applying a query
func (b *BreadcrumbBuffer) RecordStep(step string, detail string) {
	b.addEntry(BreadcrumbEntry{
		Type:      BreadcrumbPipeline,
		Message:   fmt.Sprintf("Step: %s %s", step, detail),
		Timestamp: time.Now(),
		Level:     sentry.LevelInfo,
		Data: map[string]any{
			"step":   step,
			"detail": detail,
		},
	})
}

// RecordDocument records a document load or save
func (b *BreadcrumbBuffer) RecordDocument(action string, path string) {
	b.addEntry(BreadcrumbEntry{
		Type:      BreadcrumbDocument,
		Message:   fmt.Sprintf("Document: %s", action),
		Timestamp: time.Now(),
		Level:     sentry.LevelInfo,
		Data: map[string]any{
			"action": action,
			"path":   path,
		},
	})
}

// RecordMessage records a message shown to the user
func (b *BreadcrumbBuffer) RecordMessage(level sentry.Level, message string) {
	b.addEntry(BreadcrumbEntry{
		Type:      BreadcrumbMessage,
		Message:   message,
		Timestamp: time.Now(),
		Level:     level,
	})
}

// RecordNavigation records a focus or selection change in the pick dialog
func (b *BreadcrumbBuffer) RecordNavigation(mode string, description string) {
	b.addEntry(BreadcrumbEntry{
		Type:      BreadcrumbNavigation,
		Message:   fmt.Sprintf("Navigation: %s - %s", mode, description),
		Timestamp: time.Now(),
		Level:     sentry.LevelDebug,
		Data: map[string]any{
			"mode":        mode,
			"description": description,
		},
	})
}

// Entries returns the buffered entries, oldest first.
func (b *BreadcrumbBuffer) Entries() []BreadcrumbEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

func (b *BreadcrumbBuffer) snapshot() []BreadcrumbEntry {
	entries := make([]BreadcrumbEntry, 0, b.count)
	start := 0
	if b.count == b.maxSize {
		start = b.currentIndex
	}
	for i := 0; i < b.count; i++ {
		entries = append(entries, b.entries[(start+i)%b.maxSize])
	}
	return entries
}

// Flush sends breadcrumbs to Sentry and empties the buffer
func (b *BreadcrumbBuffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return
	}

	var sentryBreadcrumbs []*sentry.Breadcrumb
	for _, entry := range b.snapshot() {
		message := entry.Message
		data := entry.Data
		if entry.Count > 1 {
			message = fmt.Sprintf("%s (x%d)", entry.Message, entry.Count)
			data = make(map[string]any, len(entry.Data)+1)
			for k, v := range entry.Data {
				data[k] = v
			}
			data["count"] = entry.Count
		}

		sentryBreadcrumbs = append(sentryBreadcrumbs, &sentry.Breadcrumb{
			Message:   message,
			Category:  string(entry.Type),
			Data:      data,
			Timestamp: entry.Timestamp,
			Level:     entry.Level,
		})
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		for _, bc := range sentryBreadcrumbs {
			scope.AddBreadcrumb(bc, 100)
		}
	})

	b.entries = make([]BreadcrumbEntry, b.maxSize)
	b.currentIndex = 0
	b.count = 0
}

// Global breadcrumb buffer instance
var breadcrumbs = NewBreadcrumbBuffer(100)

// InitBreadcrumbs replaces the global breadcrumb buffer
func InitBreadcrumbs(maxSize int) {
	breadcrumbs = NewBreadcrumbBuffer(maxSize)
}
