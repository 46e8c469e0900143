package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/watcher"
)

// EventKind is the kind of change reported for a document.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// ParseEventKind accepts the three kind names.
func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(s); k {
	case EventCreated, EventUpdated, EventDeleted:
		return k, nil
	}
	return "", wikierrors.ValidationError(fmt.Sprintf("unknown document event kind %q", s), nil).
		WithSuggestion("use created, updated or deleted")
}

// Source is the storage the coordinator reads documents from.
type Source interface {
	// ListDocuments returns every document in the corpus.
	ListDocuments(ctx context.Context) ([]Document, error)

	// ReadDocument returns the text of one document. A missing document
	// yields an error matching fs.ErrNotExist.
	ReadDocument(ctx context.Context, path string) (string, error)
}

// Notifier receives fire-and-forget notifications after each change.
type Notifier interface {
	DocumentChanged(path string, kind EventKind)
	IndexUpdated(snap *Snapshot)
}

// CoordinatorConfig contains configuration for the Coordinator.
type CoordinatorConfig struct {
	// Store is the index the coordinator mutates.
	Store *Store

	// Source supplies document text.
	Source Source

	// Notifier is told about changes (optional).
	Notifier Notifier

	// Accept filters watcher events by path (optional). Paths it rejects
	// are ignored by HandleEvents.
	Accept func(path string) bool
}

// Coordinator applies document changes to the store one at a time, in the
// order they are delivered.
type Coordinator struct {
	config CoordinatorConfig
	mu     sync.Mutex
}

// NewCoordinator creates a new index coordinator.
func NewCoordinator(config CoordinatorConfig) *Coordinator {
	if config.Store == nil {
		config.Store = NewStore()
	}
	return &Coordinator{config: config}
}

// Snapshot returns the latest published snapshot.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.config.Store.Snapshot()
}

// Rebuild re-reads the whole corpus and rebuilds the index from it. If the
// corpus cannot be listed the current snapshot stays in place and the error
// is returned.
func (c *Coordinator) Rebuild(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.config.Source.ListDocuments(ctx)
	if err != nil {
		return c.config.Store.Snapshot(), wikierrors.New(wikierrors.ErrCodeIndexFailed, "listing documents failed", err)
	}

	snap, _ := c.config.Store.Rebuild(docs)
	c.notifyIndex(snap)
	return snap, nil
}

// ApplyDocumentEvent brings the index in line with one document change.
//
// Created and updated documents are read and upserted. A document that
// turns out not to exist is removed. Any other read failure, or a parse
// failure, leaves the document contributing nothing; the error is returned
// next to the published snapshot.
func (c *Coordinator) ApplyDocumentEvent(ctx context.Context, path string, kind EventKind) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(ctx, path, kind)
}

func (c *Coordinator) apply(ctx context.Context, path string, kind EventKind) (*Snapshot, error) {
	store := c.config.Store

	switch kind {
	case EventDeleted:
		snap := store.Remove(path)
		c.notify(path, kind, snap)
		return snap, nil

	case EventCreated, EventUpdated:
		content, err := c.config.Source.ReadDocument(ctx, path)
		if errors.Is(err, fs.ErrNotExist) {
			snap := store.Remove(path)
			c.notify(path, EventDeleted, snap)
			return snap, nil
		}
		if err != nil {
			readErr := wikierrors.New(wikierrors.ErrCodeDocumentUnreadable, "document could not be read", err).
				WithDetail("path", path)
			store.parseFailed(path, readErr)
			snap := store.Remove(path)
			c.notify(path, kind, snap)
			return snap, readErr
		}

		snap, err := store.Upsert(path, content)
		c.notify(path, kind, snap)
		return snap, err
	}

	_, err := ParseEventKind(string(kind))
	return store.Snapshot(), err
}

// HandleEvents applies a batch of watcher events in order. Failures are
// logged and the remaining events are still applied.
func (c *Coordinator) HandleEvents(ctx context.Context, events []watcher.FileEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var processed int
	for _, event := range events {
		if err := c.handleEvent(ctx, event); err != nil {
			slog.Warn("failed to process document event",
				slog.String("path", event.Path),
				slog.String("operation", event.Operation.String()),
				wikierrors.LogAttr(err))
			continue
		}
		processed++
	}

	slog.Debug("document events applied",
		slog.Int("received", len(events)),
		slog.Int("processed", processed))
	return nil
}

func (c *Coordinator) handleEvent(ctx context.Context, event watcher.FileEvent) error {
	var err error
	switch event.Operation {
	case watcher.OpCreate:
		if !event.IsDir && c.accepts(event.Path) {
			_, err = c.apply(ctx, event.Path, EventCreated)
		}
	case watcher.OpModify:
		if !event.IsDir && c.accepts(event.Path) {
			_, err = c.apply(ctx, event.Path, EventUpdated)
		}
	case watcher.OpDelete:
		c.removeGone(ctx, event.Path)
	case watcher.OpRename:
		// Without OldPath the event names the path that was moved away;
		// the new name arrives as its own create.
		if event.OldPath == "" {
			c.removeGone(ctx, event.Path)
			break
		}
		c.removeGone(ctx, event.OldPath)
		if !event.IsDir && c.accepts(event.Path) {
			_, err = c.apply(ctx, event.Path, EventCreated)
		}
	}
	return err
}

// removeGone drops a path that left the corpus. The path may name a
// directory: a directory moved or deleted as a whole reports no events for
// the documents inside it, so everything indexed below it goes too.
func (c *Coordinator) removeGone(ctx context.Context, path string) {
	if c.accepts(path) || c.config.Store.Snapshot().HasDocument(path) {
		_, _ = c.apply(ctx, path, EventDeleted)
	}

	snap, removed := c.config.Store.RemoveDir(path)
	if len(removed) == 0 {
		return
	}
	slog.Debug("directory left the corpus",
		slog.String("path", path),
		slog.Int("documents", len(removed)))
	if c.config.Notifier == nil {
		return
	}
	for _, p := range removed {
		c.config.Notifier.DocumentChanged(p, EventDeleted)
	}
	c.config.Notifier.IndexUpdated(snap)
}

func (c *Coordinator) accepts(path string) bool {
	return c.config.Accept == nil || c.config.Accept(path)
}

func (c *Coordinator) notify(path string, kind EventKind, snap *Snapshot) {
	if c.config.Notifier == nil {
		return
	}
	c.config.Notifier.DocumentChanged(path, kind)
	c.config.Notifier.IndexUpdated(snap)
}

func (c *Coordinator) notifyIndex(snap *Snapshot) {
	if c.config.Notifier != nil {
		c.config.Notifier.IndexUpdated(snap)
	}
}
