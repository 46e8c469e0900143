// Package watcher reports changes to the docs tree as debounced batches.
//
// fsnotify is used when the platform supports it; otherwise the tree is
// polled. Hidden paths and configured doublestar ignore patterns never
// produce events. Paths are slash-separated and relative to the root.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go w.Start(ctx, docsDir)
//
//	for batch := range w.Events() {
//	    coordinator.HandleEvents(ctx, batch)
//	}
package watcher
