package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailsift-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// exportMIMETypes maps mail-export file extensions to MIME types. The
// walker only picks up these formats; everything else in the tree is
// ignored.
var exportMIMETypes = map[string]string{
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".eml":  "message/rfc822",
	".txt":  "text/plain",
}

// Connector reads mail-export files from a directory tree.
type Connector struct {
	sourceID string
	rootPath string

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a new filesystem connector rooted at rootPath.
func New(sourceID, rootPath string) *Connector {
	return &Connector{
		sourceID: sourceID,
		rootPath: rootPath,
	}
}

// Factory builds filesystem connectors for the scan orchestrator.
func Factory(sourceID, rootPath string) (driven.Connector, error) {
	return New(sourceID, rootPath), nil
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// SourceID returns the source identifier.
func (c *Connector) SourceID() string {
	return c.sourceID
}

// Capabilities returns the connector's capabilities.
func (c *Connector) Capabilities() driven.ConnectorCapabilities {
	return driven.ConnectorCapabilities{
		SupportsIncremental:  true,
		SupportsWatch:        true,
		SupportsValidation:   true,
		SupportsCursorReturn: true,
	}
}

// Validate checks that the scan root exists and is a directory.
func (c *Connector) Validate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return c.checkRoot()
}

// FullSync walks the tree and emits every visible mail-export file in
// lexical order.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		if err := c.checkRoot(); err != nil {
			errsChan <- err
			return
		}

		c.logDiscovery(ctx)

		err := c.walkExports(ctx, time.Time{}, func(doc domain.RawDocument) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case docsChan <- doc:
				return nil
			}
		})
		if err != nil && ctx.Err() == nil {
			errsChan <- err
		}
	}()

	return docsChan, errsChan
}

// IncrementalSync emits files modified at or after the cursor time. The
// cursor is UnixNano; a file whose modification time equals the cursor
// is included, so files written at the sync boundary are never missed.
// Deletions are not detected. On success a SyncComplete carrying the
// next cursor is sent on the error channel.
func (c *Connector) IncrementalSync(
	ctx context.Context, state domain.SyncState,
) (<-chan domain.RawDocumentChange, <-chan error) {
	changesChan := make(chan domain.RawDocumentChange)
	errsChan := make(chan error, 1)

	go func() {
		defer close(changesChan)
		defer close(errsChan)

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			errsChan <- domain.ErrConnectorClosed
			return
		}
		c.mu.Unlock()

		since, err := parseCursor(state.Cursor)
		if err != nil {
			errsChan <- err
			return
		}

		if err := c.checkRoot(); err != nil {
			errsChan <- err
			return
		}

		// The next cursor is taken before the walk, so files modified
		// while it runs are re-synced next time.
		syncStart := time.Now()

		changeType := domain.ChangeUpdated
		if since.IsZero() {
			changeType = domain.ChangeCreated
		}

		err = c.walkExports(ctx, since, func(doc domain.RawDocument) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case changesChan <- domain.RawDocumentChange{Type: changeType, Document: doc}:
				return nil
			}
		})
		if err != nil {
			if ctx.Err() == nil {
				errsChan <- err
			}
			return
		}

		errsChan <- &driven.SyncComplete{NewCursor: strconv.FormatInt(syncStart.UnixNano(), 10)}
	}()

	return changesChan, errsChan
}

// Watch emits change events for mail-export files under the root. New
// subdirectories join the watch as they appear. The stream closes when
// the context is cancelled or the connector is closed.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrConnectorClosed
	}
	c.mu.Unlock()

	if err := c.checkRoot(); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.watchTree(watcher); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch tree: %w", err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	changesChan := make(chan domain.RawDocumentChange)

	go func() {
		defer close(changesChan)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Create) {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						if !c.hiddenWithinRoot(event.Name) {
							watcher.Add(event.Name)
						}
						continue
					}
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case changesChan <- *change:
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal; keep streaming.
			}
		}
	}()

	return changesChan, nil
}

// Close releases watcher resources. Safe to call multiple times.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
	return nil
}

// checkRoot verifies the scan root exists and is a directory.
func (c *Connector) checkRoot() error {
	info, err := os.Stat(c.rootPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: root path does not exist: %s", domain.ErrConnectorValidation, c.rootPath)
	}
	if err != nil {
		return fmt.Errorf("%w: stat root path: %w", domain.ErrConnectorValidation, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: root path is not a directory: %s", domain.ErrConnectorValidation, c.rootPath)
	}
	return nil
}

// walkExports visits every visible mail-export file under the root
// whose modification time is not before since. The zero time visits
// everything. Unreadable entries are skipped, never fatal.
func (c *Connector) walkExports(ctx context.Context, since time.Time, emit func(domain.RawDocument) error) error {
	return filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if c.hiddenWithinRoot(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if c.hiddenWithinRoot(path) || !isExport(path) {
			return nil
		}

		if !since.IsZero() {
			info, statErr := d.Info()
			if statErr != nil {
				return nil
			}
			if info.ModTime().Before(since) {
				return nil
			}
		}

		doc, readErr := c.readDocument(path)
		if readErr != nil {
			return nil
		}
		return emit(*doc)
	})
}

// logDiscovery reports how many export files the walk will visit,
// broken down by extension. Metadata only, no file contents are read.
func (c *Connector) logDiscovery(ctx context.Context) {
	total := 0
	byExt := make(map[string]int)

	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			if c.hiddenWithinRoot(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if c.hiddenWithinRoot(path) || !isExport(path) {
			return nil
		}
		total++
		byExt[strings.ToLower(filepath.Ext(path))]++
		return nil
	})
	if err != nil {
		return
	}

	logger.Info("Discovered %d export files under %s", total, c.rootPath)
	for _, ext := range []string{".csv", ".html", ".htm", ".eml", ".txt"} {
		if n := byExt[ext]; n > 0 {
			logger.Debug("  %s: %d", ext, n)
		}
	}
}

// watchTree registers the root and every visible subdirectory.
func (c *Connector) watchTree(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if c.hiddenWithinRoot(path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// handleFsEvent maps one fsnotify event to a document change. Events on
// directories, hidden paths and non-export files yield nil, as do
// attribute-only changes.
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.hiddenWithinRoot(event.Name) || !isExport(event.Name) {
		return nil
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		doc, err := c.readDocument(event.Name)
		if err != nil {
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Op.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *doc}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type: domain.ChangeDeleted,
			Document: domain.RawDocument{
				SourceID: c.sourceID,
				URI:      event.Name,
				MIMEType: detectMIMEType(event.Name),
			},
		}
	}
	return nil
}

// readDocument loads one file into a raw document.
func (c *Connector) readDocument(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	filename := filepath.Base(path)
	return &domain.RawDocument{
		SourceID: c.sourceID,
		URI:      path,
		MIMEType: detectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{
			"filename":  filename,
			"extension": strings.TrimPrefix(filepath.Ext(filename), "."),
		},
	}, nil
}

// hiddenWithinRoot reports whether path sits under a dot-prefixed entry
// inside the scan root. The root's own components are not counted, so a
// root that itself lives in a hidden directory still scans.
func (c *Connector) hiddenWithinRoot(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(rel)
}

// isHidden reports whether any path component is dot-prefixed. The "."
// and ".." components do not count.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// isExport reports whether the file extension is a recognised
// mail-export format.
func isExport(path string) bool {
	_, ok := exportMIMETypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// detectMIMEType maps a filename to a MIME type. Export formats get
// their canonical types; anything else falls back to the platform table
// with parameters stripped. Extensionless files are treated as text.
func detectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "text/plain"
	}
	if mimeType, ok := exportMIMETypes[ext]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
			return parsed
		}
		return mimeType
	}
	return "application/octet-stream"
}

// parseCursor decodes a UnixNano cursor. Empty means the zero time,
// which syncs everything.
func parseCursor(cursor string) (time.Time, error) {
	if cursor == "" {
		return time.Time{}, nil
	}
	nanos, err := strconv.ParseInt(cursor, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cursor format %q: %w", cursor, domain.ErrInvalidInput)
	}
	return time.Unix(0, nanos), nil
}
