package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/askdb/askdb/internal/storage"
)

// Archiver copies rendered exports into the configured object store so a
// download survives the browser session.
type Archiver struct {
	store storage.ObjectStore
	now   func() time.Time
}

func NewArchiver(store storage.ObjectStore) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

// Archive stores the file under a date-partitioned key and returns the
// object info. The trace ID keeps keys unique within a day.
func (a *Archiver) Archive(ctx context.Context, traceID string, file File) (storage.ObjectInfo, error) {
	if len(file.Data) == 0 {
		return storage.ObjectInfo{}, fmt.Errorf("export file is empty")
	}
	if traceID == "" {
		traceID = fmt.Sprintf("%d", a.now().UnixNano())
	}
	key := path.Join(a.now().UTC().Format("2006/01/02"), traceID+"-"+file.Name)
	info, err := a.store.Put(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), storage.PutOptions{ContentType: file.ContentType})
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("archive export: %w", err)
	}
	return info, nil
}
