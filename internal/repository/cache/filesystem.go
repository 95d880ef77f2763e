package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vecmap/tilecore/internal/tilecoord"
)

// FilesystemCache is the default disk tier: the content-addressed
// <root>/<z>/<x>/<y>.mvt layout from spec §4.4/§6. Directories are
// created lazily. Writes are atomic per file (write-to-temp +
// rename), so a reader never observes a partially written tile: it
// sees the old bytes, the new bytes, or (only before the first write)
// a read failure, all of which the loader tolerates.
type FilesystemCache struct {
	root string
}

// NewFilesystemCache roots the cache at dir (the platform cache
// directory's "tile-cache/" subpath, per spec §6).
func NewFilesystemCache(dir string) *FilesystemCache {
	return &FilesystemCache{root: dir}
}

var _ TileCache = (*FilesystemCache)(nil)

func (c *FilesystemCache) Get(k tilecoord.Coord) (Value, bool, error) {
	content, err := os.ReadFile(c.path(k))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return content, true, nil
}

func (c *FilesystemCache) Set(k tilecoord.Coord, v Value) error {
	dir := c.dir(k)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.mvt")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(v); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, c.path(k))
}

func (c *FilesystemCache) dir(k tilecoord.Coord) string {
	return filepath.Join(c.root, fmt.Sprint(k.Zoom), fmt.Sprint(k.X))
}

func (c *FilesystemCache) path(k tilecoord.Coord) string {
	return filepath.Join(c.dir(k), fmt.Sprintf("%d.mvt", k.Y))
}
