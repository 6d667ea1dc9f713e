package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sitesync/internal/models"
	"sitesync/pkg/metadata"

	"github.com/google/renameio/v2"
)

const filePerm = 0o644

// WriteOptions controls how a catalog is persisted.
type WriteOptions struct {
	ArchivePath  string
	PrettyPrint  bool
	CreateBackup bool
}

// WriteResult describes what SaveCatalogJSON did on disk.
type WriteResult struct {
	Path        string
	BackupPath  string
	ArchivePath string
	Fingerprint string
	Bytes       int
	Unchanged   bool
}

// MarshalCatalog encodes the catalog as UTF-8 JSON without HTML escaping.
// Pretty output uses a two-space indent; both forms end in a newline.
func MarshalCatalog(catalog *models.Catalog, pretty bool) ([]byte, error) {
	if catalog.Sites == nil {
		catalog = models.NewCatalog()
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if pretty {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(catalog); err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFileAtomic replaces path with data via a synced temp file and rename.
// Missing parent directories are created.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(filePerm))
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", path, err)
	}

	defer func() {
		_ = pendingFile.Cleanup()
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}

	return nil
}

// SaveCatalogJSON writes the catalog to outputPath, optionally keeping a .bak of the
// previous file and a timestamped archive copy.
func (c *Client) SaveCatalogJSON(catalog *models.Catalog, outputPath string, opts WriteOptions) (*WriteResult, error) {
	data, err := MarshalCatalog(catalog, opts.PrettyPrint)
	if err != nil {
		return nil, err
	}

	res := &WriteResult{
		Path:        outputPath,
		Fingerprint: metadata.Fingerprint(data),
		Bytes:       len(data),
	}

	previous, err := os.ReadFile(outputPath)

	switch {
	case err == nil:
		res.Unchanged = metadata.Fingerprint(previous) == res.Fingerprint

		if opts.CreateBackup && !res.Unchanged {
			res.BackupPath = outputPath + ".bak"
			if err := WriteFileAtomic(res.BackupPath, previous); err != nil {
				return nil, fmt.Errorf("failed to back up previous output: %w", err)
			}
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read previous output: %w", err)
	}

	if !res.Unchanged {
		if err := WriteFileAtomic(outputPath, data); err != nil {
			return nil, err
		}
	}

	if opts.ArchivePath != "" {
		if err := WriteFileAtomic(opts.ArchivePath, data); err != nil {
			return nil, fmt.Errorf("failed to write archive: %w", err)
		}

		res.ArchivePath = opts.ArchivePath
	}

	c.logger.Debug("catalog written",
		"path", outputPath,
		"bytes", res.Bytes,
		"unchanged", res.Unchanged,
		"fingerprint", res.Fingerprint[:12],
	)

	return res, nil
}
