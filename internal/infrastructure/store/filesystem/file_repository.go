package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"deploybot/internal/domain/entity"
)

// FileRepository keeps one directory per conversation holding the rendered
// manifest and a metadata sidecar, as an on-disk audit trail of what was
// generated.
type FileRepository struct {
	basePath string
}

const manifestFileName = "deploy.yaml"

func (fr *FileRepository) GetBasePath() string {
	return fr.basePath
}

func NewFileRepository(basePath string) (FileRepository, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0755); mkErr != nil {
			return FileRepository{}, fmt.Errorf("failed to create directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return FileRepository{}, fmt.Errorf("failed to check directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return FileRepository{}, fmt.Errorf("path %s exists but is not a directory", basePath)
	}

	return FileRepository{
		basePath: basePath,
	}, nil
}

func (r *FileRepository) SaveManifest(ctx context.Context, conversationID, manifest string, params entity.ParameterSet) error {
	dir := filepath.Join(r.basePath, conversationID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, manifestFileName), []byte(manifest), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	metadata := map[string]interface{}{
		"conversation_id": conversationID,
		"created_at":      time.Now(),
		"params":          params,
	}

	metadataData, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), metadataData, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

func (r *FileRepository) GetManifest(ctx context.Context, conversationID string) (string, error) {
	path := filepath.Join(r.basePath, conversationID, manifestFileName)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("manifest not found: %s", conversationID)
		}
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}
	return string(content), nil
}

func (r *FileRepository) ListManifests(ctx context.Context) ([]string, error) {
	var ids []string

	err := filepath.WalkDir(r.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() && path != r.basePath {
			if _, err := os.Stat(filepath.Join(path, manifestFileName)); err == nil {
				ids = append(ids, filepath.Base(path))
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return ids, nil
}

func (r *FileRepository) DeleteManifest(ctx context.Context, conversationID string) error {
	if err := os.RemoveAll(filepath.Join(r.basePath, conversationID)); err != nil {
		return fmt.Errorf("failed to delete manifest directory: %w", err)
	}
	return nil
}
