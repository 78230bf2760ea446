package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Sink receives workspace snapshots
type Sink interface {
	Name() string
	Save(ctx context.Context, ws Workspace) error
}

// Store is a Sink that can also read the last saved workspace back
type Store interface {
	Sink
	Load(ctx context.Context) (Workspace, error)
}

// FileStore persists the workspace as a single JSON document
type FileStore struct {
	Path string
}

// NewFileStore creates a store writing to path
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Name identifies the sink in logs
func (s *FileStore) Name() string {
	return "file:" + s.Path
}

// Save writes the workspace to disk, replacing the previous document
func (s *FileStore) Save(_ context.Context, ws Workspace) error {
	return SaveWorkspace(&ws, s.Path)
}

// Load reads and validates the workspace. ErrNoWorkspace is returned when the
// file does not exist.
func (s *FileStore) Load(_ context.Context) (Workspace, error) {
	ws, err := LoadWorkspace(s.Path)
	if err != nil {
		return Workspace{}, err
	}
	return *ws, nil
}

// SaveWorkspace writes a workspace to disk as JSON. The document is written to
// a temporary file first so readers never observe a partial write.
func SaveWorkspace(ws *Workspace, path string) error {
	data, err := encodeWorkspace(ws)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace workspace: %w", err)
	}
	return nil
}

// LoadWorkspace reads a workspace from a JSON file on disk
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNoWorkspace)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	return DecodeWorkspace(data)
}

// DecodeWorkspace parses and validates a workspace document
func DecodeWorkspace(data []byte) (*Workspace, error) {
	var ws Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkspace, err)
	}
	normalizeWorkspace(&ws)
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

func encodeWorkspace(ws *Workspace) ([]byte, error) {
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal workspace: %w", err)
	}
	return data, nil
}

// normalizeWorkspace repairs fields older documents may omit. A missing
// template is rebuilt from the shape of the first indicator.
func normalizeWorkspace(ws *Workspace) {
	if ws.NextID < 1 {
		ws.NextID = 1
	}
	for _, ind := range ws.Indicators {
		if ind.ID >= ws.NextID {
			ws.NextID = ind.ID + 1
		}
	}
	if len(ws.Template.Groups) == 0 && len(ws.Indicators) > 0 {
		for _, g := range ws.Indicators[0].Groups {
			tg := templateGroup(g)
			for i := range tg.Slices {
				tg.Slices[i].Description = ""
			}
			ws.Template.Groups = append(ws.Template.Groups, tg)
		}
		ws.Template.ThemeCount = 0
	}
	if ws.Template.ThemeCount == 0 {
		ws.Template.ThemeCount = len(ws.Template.Groups)
	}
	if ws.ActiveIndicator == 0 && len(ws.Indicators) > 0 {
		ws.ActiveIndicator = ws.Indicators[0].ID
	}
}
