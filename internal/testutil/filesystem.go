package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"vsnap-go/internal/vsnap"
)

// MockFile represents a file or directory in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Paths are absolute and cleaned. Parents are not created implicitly.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile

	// Ignored lists basenames IsIgnored reports as ignored.
	Ignored []string
	// MkdirErr, ReadDirErr and WriteErr make the matching operations fail.
	MkdirErr   error
	ReadDirErr error
	WriteErr   error

	probes int
}

// NewMockFilesystemManager creates a new mock filesystem containing only "/".
func NewMockFilesystemManager() *MockFilesystemManager {
	m := &MockFilesystemManager{files: make(map[string]*MockFile)}
	m.files["/"] = &MockFile{IsDirectory: true, Permissions: 0755}
	return m
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory and all of its missing ancestors.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		if _, ok := m.files[p]; !ok {
			m.files[p] = &MockFile{IsDirectory: true, Permissions: 0755, ModTime: time.Now()}
		}
		if p == filepath.Dir(p) {
			return
		}
	}
}

// ReadFile returns the content stored at path.
func (m *MockFilesystemManager) ReadFile(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	if !ok || f.IsDirectory {
		return nil, false
	}
	return f.Content, true
}

// Probes returns how many times Probe has been called.
func (m *MockFilesystemManager) Probes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.probes
}

func (m *MockFilesystemManager) Probe(path string) vsnap.PathStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	f, ok := m.files[filepath.Clean(path)]
	switch {
	case !ok:
		return vsnap.Absent
	case f.IsDirectory:
		return vsnap.IsDirectory
	default:
		return vsnap.IsFile
	}
}

func (m *MockFilesystemManager) Mkdir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MkdirErr != nil {
		return m.MkdirErr
	}
	path = filepath.Clean(path)
	if _, ok := m.files[path]; ok {
		return fmt.Errorf("mkdir %s: %w", path, fs.ErrExist)
	}
	if parent, ok := m.files[filepath.Dir(path)]; !ok || !parent.IsDirectory {
		return fmt.Errorf("mkdir %s: %w", path, fs.ErrNotExist)
	}
	m.files[path] = &MockFile{IsDirectory: true, Permissions: 0755, ModTime: time.Now()}
	return nil
}

func (m *MockFilesystemManager) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadDirErr != nil {
		return nil, m.ReadDirErr
	}
	path = filepath.Clean(path)
	if d, ok := m.files[path]; !ok || !d.IsDirectory {
		return nil, fmt.Errorf("readdir %s: %w", path, fs.ErrNotExist)
	}

	var entries []fs.DirEntry
	for p, f := range m.files {
		if p == path || filepath.Dir(p) != path {
			continue
		}
		entries = append(entries, fs.FileInfoToDirEntry(newMockFileInfo(p, f)))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MockFilesystemManager) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if f.IsDirectory {
		return nil, fmt.Errorf("cannot open directory: %s", path)
	}
	return io.NopCloser(bytes.NewReader(f.Content)), nil
}

func (m *MockFilesystemManager) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
	}
	return newMockFileInfo(path, f), nil
}

func (m *MockFilesystemManager) CreateExclusive(path string, r io.Reader, perm fs.FileMode) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	path = filepath.Clean(path)
	if _, ok := m.files[path]; ok {
		return fmt.Errorf("creating %s: %w", path, fs.ErrExist)
	}
	m.files[path] = &MockFile{Content: data, Permissions: perm, ModTime: time.Now()}
	return nil
}

func (m *MockFilesystemManager) Replace(path string, r io.Reader, perm fs.FileMode) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	path = filepath.Clean(path)
	if f, ok := m.files[path]; ok && f.IsDirectory {
		return fmt.Errorf("replacing %s: is a directory", path)
	}
	m.files[path] = &MockFile{Content: data, Permissions: perm, ModTime: time.Now()}
	return nil
}

func (m *MockFilesystemManager) IsIgnored(path string, treeRoot string) (bool, error) {
	base := filepath.Base(path)
	for _, name := range m.Ignored {
		if name == base {
			return true, nil
		}
	}
	return false, nil
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func newMockFileInfo(path string, f *MockFile) *mockFileInfo {
	mode := f.Permissions
	if f.IsDirectory {
		mode |= fs.ModeDir
	}
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		mode:    mode,
		modTime: f.ModTime,
		isDir:   f.IsDirectory,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ vsnap.FilesystemManager = (*MockFilesystemManager)(nil)
