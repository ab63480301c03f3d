package convert_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-audiobook/internal/convert"
	"github.com/alnah/go-audiobook/internal/ffmpeg"
	"github.com/alnah/go-audiobook/internal/probe"
)

// ---------------------------------------------------------------------------
// memFS - in-memory fileSystem
// ---------------------------------------------------------------------------

type memFS struct {
	mu        sync.Mutex
	files     map[string][]byte
	dirs      map[string]bool
	temps     int
	renameErr error
	mkdirErr  error
}

var _ convert.FileSystem = (*memFS)(nil)

func newMemFS() *memFS {
	return &memFS{files: map[string][]byte{}, dirs: map[string]bool{}}
}

func (m *memFS) MkdirTemp(dir, pattern string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mkdirErr != nil {
		return "", m.mkdirErr
	}
	m.temps++
	name := "/tmp/" + strings.Replace(pattern, "*", fmt.Sprint(m.temps), 1)
	m.dirs[name] = true
	return name, nil
}

func (m *memFS) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *memFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

func (m *memFS) ReadFile(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (m *memFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renameErr != nil {
		return m.renameErr
	}
	data, ok := m.files[oldpath]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	delete(m.files, oldpath)
	m.files[newpath] = data
	return nil
}

func (m *memFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

func (m *memFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.files {
		if name == path || strings.HasPrefix(name, path+"/") {
			delete(m.files, name)
		}
	}
	delete(m.dirs, path)
	return nil
}

func (m *memFS) Stat(name string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return memInfo{name: name, size: int64(len(data))}, nil
}

func (m *memFS) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[name]
	return ok
}

func (m *memFS) read(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.files[name])
}

func (m *memFS) hasDir(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[name]
}

type memInfo struct {
	name string
	size int64
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o600 }
func (i memInfo) ModTime() time.Time { return time.Time{} }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

// ---------------------------------------------------------------------------
// mockRunner - scripted ffmpeg
// ---------------------------------------------------------------------------

type runCall struct {
	path string
	args []string
}

type mockRunner struct {
	mu    sync.Mutex
	calls []runCall
	fn    func(ctx context.Context, args []string, onLine ffmpeg.LineFunc) (string, error)
}

var _ convert.FFmpegRunner = (*mockRunner)(nil)

func (m *mockRunner) Run(ctx context.Context, path string, args []string, onLine ffmpeg.LineFunc) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, runCall{path: path, args: args})
	fn := m.fn
	m.mu.Unlock()
	if fn == nil {
		return "", nil
	}
	return fn(ctx, args, onLine)
}

func (m *mockRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// writesOutput returns a runner func that writes data to the last argument,
// which is where ffmpeg puts its output.
func writesOutput(fsys *memFS, data string) func(context.Context, []string, ffmpeg.LineFunc) (string, error) {
	return func(_ context.Context, args []string, _ ffmpeg.LineFunc) (string, error) {
		return "", fsys.WriteFile(args[len(args)-1], []byte(data), 0o600)
	}
}

// ---------------------------------------------------------------------------
// mockProber
// ---------------------------------------------------------------------------

type mockProber struct {
	params map[string]probe.Params
	err    error
}

func (m mockProber) Probe(_ context.Context, path string) (probe.Params, error) {
	if m.err != nil {
		return probe.Params{}, m.err
	}
	p, ok := m.params[path]
	if !ok {
		return probe.Params{}, fmt.Errorf("%w: %s: unknown file", probe.ErrProbeFailed, path)
	}
	return p, nil
}

var errBoom = errors.New("boom")
