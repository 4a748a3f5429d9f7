package stdlib

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chazu/vertex/pkg/host"
)

const filePerm = 0o644

func installFiles(r *Registry) {
	const pkg = "std.fio"

	def1(r, pkg, "read", func(path string) (string, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	})
	def2(r, pkg, "write", func(path, text string) (none, error) {
		return none{}, os.WriteFile(path, []byte(text), filePerm)
	})
	def2(r, pkg, "append", func(path, text string) (none, error) {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
		if err != nil {
			return none{}, err
		}
		if _, err := f.WriteString(text); err != nil {
			f.Close()
			return none{}, err
		}
		return none{}, f.Close()
	})
	def0(r, pkg, "dir_str", func(*host.Host) (string, error) {
		return string(os.PathSeparator), nil
	})
	def0(r, pkg, "cur_dir", func(*host.Host) (string, error) {
		return os.Getwd()
	})
	def2(r, pkg, "combine", func(a, b string) (string, error) {
		if filepath.IsAbs(b) {
			return b, nil
		}
		return filepath.Join(a, b), nil
	})
	def1(r, pkg, "exists", func(path string) (bool, error) {
		return statIs(path, false)
	})
	def1(r, pkg, "dir_exists", func(path string) (bool, error) {
		return statIs(path, true)
	})
	def1(r, pkg, "path", filepath.Abs)
	def1(r, pkg, "dir_path", func(path string) (string, error) {
		return filepath.Dir(path), nil
	})
	def1(r, pkg, "make", func(path string) (none, error) {
		f, err := os.Create(path)
		if err != nil {
			return none{}, err
		}
		return none{}, f.Close()
	})
	def1(r, pkg, "make_dir", func(path string) (none, error) {
		return none{}, os.MkdirAll(path, 0o755)
	})
	def1(r, pkg, "delete", func(path string) (none, error) {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			return none{}, nil
		}
		return none{}, err
	})
	def1(r, pkg, "delete_dir", func(path string) (none, error) {
		return none{}, os.Remove(path)
	})
}

// statIs reports whether path exists and is (or is not) a directory.
func statIs(path string, dir bool) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir() == dir, nil
}
