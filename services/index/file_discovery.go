package index

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meghashyamc/searchbadges/db/kvdb"
)

type FileInfo struct {
	Path    string
	RelPath string
	Name    string
	Size    int64
	ModTime time.Time
}

func (s *Service) discoverModifiedFiles(rootPath string, excludeFolders []string) ([]FileInfo, error) {
	var modifiedFiles []FileInfo
	excludeSet := make(map[string]struct{}, len(excludeFolders))
	for _, folder := range excludeFolders {
		excludeSet[filepath.Clean(folder)] = struct{}{}
	}
	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			s.logger.Error("could not walk through file or directory", "err", err.Error())
			if errors.Is(err, os.ErrPermission) {
				return nil
			}
			return err
		}

		// Skip directories that start with '.' but not the root directory
		if info.IsDir() && strings.HasPrefix(info.Name(), ".") && path != rootPath {
			return filepath.SkipDir
		}

		if info.IsDir() && isInExcludedPath(path, excludeSet) {
			return filepath.SkipDir
		}

		if info.IsDir() || strings.HasPrefix(info.Name(), ".") || !isHTMLFile(path) {
			return nil
		}

		fileModTime := info.ModTime()

		if s.shouldFileBeIndexed(path, fileModTime) {
			relPath, err := filepath.Rel(rootPath, path)
			if err != nil {
				s.logger.Error("could not compute path relative to site root", "path", path, "err", err.Error())
				return nil
			}
			modifiedFiles = append(modifiedFiles, FileInfo{
				Path:    path,
				RelPath: filepath.ToSlash(relPath),
				Name:    info.Name(),
				Size:    info.Size(),
				ModTime: fileModTime,
			})
		}

		return nil
	})

	return modifiedFiles, err
}

func (s *Service) shouldFileBeIndexed(path string, fileModTime time.Time) bool {

	metadata, err := s.getFileMetadata(path)
	if err != nil {
		var notFoundErr *kvdb.NotFoundError
		var invalidKeyErr *kvdb.InvalidKeyError

		switch {
		// never indexed
		case errors.As(err, &notFoundErr):
			return true
		case errors.As(err, &invalidKeyErr):
			s.logger.Error("invalid key for file path", "key", path, "err", err.Error())
			return true
		default:
			s.logger.Error("failed to get metadata", "path", path, "err", err.Error())
			return true
		}
	}

	return fileModTime.After(metadata.LastIndexed)
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

// Assumes current path and excluded paths are clean
func isInExcludedPath(currentPath string, excludeSet map[string]struct{}) bool {

	if len(excludeSet) == 0 {
		return false
	}

	_, ok := excludeSet[currentPath]
	return ok
}
