package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/searchbadges/db/kvdb"
	"github.com/meghashyamc/searchbadges/db/searchdb"
	"github.com/meghashyamc/searchbadges/logger"
)

// Indexer represents the search database operations needed for index creation
type Indexer interface {
	BuildIndex(documents []searchdb.Document) error
	DeleteDocuments(documentIDs []string) error
}

// Recorder receives indexing counts; it may be nil.
type Recorder interface {
	DocumentsIndexed(count int)
	DocumentsDeleted(count int)
}

const (
	ProgressStatusStep1    = 10
	ProgressStatusStep2    = 20
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1

	maxGoRoutinesForFileProcessing = 50
	maxIndexBuildingTime           = 2 * time.Hour
)

var ErrIndexingInProgress = errors.New("indexing already in progress")

type Service struct {
	logger        logger.Logger
	indexer       Indexer
	metadataStore MetadataStore
	recorder      Recorder
	defaultLang   string
	building      atomic.Bool
	buildIndexC   chan indexRequest
}

type indexRequest struct {
	rootPath       string
	excludeFolders []string
	requestID      string
}

type processedFile struct {
	file       FileInfo
	documentID string
}

func New(ctx context.Context, logger logger.Logger, indexer Indexer, metadataStore MetadataStore, recorder Recorder, defaultLang string) *Service {
	indexService := &Service{
		logger:        logger,
		indexer:       indexer,
		metadataStore: metadataStore,
		recorder:      recorder,
		defaultLang:   defaultLang,
		buildIndexC:   make(chan indexRequest, 1),
	}

	go indexService.build(ctx)
	return indexService
}

// Build queues an index build of the site under rootPath, or an
// incremental update if it was indexed before. Only one build runs at a time.
func (s *Service) Build(rootPath string, excludeFolders []string, requestID string) error {

	if !s.building.CompareAndSwap(false, true) {
		s.logger.Warn("request to index while indexing is already in progress", "request_id", requestID)
		return ErrIndexingInProgress
	}

	s.setRequestStatus(requestID, 0)
	// This leads to s.buildIndex being called
	s.buildIndexC <- indexRequest{rootPath: rootPath, excludeFolders: excludeFolders, requestID: requestID}
	return nil
}

// GetStatus retrieves the progress status for index creation
func (s *Service) GetStatus(requestID string) (int, error) {
	value, err := s.metadataStore.Get(kvdb.RequestsBucket, requestID)
	if err != nil {
		return 0, fmt.Errorf("request not found: %w", err)
	}

	status, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

func (s *Service) build(ctx context.Context) {

	for {
		select {
		case req := <-s.buildIndexC:
			indexTimeoutCtx, cancel := context.WithTimeout(ctx, maxIndexBuildingTime)
			status := s.buildIndex(indexTimeoutCtx, req.rootPath, req.excludeFolders, req.requestID)
			cancel()
			// clear the flag before publishing the final status, so a client
			// that sees it can start the next build straight away
			s.building.Store(false)
			s.setRequestStatus(req.requestID, status)
		case <-ctx.Done():
			s.logger.Info("index service stopped", "reason", ctx.Err())
			return
		}
	}
}

// buildIndex returns the final progress status of the request.
func (s *Service) buildIndex(ctx context.Context, rootPath string, excludeFolders []string, requestID string) int {
	files, err := s.getFilesToIndex(rootPath, excludeFolders)
	if err != nil {
		s.logger.Error("failed to create index", "request_id", requestID, "err", err.Error())
		return ProgressStatusFailed
	}

	s.setRequestStatus(requestID, ProgressStatusStep1)

	// Identify and remove deleted files before indexing new/modified files
	deletedFiles, err := s.getDeletedFiles()
	if err != nil {
		s.logger.Error("failed to create index", "request_id", requestID, "err", err.Error())
		return ProgressStatusFailed
	}

	if err := s.removeDeletedFiles(deletedFiles); err != nil {
		s.logger.Error("failed to create index", "request_id", requestID, "err", err.Error())
		return ProgressStatusFailed
	}

	s.setRequestStatus(requestID, ProgressStatusStep2)

	return s.doBuildIndex(ctx, files, requestID)
}

func (s *Service) removeDeletedFiles(deletedFiles []string) error {
	if len(deletedFiles) == 0 {
		return nil
	}
	s.logger.Info("removing deleted files from index", "deleted_files", len(deletedFiles))

	documentIDs := make([]string, 0, len(deletedFiles))
	for _, filePath := range deletedFiles {
		documentIDs = append(documentIDs, documentID(filePath))
	}
	if err := s.indexer.DeleteDocuments(documentIDs); err != nil {
		s.logger.Error("failed to delete documents from search index", "err", err.Error())
		return fmt.Errorf("failed to delete documents from search index: %w", err)
	}

	for i, filePath := range deletedFiles {
		if err := s.metadataStore.Delete(kvdb.FragmentsBucket, documentIDs[i]); err != nil {
			s.logger.Error("failed to delete fragment", "path", filePath, "err", err.Error())
		}
		if err := s.metadataStore.Delete(kvdb.FilesBucket, filePath); err != nil {
			s.logger.Error("failed to delete file metadata", "path", filePath, "err", err.Error())
		}
	}
	if s.recorder != nil {
		s.recorder.DocumentsDeleted(len(deletedFiles))
	}
	return nil
}

func (s *Service) doBuildIndex(ctx context.Context, files []FileInfo, requestID string) int {
	s.logger.Info("building index of pages...")
	indexTime := time.Now().UTC()

	if len(files) == 0 {
		s.logger.Info("no pages to index")
		return ProgressStatusComplete
	}

	numGoroutines := min(maxGoRoutinesForFileProcessing, len(files))
	filesPerGoroutine := len(files) / numGoroutines

	// Channel to collect processed files for metadata updates
	processedFilesChan := make(chan []processedFile, numGoroutines)
	indexCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var indexWG sync.WaitGroup

	s.logger.Info("starting parallel indexing", "goroutines", numGoroutines, "files_per_goroutine", filesPerGoroutine)

	for i := range numGoroutines {
		start := i * filesPerGoroutine
		end := start + filesPerGoroutine

		// For the last goroutine, include any remaining files
		if i == numGoroutines-1 {
			end = len(files)
		}

		indexWG.Add(1)
		go s.doBuildIndexForFilesPortion(indexCtx, files[start:end], i, processedFilesChan, &indexWG)
	}

	var metadataWG sync.WaitGroup
	metadataWG.Add(1)

	// This is primarily so that future index requests don't lead to reindexing files that
	// are already indexed. This go routine terminates when `processedFilesChan` is closed.
	go s.updateMetadata(indexCtx, indexTime, requestID, len(files), processedFilesChan, &metadataWG)

	go func() {
		indexWG.Wait()
		close(processedFilesChan)
	}()

	metadataWG.Wait()
	if ctx.Err() != nil {
		s.logger.Error("indexing cancelled", "request_id", requestID, "err", ctx.Err())
		return ProgressStatusFailed
	}

	return ProgressStatusComplete
}

func (s *Service) updateMetadata(ctx context.Context, indexTime time.Time, requestID string, totalFilesCount int, processedFilesChan chan []processedFile, wg *sync.WaitGroup) {
	defer wg.Done()
	s.logger.Info("updating file metadata...")
	updatedCount := 0

	for processedFiles := range processedFilesChan {
		for _, processed := range processedFiles {
			metadata := kvdb.FileMetadata{
				DocumentID:  processed.documentID,
				LastIndexed: indexTime,
			}
			if err := s.setFileMetadata(processed.file.Path, metadata); err == nil {
				updatedCount++
			}
		}
		status := getProgressPercentage(updatedCount, totalFilesCount, ProgressStatusStep2, ProgressStatusComplete-1)
		s.setRequestStatus(requestID, status)
	}
	if ctx.Err() != nil {
		s.logger.Error("metadata update cancelled", "request_id", requestID, "err", ctx.Err())
		return
	}
	s.logger.Info("finished updating metadata successfully!", "count", fmt.Sprintf("%d/%d", updatedCount, totalFilesCount))

}

func (s *Service) getFilesToIndex(rootPath string, excludeFolders []string) ([]FileInfo, error) {

	if info, err := os.Stat(rootPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("site root %s is not a readable directory", rootPath)
	}

	s.logger.Info("performing incremental indexing", "root", rootPath)
	files, err := s.discoverModifiedFiles(rootPath, excludeFolders)
	if err != nil {
		return nil, err
	}
	s.logger.Info("discovered modified pages", slog.Int("num_of_files", len(files)))

	return files, nil
}

func (s *Service) setFileMetadata(filepath string, metadata kvdb.FileMetadata) error {
	if filepath == "" {
		s.logger.Error("filepath cannot be empty", "filepath", filepath)
		return fmt.Errorf("filepath cannot be empty")
	}

	data, err := json.Marshal(metadata)
	if err != nil {
		s.logger.Error("failed to marshal metadata", "filepath", filepath, "err", err.Error())
		return fmt.Errorf("failed to marshal metadata for %s: %w", filepath, err)
	}

	if err := s.metadataStore.Set(kvdb.FilesBucket, filepath, string(data)); err != nil {
		s.logger.Error("failed to set file metadata", "filepath", filepath, "err", err.Error())
		return err
	}

	return nil
}

func (s *Service) getFileMetadata(filepath string) (*kvdb.FileMetadata, error) {

	value, err := s.metadataStore.Get(kvdb.FilesBucket, filepath)
	if err != nil {
		return nil, err
	}

	var metadata kvdb.FileMetadata
	if err := json.Unmarshal([]byte(value), &metadata); err != nil {
		s.logger.Error("failed to unmarshal metadata", "filepath", filepath, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", filepath, err)
	}

	return &metadata, nil
}

func (s *Service) getDeletedFiles() ([]string, error) {
	allKeys, err := s.metadataStore.GetAllKeys(kvdb.FilesBucket)
	if err != nil {
		s.logger.Error("failed to get all keys from database", "err", err.Error())
		return nil, fmt.Errorf("failed to get all keys from database: %w", err)
	}

	var deletedFiles []string
	for _, key := range allKeys {

		if _, err := os.Stat(key); os.IsNotExist(err) {
			deletedFiles = append(deletedFiles, key)
		}
	}

	return deletedFiles, nil
}

func (s *Service) setRequestStatus(requestID string, status int) {
	if err := s.metadataStore.Set(kvdb.RequestsBucket, requestID, strconv.Itoa(status)); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}

func (s *Service) doBuildIndexForFilesPortion(ctx context.Context, filesPortion []FileInfo, goroutineID int, processedFilesChan chan []processedFile, wg *sync.WaitGroup) {
	defer wg.Done()
	numOfFiles := len(filesPortion)
	totalProcessedFilesCount := 0
	for i := 0; i < numOfFiles; i += searchdb.IndexingBatchSize {
		select {
		case <-ctx.Done():
			s.logger.Info("goroutine cancelled", "goroutine_id", goroutineID, "reason", ctx.Err())
			return
		default:
		}
		processedFiles := s.doBuildIndexForSingleBatchOfFiles(filesPortion[i:min(i+searchdb.IndexingBatchSize, numOfFiles)], goroutineID)
		totalProcessedFilesCount += len(processedFiles)
		processedFilesChan <- processedFiles

		s.logger.Debug(fmt.Sprintf("goroutine %d processed %d/%d files", goroutineID, totalProcessedFilesCount, numOfFiles))
	}
	s.logger.Debug("completed indexing for goroutine", "goroutine_id", goroutineID, "num_of_files_received", numOfFiles)

}

func (s *Service) doBuildIndexForSingleBatchOfFiles(filesInBatch []FileInfo, goroutineID int) []processedFile {

	var documents []searchdb.Document
	var processedFiles []processedFile

	for _, file := range filesInBatch {

		page, err := extractContent(file, s.defaultLang)
		if err != nil {
			s.logger.Error("error processing file", "path", file.Path, "err", err.Error(), "go_routine_id", goroutineID)
			continue
		}

		if err := s.storeFragment(page.fragment); err != nil {
			s.logger.Error("error storing fragment", "path", file.Path, "err", err.Error(), "go_routine_id", goroutineID)
			continue
		}
		documents = append(documents, page.document)
		processedFiles = append(processedFiles, processedFile{file: file, documentID: page.document.ID})
	}

	if len(documents) == 0 {
		return nil
	}

	if err := s.indexer.BuildIndex(documents); err != nil {
		s.logger.Error("failed to build index for goroutine", "goroutine_id", goroutineID, "err", err.Error())
		return nil
	}
	if s.recorder != nil {
		s.recorder.DocumentsIndexed(len(documents))
	}

	return processedFiles

}

func (s *Service) storeFragment(fragment searchdb.Fragment) error {
	data, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("failed to marshal fragment %s: %w", fragment.ID, err)
	}
	return s.metadataStore.Set(kvdb.FragmentsBucket, fragment.ID, string(data))
}

func getProgressPercentage(done int, total int, initial int, final int) int {
	if done == 0 || total == 0 {
		return initial
	}

	if done >= total {
		return final
	}

	progress := float64(done) / float64(total)
	result := float64(initial) + progress*float64(final-initial)

	return int(result)

}
