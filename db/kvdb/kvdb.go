package kvdb

const (
	// FilesBucket maps an indexed file path to its FileMetadata.
	FilesBucket = "files"
	// RequestsBucket maps an index request id to its progress.
	RequestsBucket = "requests"
	// FragmentsBucket maps a document id to its stored fragment.
	FragmentsBucket = "fragments"
)

var buckets = []string{FilesBucket, RequestsBucket, FragmentsBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	Close() error
}
