package session

import "fmt"

// NewStore creates a store based on options. The default is file storage.
func NewStore(opts Options) (Store, error) {
	switch opts.Type {
	case "", "file":
		if opts.FilePath == "" {
			return nil, fmt.Errorf("file path is required for file storage")
		}
		return NewFileStore(opts.FilePath)
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for redis storage")
		}
		return NewRedisStore(opts.RedisAddr)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", opts.Type)
	}
}
