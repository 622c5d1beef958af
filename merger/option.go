package merger

import (
	"log/slog"

	"github.com/viant/afs"
)

// Option configures service
type Option func(s *Service)

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithFS sets file system service
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithIDGenerator overrides manifest identifier generation
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}
