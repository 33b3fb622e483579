//go:build !gocv
// +build !gocv

package vision

import "render-ranker/internal/domain/port"

// NewDefaultAnalyzer без тега gocv возвращает реализацию на чистом Go.
func NewDefaultAnalyzer() port.Analyzer {
	return NewNativeAnalyzer()
}
