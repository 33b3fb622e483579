package entity

import "fmt"

// LoadError файл не найден, не читается или не декодируется как изображение.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load image %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FormatError изображение декодировано, но не приводится к трём каналам
// или не проходит анализ. Err причина, если она есть.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("image %q: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
