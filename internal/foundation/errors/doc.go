// Package errors provides the classified error primitives used across sitemedia.
//
// Errors carry a category (config, validation, media, minify, ...), a severity and
// structured context. Packages wrap low-level failures with plain fmt.Errorf and
// classify them at component boundaries; the CLI adapter turns the classification
// into an exit code and a user-facing message.
//
// Example usage:
//
//	err := errors.WrapError(decodeErr, errors.CategoryMedia, "decode source image").
//		WithContext("source", src).
//		Build()
package errors
