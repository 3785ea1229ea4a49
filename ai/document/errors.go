package document

import (
	"github.com/Abraxas-365/doccraft/errx"
)

// Error registry for document-specific errors
var (
	errRegistry = errx.NewRegistry("DOC")

	// Fatal to a load
	ErrCodeUnsupportedContent = errRegistry.Register("UNSUPPORTED_CONTENT", errx.TypeValidation, 400, "Unsupported document source")
	ErrCodeNotFound           = errRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "Document not found")
	ErrCodeFetchFailed        = errRegistry.Register("FETCH_FAILED", errx.TypeExternal, 502, "Failed to fetch document")
	ErrCodeOCRService         = errRegistry.Register("OCR_SERVICE", errx.TypeExternal, 502, "OCR service failed")
	ErrCodeCacheCorrupt       = errRegistry.Register("CACHE_CORRUPT", errx.TypeSystem, 500, "Cached OCR result is corrupt")
	ErrCodeIOFailure          = errRegistry.Register("IO_FAILURE", errx.TypeSystem, 500, "I/O operation failed")
	ErrCodeInvalidConfig      = errRegistry.Register("INVALID_CONFIG", errx.TypeValidation, 400, "Invalid loader configuration")
	ErrCodeSerializationFail  = errRegistry.Register("SERIALIZATION_FAIL", errx.TypeSystem, 500, "Failed to serialize document")
	ErrCodeDeserializeFail    = errRegistry.Register("DESERIALIZE_FAIL", errx.TypeSystem, 500, "Failed to deserialize document")

	// Recovered per table, reported as warnings
	ErrCodeTableParse    = errRegistry.Register("TABLE_PARSE", errx.TypeValidation, 422, "Table could not be parsed")
	ErrCodeCaptionFailed = errRegistry.Register("CAPTION_FAILED", errx.TypeExternal, 502, "Table caption failed")
)

// NewError creates a registered document error, for callers wiring the loader
func NewError(code errx.Code, message string) *errx.Error {
	return errRegistry.NewWithMessage(code, message)
}
