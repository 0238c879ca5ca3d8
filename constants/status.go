package constants

// DocStatus is the canonical extraction state for a document.
type DocStatus string

// Stable values (logged and cached with these exact strings).
const (
	DocStatusNotStarted    DocStatus = "NOT_STARTED"    // no extraction attempted yet
	DocStatusTextExtracted DocStatus = "TEXT_EXTRACTED" // text layer or OCR text available
	DocStatusOCRAttempted  DocStatus = "OCR_ATTEMPTED"  // at least one OCR engine ran
	DocStatusParsed        DocStatus = "PARSED"         // candidate products produced
	DocStatusCached        DocStatus = "CACHED"         // final product list cached
	DocStatusFailed        DocStatus = "FAILED"         // terminal: no products, non-fatal
)
