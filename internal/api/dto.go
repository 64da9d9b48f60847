package api

import (
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/validator"
)

// AppendRecordRequest is the request body for appending a record.
type AppendRecordRequest struct {
	Date    string               `json:"date,omitempty"`
	Time    string               `json:"time,omitempty"`
	Title   string               `json:"title"`
	Body    string               `json:"body,omitempty"`
	Files   []models.FileTouched `json:"files,omitempty"`
	Archive []ArchiveItem        `json:"archive,omitempty"`
	Related []string             `json:"related,omitempty"`
	Status  string               `json:"status,omitempty"`
}

// ArchiveItem names a local file to snapshot alongside the record.
type ArchiveItem struct {
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// LastRecordResponse is the id (and title) of the most recent record.
type LastRecordResponse struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// LatestBlockResponse carries the verbatim most recent block.
type LatestBlockResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// DeleteLatestResponse reports what a delete-latest removed.
type DeleteLatestResponse struct {
	ID            string   `json:"id"`
	DeletedAssets []string `json:"deleted_assets"`
}

// ReplaceLatestRequest is the request body for replace-latest.
type ReplaceLatestRequest struct {
	Content string `json:"content"`
}

// RearchiveRequest names the file to re-archive for the latest record.
type RearchiveRequest struct {
	Path string `json:"path"`
}

// RestoreAssetRequest names the directory to restore an asset into.
type RestoreAssetRequest struct {
	DestDir string `json:"dest_dir"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ValidateResponse wraps validator findings.
type ValidateResponse struct {
	Violations []validator.Violation `json:"violations"`
	Records    int                   `json:"records"`
}

// AssetListResponse wraps asset listings.
type AssetListResponse struct {
	Assets []string `json:"assets"`
}

// AssetUploadResponse is returned after a successful asset upload.
type AssetUploadResponse struct {
	AssetFilename string `json:"asset_filename"`
	Size          int64  `json:"size"`
	URL           string `json:"url"`
}
