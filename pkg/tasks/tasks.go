// Package tasks defines the payloads carried on the ingestion topic.
package tasks

// DocumentIngestTask asks the pipeline to extract, chunk, embed and index
// a vault document that has already been stored in MinIO.
type DocumentIngestTask struct {
	DocumentID uint   `json:"document_id"`
	ObjectKey  string `json:"object_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	UserID     uint   `json:"user_id"`
	Encrypted  bool   `json:"encrypted"`
}
