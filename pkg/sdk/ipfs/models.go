package ipfs

// Document is a single file from the governance archive: the canonical link
// it is published under and its raw markdown contents.
type Document struct {
	Link    string `json:"link"`
	RawText string `json:"raw_text"`
}

type directoryResponse struct {
	Documents []Document `json:"documents"`
}
