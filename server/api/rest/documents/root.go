package documents

// GetRootDocumentResponse maps the names of the API's top level resources to their URLs.
type GetRootDocumentResponse map[string]string
