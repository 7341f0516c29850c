package models

// PasteRequest is the JSON form of a paste event accepted by the preview server.
type PasteRequest struct {
	Text  string             `json:"text,omitempty"`
	Items []PasteItemRequest `json:"items,omitempty"`
	Files []PasteFileRequest `json:"files,omitempty"`
}

// PasteItemRequest mirrors one typed clipboard item. Data is base64 and only
// meaningful for kind "file".
type PasteItemRequest struct {
	Kind string `json:"kind"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`
}

// PasteFileRequest is an entry of the clipboard's file list.
type PasteFileRequest struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Data string `json:"data"`
}

// PasteResponse reports whether any channel accepted the paste.
type PasteResponse struct {
	Handled bool   `json:"handled"`
	Channel string `json:"channel,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
