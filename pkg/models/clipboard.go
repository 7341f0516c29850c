package models

const (
	ClipboardKindFile   = "file"
	ClipboardKindString = "string"
)

// ClipboardItem is one typed entry of a paste event, in clipboard order.
type ClipboardItem struct {
	Kind string
	Type string
	File *ImageInput
}

// AsFile returns the item's payload when it carries one.
func (c ClipboardItem) AsFile() (ImageInput, bool) {
	if c.Kind != ClipboardKindFile || c.File == nil || c.File.IsZero() {
		return ImageInput{}, false
	}
	return *c.File, true
}

// PasteEvent is what the clipboard boundary hands to the normalizer. Any of
// the three parts may be empty.
type PasteEvent struct {
	Items []ClipboardItem
	Files []ImageInput
	Text  string
}

// Channel names how an image entered the pipeline.
type Channel string

const (
	ChannelFilePicker    Channel = "file_picker"
	ChannelClipboardItem Channel = "clipboard_item"
	ChannelClipboardFile Channel = "clipboard_file"
	ChannelClipboardURL  Channel = "clipboard_url"
)

// IsPaste reports whether the channel is one of the clipboard channels.
func (c Channel) IsPaste() bool {
	switch c {
	case ChannelClipboardItem, ChannelClipboardFile, ChannelClipboardURL:
		return true
	}
	return false
}
