package analyzer

// ImageInfo is what the header of an encoded image tells us.
type ImageInfo struct {
	Format      string
	ContentType string
	Width       int
	Height      int
}
