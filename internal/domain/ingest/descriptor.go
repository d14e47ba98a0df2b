package ingest

// Source discriminates the three shapes an image submission can take.
type Source int

const (
	// SourceRemote means the image must be fetched from a URL.
	SourceRemote Source = iota
	// SourceInline means the image is carried as base64 text in the request.
	SourceInline
	// SourceRaw means the bytes were already extracted from a multipart field.
	SourceRaw
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceInline:
		return "inline"
	case SourceRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Descriptor is one unit of input describing an image to ingest, before its
// bytes are resolved. Exactly one shape is populated, discriminated by Source.
type Descriptor struct {
	Source      Source
	URL         string
	Filename    string
	ContentType string
	Data        string // base64 payload for SourceInline
	Bytes       []byte // extracted bytes for SourceRaw
}

// RemoteRef builds a descriptor for an image fetched from a URL.
func RemoteRef(url string) Descriptor {
	return Descriptor{Source: SourceRemote, URL: url}
}

// InlineData builds a descriptor for a base64-encoded inline image.
func InlineData(filename, contentType, data string) Descriptor {
	return Descriptor{
		Source:      SourceInline,
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}
}

// RawField builds a descriptor for bytes already read from a multipart field.
func RawField(filename, contentType string, bytes []byte) Descriptor {
	return Descriptor{
		Source:      SourceRaw,
		Filename:    filename,
		ContentType: contentType,
		Bytes:       bytes,
	}
}

// Entry pairs one parsed descriptor with a parse-stage failure. Exactly one
// of the two is meaningful: a non-nil Err means the element never produced a
// usable descriptor and must surface as a failed result in its position.
type Entry struct {
	Descriptor Descriptor
	Err        error
}
