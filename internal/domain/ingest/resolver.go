package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Resolver turns one descriptor into resolved image bytes. Resolution is a
// pure mapping with no shared mutable state, so descriptors from the same
// batch may be resolved concurrently.
type Resolver struct {
	fetcher *Fetcher
}

// NewResolver creates a resolver delegating remote descriptors to fetcher.
func NewResolver(fetcher *Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// Resolve consumes one descriptor and returns the resolved image or an
// item-level error classified by Reason.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) (ResolvedImage, error) {
	switch d.Source {
	case SourceRaw:
		if len(d.Bytes) == 0 {
			return ResolvedImage{}, newError(ReasonEmptyPayload, "multipart field carried no bytes", nil)
		}
		return ResolvedImage{
			Bytes:             d.Bytes,
			ContentType:       d.ContentType,
			SuggestedFilename: d.Filename,
		}, nil

	case SourceInline:
		decoded, err := base64.StdEncoding.DecodeString(d.Data)
		if err != nil {
			return ResolvedImage{}, newError(ReasonInvalidEncoding, "data is not valid base64", err)
		}
		if len(decoded) == 0 {
			return ResolvedImage{}, newError(ReasonEmptyPayload, "decoded payload is empty", nil)
		}
		// Content type is taken verbatim from the descriptor, never sniffed.
		return ResolvedImage{
			Bytes:             decoded,
			ContentType:       d.ContentType,
			SuggestedFilename: d.Filename,
		}, nil

	case SourceRemote:
		body, contentType, err := r.fetcher.Fetch(ctx, d.URL)
		if err != nil {
			return ResolvedImage{}, err
		}
		if len(body) == 0 {
			return ResolvedImage{}, newError(ReasonEmptyPayload, "remote response body is empty", nil)
		}
		filename := d.Filename
		if filename == "" {
			filename = filenameFromURL(d.URL)
		}
		return ResolvedImage{
			Bytes:             body,
			ContentType:       contentType,
			SuggestedFilename: filename,
		}, nil

	default:
		return ResolvedImage{}, newError(ReasonInvalidDescriptor, fmt.Sprintf("unknown descriptor source %d", d.Source), nil)
	}
}

// filenameFromURL takes the last path segment of the URL as a name hint,
// with query and fragment stripped.
func filenameFromURL(url string) string {
	trimmed := strings.SplitN(url, "#", 2)[0]
	trimmed = strings.SplitN(trimmed, "?", 2)[0]
	trimmed = strings.TrimRight(trimmed, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return ""
}
