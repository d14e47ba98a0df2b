package ingest

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// descriptorShape mirrors the accepted JSON element shapes. Pointers keep
// "key absent" distinguishable from "key empty".
type descriptorShape struct {
	Filename    *string `json:"filename"`
	ContentType *string `json:"content_type"`
	URL         *string `json:"url"`
	Data        *string `json:"data"`
}

// ParseBatch parses a JSON array body into one entry per element. The whole
// request fails only when the body is not a syntactically valid JSON array;
// per-element shape violations become failed entries that keep their
// position in the sequence.
func ParseBatch(body []byte) ([]Entry, error) {
	var elements []json.RawMessage
	if err := sonic.Unmarshal(body, &elements); err != nil {
		return nil, newError(ReasonMalformedRequest, "request body is not a JSON array", err)
	}
	// A top-level null unmarshals into a nil slice without error; only an
	// actual array is a batch.
	if elements == nil {
		return nil, newError(ReasonMalformedRequest, "request body is not a JSON array", nil)
	}

	entries := make([]Entry, 0, len(elements))
	for _, raw := range elements {
		entries = append(entries, parseElement(raw))
	}
	return entries, nil
}

func parseElement(raw json.RawMessage) Entry {
	var shape descriptorShape
	if err := sonic.Unmarshal(raw, &shape); err != nil {
		return Entry{Err: newError(ReasonInvalidDescriptor, "element is not a descriptor object", err)}
	}

	switch {
	case shape.Data != nil:
		// Inline data wins when both data and url are present.
		if shape.ContentType == nil {
			return Entry{Err: newError(ReasonInvalidDescriptor, "inline descriptor requires content_type", nil)}
		}
		filename := ""
		if shape.Filename != nil {
			filename = *shape.Filename
		}
		return Entry{Descriptor: InlineData(filename, *shape.ContentType, *shape.Data)}

	case shape.URL != nil:
		if *shape.URL == "" {
			return Entry{Err: newError(ReasonInvalidDescriptor, "url must not be empty", nil)}
		}
		d := RemoteRef(*shape.URL)
		if shape.Filename != nil {
			d.Filename = *shape.Filename
		}
		return Entry{Descriptor: d}

	default:
		return Entry{Err: newError(ReasonInvalidDescriptor, "neither url nor data specified", nil)}
	}
}
