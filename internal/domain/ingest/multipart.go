package ingest

import (
	"bytes"
	"io"
	"mime/multipart"
	"strings"
)

// ExtractMultipart walks a multipart body and produces one entry per part
// whose declared Content-Type starts with image/. Parts without a content
// type, or with a non-image one, are silently skipped. A part larger than
// maxBytes becomes a failed entry; the rest of the body is still processed.
// Broken multipart framing fails the whole request.
func ExtractMultipart(reader *multipart.Reader, maxBytes int64) ([]Entry, error) {
	var entries []Entry

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newError(ReasonMalformedRequest, "invalid multipart framing", err)
		}

		contentType := part.Header.Get("Content-Type")
		if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
			// Drain so the next part header can be read.
			io.Copy(io.Discard, part)
			part.Close()
			continue
		}

		entry, err := readImagePart(part, contentType, maxBytes)
		part.Close()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func readImagePart(part *multipart.Part, contentType string, maxBytes int64) (Entry, error) {
	filename := part.FileName()
	if filename == "" {
		// Fall back to the field name so the stored file stays identifiable.
		filename = part.FormName()
	}

	limited := &io.LimitedReader{R: part, N: maxBytes + 1}
	buf := bytes.NewBuffer(make([]byte, 0, 32*1024))
	if _, err := io.Copy(buf, limited); err != nil {
		return Entry{}, newError(ReasonMalformedRequest, "truncated multipart part", err)
	}
	if limited.N <= 0 {
		io.Copy(io.Discard, part)
		return Entry{Err: newError(ReasonPayloadTooLarge, "multipart field exceeds size limit", nil)}, nil
	}

	return Entry{Descriptor: RawField(filename, contentType, buf.Bytes())}, nil
}
