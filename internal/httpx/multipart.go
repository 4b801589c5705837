package httpx

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// FilePart describes the single file carried by a multipart upload body.
type FilePart struct {
	FieldName   string
	Filename    string
	ContentType string // optional; omitted from the part header when empty
	Content     []byte
}

// EncodeMultipart builds a multipart/form-data body containing one file part.
// It returns the encoded body and the Content-Type header value (including the
// boundary). The body is a plain byte slice so retrying callers can rebuild
// the request reader cheaply.
func EncodeMultipart(file FilePart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
		escapeQuotes(file.FieldName), escapeQuotes(file.Filename)))
	if file.ContentType != "" {
		h.Set("Content-Type", file.ContentType)
	}

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("httpx: create multipart part: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", fmt.Errorf("httpx: write multipart content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("httpx: close multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(s)
}
