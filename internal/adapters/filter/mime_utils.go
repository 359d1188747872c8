package filter

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// wordDecoder decodes RFC 2047 encoded headers, handling non-UTF-8 charsets
var wordDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

// decodeEncodedHeader decodes an encoded-word header value, returning the
// input unchanged when it is not encoded
func decodeEncodedHeader(value string) (string, error) {
	if !strings.Contains(value, "=?") {
		return value, nil
	}
	return wordDecoder.DecodeHeader(value)
}

// parseEmail builds a core.Email from a raw RFC 822 message. Input that
// does not parse as a message is treated as a bare body.
func parseEmail(raw []byte) (*core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return &core.Email{Body: string(raw)}, nil
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	email := &core.Email{
		Headers: make(map[string][]string),
		Body:    text,
	}
	for key, values := range msg.Header {
		email.Headers[key] = values
	}
	if from := msg.Header.Get("From"); from != "" {
		if addr, err := mail.ParseAddress(from); err == nil {
			email.From = addr.Address
		} else {
			email.From = from
		}
	}
	if to := msg.Header.Get("To"); to != "" {
		if addrs, err := mail.ParseAddressList(to); err == nil {
			for _, addr := range addrs {
				email.To = append(email.To, addr.Address)
			}
		} else {
			email.To = []string{to}
		}
	}
	if subject := msg.Header.Get("Subject"); subject != "" {
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			email.Subject = decoded
		} else {
			email.Subject = subject
		}
	}
	return email, nil
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages, it prefers text/plain parts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	contentType := msg.Header.Get("Content-Type")

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		bodyBytes, err := io.ReadAll(msg.Body)
		if err != nil {
			return "", err
		}
		return string(bodyBytes), nil
	}

	var plain, fallback strings.Builder
	reader := multipart.NewReader(msg.Body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		partType, _, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			continue
		}
		data, err := io.ReadAll(part)
		if err != nil {
			continue
		}

		switch {
		case partType == "text/plain":
			plain.Write(data)
			plain.WriteString("\n")
		case strings.HasPrefix(partType, "text/"):
			fallback.Write(data)
			fallback.WriteString("\n")
		}
	}

	if plain.Len() > 0 {
		return plain.String(), nil
	}
	return fallback.String(), nil
}
