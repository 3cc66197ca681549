package bag

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ShareKey is the fragment key that carries the bag.
const ShareKey = "bag="

// ErrInvalidShare is returned when a share URL carries no readable bag.
var ErrInvalidShare = errors.New("invalid share URL")

// ShareURL returns base with its fragment replaced by "#bag=" followed by
// the URI-component-encoded JSON {"bag": [...], "name": "..."}.
func (b *Bag) ShareURL(base string) (string, error) {
	base, _, _ = strings.Cut(base, "#")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return "", fmt.Errorf("failed to encode bag: %w", err)
	}
	payload := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	return base + "#" + ShareKey + EncodeURIComponent(string(payload)), nil
}

// ParseShareURL decodes a bag from a full share URL, a fragment
// ("#bag=...") or the bare "bag=..." form. A payload without a bag list
// yields a new bag of DefaultSize with the decoded name.
func ParseShareURL(s string) (*Bag, error) {
	s = strings.TrimSpace(s)
	if _, frag, ok := strings.Cut(s, "#"); ok {
		s = frag
	}
	encoded, ok := strings.CutPrefix(s, ShareKey)
	if !ok {
		return nil, fmt.Errorf("%w: no %q fragment", ErrInvalidShare, ShareKey)
	}

	payload, err := DecodeURIComponent(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	var decoded struct {
		Bag  []Slot `json:"bag"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShare, err)
	}

	b := New(DefaultSize)
	if len(decoded.Bag) > 0 {
		b.Slots = decoded.Bag
	}
	b.Name = decoded.Name
	return b, nil
}

// shouldKeep reports whether c passes through EncodeURIComponent unescaped.
func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// EncodeURIComponent percent-encodes every UTF-8 byte of s except
// A-Z a-z 0-9 and - _ . ! ~ * ' ( ).
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

// DecodeURIComponent reverses EncodeURIComponent. Malformed escapes and
// escapes that do not form valid UTF-8 are errors.
func DecodeURIComponent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errors.New("decoded text is not valid UTF-8")
	}
	return out, nil
}
