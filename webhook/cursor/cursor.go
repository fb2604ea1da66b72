package cursor

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

/* Cursor tokens are opaque to clients
 * A token carries only the ordering key (created_at, id) of the last record
 * of a page, signed so that the codec only accepts keys it produced
 */

const (
	// version is the first byte of every encoded key
	version byte = 1

	// MinSecretBytes is the minimum signing secret size
	MinSecretBytes = 16

	maxIDBytes = 128
	separator  = "."
)

// ErrInvalid is returned for any token the codec did not produce
var ErrInvalid = errors.New("invalid cursor")

var encoding = base64.RawURLEncoding

// Key is a position in the (created_at desc, id desc) order
type Key struct {
	CreatedAt time.Time
	ID        string
}

// After reports whether k sorts strictly after o in the feed order,
// i.e. k is older than o, or equally old with a smaller id.
func (k Key) After(o Key) bool {
	if !k.CreatedAt.Equal(o.CreatedAt) {
		return k.CreatedAt.Before(o.CreatedAt)
	}
	return k.ID < o.ID
}

// Codec encodes and decodes signed cursor tokens
type Codec struct {
	secret []byte
}

// NewCodec creates a codec signing with the given secret
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) < MinSecretBytes {
		return nil, fmt.Errorf("cursor secret must be at least %d bytes", MinSecretBytes)
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Codec{secret: s}, nil
}

// NewRandomCodec creates a codec with a per-process random secret.
// Tokens do not survive a restart.
func NewRandomCodec() (*Codec, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating cursor secret: %w", err)
	}
	return &Codec{secret: secret}, nil
}

// Encode returns the token for key
func (c *Codec) Encode(key Key) string {
	payload := make([]byte, 9, 9+len(key.ID))
	payload[0] = version
	binary.BigEndian.PutUint64(payload[1:9], uint64(key.CreatedAt.UnixMicro()))
	payload = append(payload, key.ID...)

	return encoding.EncodeToString(payload) + separator + encoding.EncodeToString(c.sign(payload))
}

// Decode parses and verifies a token
func (c *Codec) Decode(token string) (Key, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 2 {
		return Key{}, ErrInvalid
	}

	payload, err := encoding.DecodeString(parts[0])
	if err != nil {
		return Key{}, ErrInvalid
	}
	mac, err := encoding.DecodeString(parts[1])
	if err != nil {
		return Key{}, ErrInvalid
	}
	if !hmac.Equal(mac, c.sign(payload)) {
		return Key{}, ErrInvalid
	}

	if len(payload) < 10 || payload[0] != version {
		return Key{}, ErrInvalid
	}
	id := payload[9:]
	if len(id) > maxIDBytes || !utf8.Valid(id) {
		return Key{}, ErrInvalid
	}

	micros := int64(binary.BigEndian.Uint64(payload[1:9]))
	return Key{
		CreatedAt: time.UnixMicro(micros).UTC(),
		ID:        string(id),
	}, nil
}

func (c *Codec) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(payload)
	return h.Sum(nil)
}
