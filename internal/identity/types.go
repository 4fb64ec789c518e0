package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxNameLength bounds identity names for display and storage.
const maxNameLength = 100

// Identity represents an enrolled person.
type Identity struct {
	// ID is the unique identifier (e.g., "idn-a1b2c3d4").
	ID string `json:"id"`

	// Name is the person's display name.
	Name string `json:"name"`

	// Active controls whether the identity may be granted access.
	// Disabled identities still match biometrically but are denied.
	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the identity fields.
func (i *Identity) Validate() error {
	name := strings.TrimSpace(i.Name)
	if name == "" || len(name) > maxNameLength {
		return ErrInvalidName
	}
	return nil
}

// DeepCopy returns a copy of the identity safe for external mutation.
func (i *Identity) DeepCopy() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// FaceTemplate is a stored face encoding for one identity.
//
// The encoding is a 128-dimension float vector produced at enrollment.
// Matching compares Euclidean distance against a configured tolerance.
type FaceTemplate struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identity_id"`
	Encoding   []float64 `json:"encoding"`

	// EncodingHash is the SHA-256 of the serialised encoding, checked on
	// load so a tampered database row is rejected rather than matched.
	EncodingHash string `json:"encoding_hash"`

	CreatedAt time.Time `json:"created_at"`
}

// DeepCopy returns a copy of the template including its encoding vector.
func (t *FaceTemplate) DeepCopy() *FaceTemplate {
	if t == nil {
		return nil
	}
	c := *t
	c.Encoding = make([]float64, len(t.Encoding))
	copy(c.Encoding, t.Encoding)
	return &c
}

// VerifyIntegrity recomputes the encoding hash and compares it with the
// stored value.
func (t *FaceTemplate) VerifyIntegrity() error {
	if HashEncoding(t.Encoding) != t.EncodingHash {
		return ErrTemplateCorrupt
	}
	return nil
}

// FingerprintTemplate maps a slot in the fingerprint sensor's onboard
// storage back to an identity. The actual minutiae live in the sensor;
// the database only records the assignment and an integrity hash of the
// raw template captured at enrollment.
type FingerprintTemplate struct {
	ID           string    `json:"id"`
	IdentityID   string    `json:"identity_id"`
	SensorSlot   int       `json:"sensor_slot"`
	TemplateHash string    `json:"template_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// DeepCopy returns a copy of the template.
func (t *FingerprintTemplate) DeepCopy() *FingerprintTemplate {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// NewID generates a new identity ID.
//
// Format: "idn-" followed by the first 8 characters of a UUID.
func NewID() string {
	return "idn-" + uuid.NewString()[:8]
}

// NewTemplateID generates a new template ID.
func NewTemplateID() string {
	return "tpl-" + uuid.NewString()[:8]
}

// HashEncoding returns the hex SHA-256 of a face encoding's JSON form.
func HashEncoding(encoding []float64) string {
	data, _ := json.Marshal(encoding) //nolint:errcheck // float slice cannot fail to marshal
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashTemplate returns the hex SHA-256 of raw fingerprint template bytes.
func HashTemplate(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
