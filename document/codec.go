package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-msgpack/v2/codec"
)

var (
	// ErrUnsupportedVersion is returned for documents newer than CurrentVersion
	// or with a version below V1.
	ErrUnsupportedVersion = errors.New("unsupported document version")
	// ErrUnsupportedType is returned for documents of another account type.
	ErrUnsupportedType = errors.New("unsupported account type")
	// ErrMalformed is returned when a document cannot be parsed at all.
	ErrMalformed = errors.New("malformed document")
	// ErrUnknownEncoding is returned by ParseEncoding.
	ErrUnknownEncoding = errors.New("unknown document encoding")
)

// Encoding selects the byte representation produced by Encode.
type Encoding int

const (
	EncodingJSON Encoding = iota
	EncodingMsgpack
)

func (e Encoding) String() string {
	switch e {
	case EncodingJSON:
		return "json"
	case EncodingMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseEncoding maps a configuration string onto an Encoding.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return EncodingJSON, nil
	case "msgpack":
		return EncodingMsgpack, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
	}
}

var msgpackHandle = &codec.MsgpackHandle{}

func init() {
	msgpackHandle.RawToString = true
	msgpackHandle.WriteExt = true
}

// Encode serializes doc in the current layout. doc.Version is ignored.
func Encode(doc *Document, enc Encoding) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformed)
	}

	out := *doc
	out.Version = CurrentVersion
	if out.Type == "" {
		out.Type = AccountTypeMojang
	}

	switch enc {
	case EncodingJSON:
		return json.Marshal(&out)
	case EncodingMsgpack:
		var buf []byte
		if err := codec.NewEncoderBytes(&buf, msgpackHandle).Encode(&out); err != nil {
			return nil, err
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownEncoding, int(enc))
	}
}

// Decode parses data, detecting its encoding and layout version.
func Decode(data []byte) (*Document, error) {
	if isMsgpack(data) {
		return decodeMsgpack(data, 0)
	}

	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, fmt.Errorf("%w: not a json object or msgpack map", ErrMalformed)
	}

	var header struct {
		Version *int `json:"formatVersion"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	v := V1
	if header.Version != nil {
		v = Version(*header.Version)
	}
	return decodeJSON(data, v)
}

// DecodeVersion parses data as layout v. An explicit formatVersion inside a
// V2 document must agree with v.
func DecodeVersion(v Version, data []byte) (*Document, error) {
	if v < V1 || v > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(v))
	}
	if isMsgpack(data) {
		return decodeMsgpack(data, v)
	}
	return decodeJSON(data, v)
}

func decodeJSON(data []byte, v Version) (*Document, error) {
	switch v {
	case V1:
		var legacy v1Document
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return normalize(legacy.upgrade())
	case V2:
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if doc.Version != 0 && doc.Version != V2 {
			return nil, fmt.Errorf("%w: document says %d, caller says %d", ErrUnsupportedVersion, int(doc.Version), int(v))
		}
		doc.Version = V2
		return normalize(&doc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(v))
	}
}

func decodeMsgpack(data []byte, want Version) (*Document, error) {
	var doc Document
	if err := codec.NewDecoderBytes(data, msgpackHandle).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Version < V2 || doc.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, int(doc.Version))
	}
	if want != 0 && doc.Version != want {
		return nil, fmt.Errorf("%w: document says %d, caller says %d", ErrUnsupportedVersion, int(doc.Version), int(want))
	}
	return normalize(&doc)
}

// isMsgpack reports whether data starts with a msgpack map header.
func isMsgpack(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b := data[0]
	return (b >= 0x80 && b <= 0x8f) || b == 0xde || b == 0xdf
}

func normalize(doc *Document) (*Document, error) {
	if doc.Type == "" {
		doc.Type = AccountTypeMojang
	}
	if doc.Type != AccountTypeMojang {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, doc.Type)
	}

	tokens := make(map[string]string, 2)
	for name, value := range doc.Tokens {
		if KnownToken(name) && value != "" {
			tokens[name] = value
		}
	}
	doc.Tokens = tokens

	if len(doc.Profiles) > 0 {
		seen := make(map[string]struct{}, len(doc.Profiles))
		kept := doc.Profiles[:0]
		for _, p := range doc.Profiles {
			if p.ID == "" {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			kept = append(kept, p)
		}
		doc.Profiles = kept
	}
	if len(doc.Profiles) == 0 {
		doc.Profiles = nil
	}

	if doc.CurrentProfile != "" && !hasProfile(doc.Profiles, doc.CurrentProfile) {
		doc.CurrentProfile = ""
	}

	if doc.User != nil && len(doc.User.Properties) == 0 {
		doc.User.Properties = nil
	}
	return doc, nil
}

func hasProfile(profiles []Profile, id string) bool {
	for _, p := range profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}
