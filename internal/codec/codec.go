// Package codec encodes HTTP bodies as JSON or CBOR. CBOR output uses Core
// Deterministic Encoding so the same message always produces the same bytes.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// ErrUnsupportedMediaType is returned for bodies that are neither JSON nor
// CBOR.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// mediaType returns the bare media type of a Content-Type or Accept entry.
func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(strings.TrimSpace(v))
	if err != nil {
		return ""
	}
	return mt
}

// Decode reads r's body into v according to its Content-Type. A missing
// Content-Type is read as JSON.
func Decode(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	switch {
	case ct == "" || mediaType(ct) == ContentTypeJSON:
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return fmt.Errorf("decode json body: %w", err)
		}
	case mediaType(ct) == ContentTypeCBOR:
		if err := decMode.NewDecoder(r.Body).Decode(v); err != nil {
			return fmt.Errorf("decode cbor body: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ct)
	}
	return nil
}

// Negotiate picks the response content type for r. CBOR is chosen when the
// caller accepts it explicitly, or sent CBOR and expressed no preference.
func Negotiate(r *http.Request) string {
	accept := r.Header.Get("Accept")
	for _, part := range strings.Split(accept, ",") {
		switch mediaType(part) {
		case ContentTypeCBOR:
			return ContentTypeCBOR
		case ContentTypeJSON:
			return ContentTypeJSON
		}
	}
	if (accept == "" || mediaType(accept) == "*/*") && mediaType(r.Header.Get("Content-Type")) == ContentTypeCBOR {
		return ContentTypeCBOR
	}
	return ContentTypeJSON
}

// Write encodes v with the negotiated content type.
func Write(w http.ResponseWriter, r *http.Request, status int, v any) error {
	ct := Negotiate(r)
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(status)
	return Encode(w, ct, v)
}

// Encode writes v to w in the given content type.
func Encode(w io.Writer, contentType string, v any) error {
	if contentType == ContentTypeCBOR {
		return encMode.NewEncoder(w).Encode(v)
	}
	return json.NewEncoder(w).Encode(v)
}

// DecodeBody reads a body of the given content type into v.
func DecodeBody(body io.Reader, contentType string, v any) error {
	if mediaType(contentType) == ContentTypeCBOR {
		return decMode.NewDecoder(body).Decode(v)
	}
	return json.NewDecoder(body).Decode(v)
}
