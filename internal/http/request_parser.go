package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"finhealth/internal/core"
)

var (
	errBadRequest      = errors.New("bad request")
	errPayloadTooLarge = errors.New("payload too large")
)

const maxJSONBytes = 64 << 10

// Amount accepts a positive JSON number or a string using '.' or ',' as the
// decimal separator. Anything else fails with core.ErrInvalidAmount.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	v, err := unmarshalAmount(b, core.ParseAmount)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// Balance is like Amount but also accepts zero.
type Balance float64

func (a *Balance) UnmarshalJSON(b []byte) error {
	v, err := unmarshalAmount(b, core.ParseBalance)
	if err != nil {
		return err
	}
	*a = Balance(v)
	return nil
}

func unmarshalAmount(b []byte, parse func(string) (float64, error)) (float64, error) {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, core.ErrInvalidAmount
		}
	}
	return parse(s)
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errPayloadTooLarge
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

// readUpload returns the uploaded bytes and their media type. It accepts a
// multipart form with a "file" field or a raw body.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, "", uploadError(err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("%w: missing file field", errBadRequest)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", uploadError(err)
		}
		return data, hdr.Header.Get("Content-Type"), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", uploadError(err)
	}
	return data, mediaType, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errPayloadTooLarge
	}
	return fmt.Errorf("%w: %w", errBadRequest, err)
}
