/*
Package req provides helpers for HTTP request parsing and data binding.

It encapsulates JSON body decoding with strict field checking and integrates
with the errs package so handlers can return coded errors directly.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"bilanchat/internal/pkg/errs"
)

// MaxJSONBodySize caps the size of JSON request bodies (1 MB).
const MaxJSONBodySize int64 = 1 << 20

// BindJSON decodes the JSON request body into dst.
// Unknown fields and trailing content are rejected.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
