// Package handler exposes the lending services over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/segyhp/fiducialend/internal/auth"
	"github.com/segyhp/fiducialend/pkg/response"
)

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v *Validator, dst interface{}) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(w, "Request body is required", nil)
			return false
		}
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := v.Validate(dst); err != nil {
		response.ValidationFailed(w, ToFieldErrors(err))
		return false
	}
	return true
}

// userID returns the authenticated caller. Routes using it sit behind the
// Authenticate middleware.
func userID(r *http.Request) string {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return ""
	}
	return claims.UserID()
}
