package dto

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

func maxLength(n int) string {
	return "Ensure this field has no more than " + strconv.Itoa(n) + " characters."
}

var ErrTrailingData = errors.New("unexpected data after JSON value")

// Decode reads exactly one JSON value from r into v. Anything but whitespace
// after that value is an error, so every reader of a body sees the same request.
func Decode(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}
