package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

// requestFields holds the top-level fields of a JSON or urlencoded body.
// JSON null and absent keys are both missing.
type requestFields map[string]string

// readFields accepts application/json and application/x-www-form-urlencoded
// bodies alike. A missing Content-Type is read as JSON; any other media
// type yields no fields.
func readFields(w http.ResponseWriter, r *http.Request) (requestFields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := ""
	if header := r.Header.Get("Content-Type"); header != "" {
		parsed, _, err := mime.ParseMediaType(header)
		if err != nil {
			return requestFields{}, nil
		}
		mediaType = parsed
	}
	switch mediaType {
	case "", "application/json":
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		fields := make(requestFields, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				fields[key] = values[0]
			}
		}
		return fields, nil
	default:
		return requestFields{}, nil
	}

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return requestFields{}, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}

	fields := make(requestFields, len(raw))
	for key, value := range raw {
		switch typed := value.(type) {
		case nil:
		case string:
			fields[key] = typed
		case json.Number:
			fields[key] = typed.String()
		case bool:
			fields[key] = strconv.FormatBool(typed)
		default:
			encoded, _ := json.Marshal(typed)
			fields[key] = string(encoded)
		}
	}
	return fields, nil
}

func (f requestFields) text(name string) string {
	return f[name]
}

func (f requestFields) optional(name string) *string {
	value, ok := f[name]
	if !ok {
		return nil
	}
	return &value
}

// number parses name as a finite decimal. Unparseable input, Inf and NaN
// count as missing.
func (f requestFields) number(name string) *float64 {
	value, ok := f[name]
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsInf(parsed, 0) || math.IsNaN(parsed) {
		return nil
	}
	return &parsed
}
