package source

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/kartikeyarokde/go-ecg-graph/internal/core/model"
)

// missingTokens are accepted in place of a number
var missingTokens = map[string]bool{
	"None": true,
	"null": true,
	"nan":  true,
	"NaN":  true,
}

// ReadLiteralFile reads a file whose whole content is one list literal.
func ReadLiteralFile(path string) (model.Trace, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: record path not provided", model.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: record path is invalid: %w", model.ErrInvalidInput, err)
	}
	trace, err := ParseLiteral(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trace, nil
}

// ParseLiteral decodes a list literal such as "[0.1, -0.2, None, 3e-1]".
// Strict JSON takes the fast path; otherwise Python-style tokens are
// accepted: None, nan, trailing commas, and "1." and ".5" forms. Anything
// but a flat list of finite decimal numbers and missing markers is rejected.
func ParseLiteral(data []byte) (model.Trace, error) {
	data = bytes.TrimSpace(data)

	var trace model.Trace
	if err := sonic.Unmarshal(data, &trace); err != nil {
		trace, err = scanLiteral(string(data))
		if err != nil {
			return nil, err
		}
	}

	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: record is an empty list", model.ErrInvalidInput)
	}
	return trace, nil
}

func scanLiteral(text string) (model.Trace, error) {
	body, ok := unwrap(text)
	if !ok {
		return nil, fmt.Errorf("%w: record is not a valid list", model.ErrInvalidInput)
	}

	fields := strings.Split(body, ",")
	// A single trailing comma is legal; an empty body is an empty list.
	if last := len(fields) - 1; strings.TrimSpace(fields[last]) == "" {
		fields = fields[:last]
	}

	trace := make(model.Trace, 0, len(fields))
	for i, field := range fields {
		token := strings.TrimSpace(field)
		if missingTokens[token] {
			trace = append(trace, model.Missing)
			continue
		}
		v, err := strconv.ParseFloat(token, 64)
		if err != nil || strings.ContainsAny(token, "xX") {
			return nil, fmt.Errorf("%w: element %d (%q) is not a number", model.ErrInvalidInput, i, token)
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: element %d (%q) is not finite", model.ErrInvalidInput, i, token)
		}
		trace = append(trace, model.Value(v))
	}
	return trace, nil
}

// unwrap strips the enclosing brackets of a list.
func unwrap(text string) (string, bool) {
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return "", false
	}
	body := text[1 : len(text)-1]
	if strings.ContainsAny(body, "[]()") {
		return "", false
	}
	return body, true
}
