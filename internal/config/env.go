// internal/config/env.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// envReader reads typed settings and remembers every value that failed to
// parse so Load can report them together.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func (e *envReader) fail(key, value, kind string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q is not a valid %s", key, value, kind))
}

func (e *envReader) str(key, def string) string {
	if value, ok := e.lookup(key); ok {
		return value
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, "integer")
		return def
	}
	return n
}

func (e *envReader) bool(key string, def bool) bool {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		e.fail(key, value, "boolean")
		return def
	}
	return b
}

func (e *envReader) decimal(key string, def decimal.Decimal) decimal.Decimal {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		e.fail(key, value, "decimal")
		return def
	}
	return d
}

// list splits a comma separated value, dropping empty entries.
func (e *envReader) list(key string, def []string) []string {
	value, ok := e.lookup(key)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (e *envReader) err() error {
	return errors.Join(e.errs...)
}
