package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elliotchance/phpserialize"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/leadcollect/cart-recovery/pkg/enums"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
)

// decode runs the fixed decode chain: decompress (not compressed is
// non-fatal), then PHP unserialize, then JSON. The first decoder that
// produces a document wins.
func decode(raw []byte) (map[string]any, enums.PayloadFormat, error) {
	if len(raw) == 0 {
		return nil, "", apperrors.New(apperrors.CodeDecode, "empty payload")
	}

	payload := raw
	compressed := false
	if inflated, ok := tryInflate(raw); ok {
		payload = inflated
		compressed = true
	}

	if doc, ok := tryPHP(payload); ok {
		format := enums.FormatPHPSerialized
		if compressed {
			format = enums.FormatCompressedPHPSerialized
		}
		return doc, format, nil
	}

	if doc, ok := tryJSON(payload); ok {
		format := enums.FormatJSON
		if compressed {
			format = enums.FormatCompressedJSON
		}
		return doc, format, nil
	}

	return nil, "", apperrors.New(apperrors.CodeDecode, "payload matched no known encoding")
}

// tryInflate attempts zlib first, then gzip. A payload that is not
// compressed simply falls through.
func tryInflate(raw []byte) ([]byte, bool) {
	if out, ok := readAll(zlibReader(raw)); ok {
		return out, true
	}
	if out, ok := readAll(gzipReader(raw)); ok {
		return out, true
	}
	return nil, false
}

func zlibReader(raw []byte) (io.ReadCloser, error) {
	return zlib.NewReader(bytes.NewReader(raw))
}

func gzipReader(raw []byte) (io.ReadCloser, error) {
	return gzip.NewReader(bytes.NewReader(raw))
}

func readAll(rc io.ReadCloser, err error) ([]byte, bool) {
	if err != nil {
		return nil, false
	}
	defer rc.Close()
	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return out, true
}

func tryPHP(payload []byte) (map[string]any, bool) {
	var decoded map[any]any
	if err := phpserialize.Unmarshal(payload, &decoded); err != nil {
		return nil, false
	}
	doc, ok := stringKeyed(decoded).(map[string]any)
	if !ok || len(doc) == 0 {
		return nil, false
	}
	return doc, true
}

func tryJSON(payload []byte) (map[string]any, bool) {
	var doc map[string]any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, false
	}
	if len(doc) == 0 {
		return nil, false
	}
	return doc, true
}

// stringKeyed recursively converts PHP-style map[any]any documents into
// map[string]any / []any so extraction sees one shape regardless of decoder.
func stringKeyed(value any) any {
	switch v := value.(type) {
	case map[any]any:
		if isSequential(v) {
			out := make([]any, len(v))
			for i := range out {
				out[i] = stringKeyed(v[int64(i)])
			}
			return out
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = stringKeyed(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = stringKeyed(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = stringKeyed(item)
		}
		return out
	default:
		return value
	}
}

// isSequential reports whether a PHP array is a list: integer keys 0..n-1.
func isSequential(v map[any]any) bool {
	if len(v) == 0 {
		return false
	}
	for i := 0; i < len(v); i++ {
		if _, ok := v[int64(i)]; !ok {
			return false
		}
	}
	return true
}
