// internal/app/system/respond/respond.go

// Package respond writes JSON responses.
//
// Every entity leaves the process through JSON, which rewrites the storage
// identifier key "_id" to "id" at every depth. Models therefore tag their
// ObjectID fields `json:"_id"` and never need a per-type marshaler.
package respond

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// MaxBodyBytes bounds a JSON request body read by Decode.
const MaxBodyBytes = 1 << 20

const (
	storageIDKey = "_id"
	publicIDKey  = "id"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Message string `json:"message"`
}

// JSON writes v with status after applying the id transform.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := Marshal(v)
	if err != nil {
		zap.L().Error("respond: encode failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes {"message": msg} with status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{Message: msg})
}

// Marshal encodes v to JSON, renaming "_id" keys to "id".
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(renameIDs(tree)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func renameIDs(node any) any {
	switch n := node.(type) {
	case map[string]any:
		_, hasStorageID := n[storageIDKey]
		out := make(map[string]any, len(n))
		for k, v := range n {
			switch {
			case k == storageIDKey:
				out[publicIDKey] = renameIDs(v)
			case k == publicIDKey && hasStorageID:
				// the storage id wins
			default:
				out[k] = renameIDs(v)
			}
		}
		return out
	case []any:
		for i := range n {
			n[i] = renameIDs(n[i])
		}
		return n
	default:
		return node
	}
}

// Decode reads a JSON request body of at most MaxBodyBytes into dst.
func Decode(r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes)).Decode(dst)
}
