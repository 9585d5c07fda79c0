package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fintrack/internal/core"
)

// readBody returns the request body. The body limit middleware has already
// wrapped it, so an oversized body surfaces as *http.MaxBytesError.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	return io.ReadAll(r.Body)
}

// pathID parses the {id} route variable. The route pattern only admits
// digits, so a failure here means the value overflowed and no entity can
// carry it.
func pathID(r *http.Request, entity string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		return 0, core.NotFoundError(entity)
	}
	return id, nil
}
