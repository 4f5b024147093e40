package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"metaregistry/internal/service/objects"
	"metaregistry/web"
)

// StaticHandler отдает сохраненные JSON-объекты и встроенную страницу UI
type StaticHandler struct {
	storage objects.Storage
}

func NewStaticHandler(storage objects.Storage) *StaticHandler {
	return &StaticHandler{storage: storage}
}

// Index отдает встроенную HTML-страницу
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(web.IndexHTML)
}

// ServeObject отдает объект по пути /objects/{recordId}/v{n}.json
func (h *StaticHandler) ServeObject(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	obj, err := h.storage.GetObject(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	defer obj.Close()

	w.Header().Set("Content-Type", obj.ContentType())
	if obj.ContentLength() > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength(), 10))
	}
	io.Copy(w, obj)
}
