package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/campus-lostfound/internal/api/httpx"
	"github.com/baharkarakas/campus-lostfound/internal/common"
	"github.com/baharkarakas/campus-lostfound/internal/middleware"
	"github.com/baharkarakas/campus-lostfound/internal/models"
	"github.com/baharkarakas/campus-lostfound/internal/search"
	"github.com/baharkarakas/campus-lostfound/internal/services"
)

// multipart overhead allowed on top of the image itself
const formSlack = 1 << 20

type PostHandler struct {
	Svc       *services.PostService
	MaxUpload int64
}

func NewPostHandler(svc *services.PostService, maxUpload int64) *PostHandler {
	return &PostHandler{Svc: svc, MaxUpload: maxUpload}
}

type postReq struct {
	Kind        string `json:"type"`
	ItemName    string `json:"item_name"`
	Category    string `json:"item_category"`
	Description string `json:"description"`
	OccurredAt  string `json:"time"`
	Location    string `json:"location"`
}

func (p postReq) post() models.Post {
	return models.Post{
		Kind:        models.PostKind(p.Kind),
		ItemName:    p.ItemName,
		Category:    p.Category,
		Description: p.Description,
		OccurredAt:  p.OccurredAt,
		Location:    p.Location,
	}
}

type editReq struct {
	ID          postID  `json:"id"`
	Kind        *string `json:"type"`
	ItemName    *string `json:"item_name"`
	Category    *string `json:"item_category"`
	Description *string `json:"description"`
	OccurredAt  *string `json:"time"`
	Location    *string `json:"location"`
}

func (e editReq) patch() models.PostPatch {
	p := models.PostPatch{
		ItemName:    e.ItemName,
		Category:    e.Category,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
		Location:    e.Location,
	}
	if e.Kind != nil {
		k := models.PostKind(*e.Kind)
		p.Kind = &k
	}
	return p
}

type idReq struct {
	ID postID `json:"id"`
}

type statusReq struct {
	ID     postID  `json:"id"`
	Status *string `json:"status"`
}

type statusResp struct {
	ID     int64             `json:"id"`
	Status models.PostStatus `json:"status"`
}

func actor(w http.ResponseWriter, r *http.Request) (middleware.UserCtx, bool) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.Fail(w, r, common.ErrUnauthenticated)
	}
	return u, ok
}

// Create publishes a post from a multipart form (optionally with an "image"
// file) or a JSON body.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var (
		req postReq
		img *services.Upload
	)
	if isMultipart(r) {
		form, err := h.parseForm(w, r)
		if err != nil {
			httpx.Fail(w, r, err)
			return
		}
		defer form.RemoveAll()

		req = postReq{
			Kind:        r.FormValue("type"),
			ItemName:    r.FormValue("item_name"),
			Category:    r.FormValue("item_category"),
			Description: r.FormValue("description"),
			OccurredAt:  r.FormValue("time"),
			Location:    r.FormValue("location"),
		}
		var closeImg func()
		if img, closeImg, err = formImage(r); err != nil {
			httpx.Fail(w, r, err)
			return
		}
		defer closeImg()
	} else if err := decodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}

	p, err := h.Svc.Create(r.Context(), u.UserID, req.post(), img)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "post published", p)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := search.Parse(r.URL.Query(), h.Svc.Limits())
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	page, err := h.Svc.Search(r.Context(), q)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", page)
}

func (h *PostHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", p)
}

func (h *PostHandler) Mine(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	items, err := h.Svc.Mine(r.Context(), u.UserID)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", items)
}

// Edit changes only the fields present in the request. A multipart request
// may also carry a replacement "image".
func (h *PostHandler) Edit(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}

	var (
		req editReq
		img *services.Upload
	)
	if isMultipart(r) {
		form, err := h.parseForm(w, r)
		if err != nil {
			httpx.Fail(w, r, err)
			return
		}
		defer form.RemoveAll()

		id, err := parseID(r.FormValue("id"))
		if err != nil {
			httpx.Fail(w, r, err)
			return
		}
		req = editReq{
			ID:          postID(id),
			Kind:        formValue(form, "type"),
			ItemName:    formValue(form, "item_name"),
			Category:    formValue(form, "item_category"),
			Description: formValue(form, "description"),
			OccurredAt:  formValue(form, "time"),
			Location:    formValue(form, "location"),
		}
		var closeImg func()
		if img, closeImg, err = formImage(r); err != nil {
			httpx.Fail(w, r, err)
			return
		}
		defer closeImg()
	} else if err := decodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := req.ID.valid(); err != nil {
		httpx.Fail(w, r, err)
		return
	}

	p, err := h.Svc.Update(r.Context(), u.UserID, int64(req.ID), req.patch(), img)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "post updated", p)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var req idReq
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := req.ID.valid(); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), u.UserID, int64(req.ID)); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "post deleted", idReq{ID: req.ID})
}

// SetStatus toggles active/found, or sets "status" when the body has one.
func (h *PostHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(w, r)
	if !ok {
		return
	}
	var req statusReq
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	if err := req.ID.valid(); err != nil {
		httpx.Fail(w, r, err)
		return
	}
	var want *models.PostStatus
	if req.Status != nil && *req.Status != "" {
		s := models.PostStatus(*req.Status)
		want = &s
	}
	st, err := h.Svc.SetStatus(r.Context(), u.UserID, int64(req.ID), want)
	if err != nil {
		httpx.Fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "status updated", statusResp{ID: int64(req.ID), Status: st})
}

func (h *PostHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+formSlack)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, httpx.BadRequest("invalid multipart form")
	}
	return r.MultipartForm, nil
}

func formValue(f *multipart.Form, key string) *string {
	vs, ok := f.Value[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

// formImage returns the optional "image" part; close must be called when
// err is nil.
func formImage(r *http.Request) (*services.Upload, func(), error) {
	f, fh, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, httpx.BadRequest("image: unreadable upload")
	}
	return &services.Upload{Filename: fh.Filename, Size: fh.Size, Body: f}, func() { _ = f.Close() }, nil
}
