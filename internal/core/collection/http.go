// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package collection

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gibiteca/internal/platform/apperr"
	"github.com/taibuivan/gibiteca/internal/platform/middleware"
	requestutil "github.com/taibuivan/gibiteca/internal/platform/request"
	"github.com/taibuivan/gibiteca/internal/platform/respond"
)

// multipartOverhead is the allowance for form boundaries and headers around a cover.
const multipartOverhead = 1 << 20

// # Handler Implementation

// Handler implements the HTTP layer for collections and issues.
type Handler struct {
	service *Service
}

// NewHandler constructs a collection [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the /collections endpoints. Every route requires a session
// and only ever touches the caller's rows.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.listCollections)
	router.Post("/", handler.createCollection)
	router.Post("/import", handler.importSeries)

	router.Get("/{id}", handler.getCollection)
	router.Patch("/{id}", handler.updateCollection)
	router.Delete("/{id}", handler.deleteCollection)
	router.Post("/{id}/cover", handler.uploadCover)
	router.Post("/{id}/issues", handler.addIssue)

	return router
}

// IssueRoutes returns the /issues endpoints.
func (handler *Handler) IssueRoutes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Post("/{id}/toggle-owned", handler.toggleOwned)
	router.Put("/{id}/rating", handler.rateIssue)

	return router
}

// # Collections

/*
GET /api/v1/collections?q=.

Response:
  - 200: []Collection: Newest first, filtered by title or publisher
*/
func (handler *Handler) listCollections(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	collections, err := handler.service.ListCollections(request.Context(), userID, requestutil.Query(request, "q"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, collections)
}

/*
POST /api/v1/collections.

Request:
  - body: CreateInput (JSON)

Response:
  - 201: Collection
  - 400: Validation errors
*/
func (handler *Handler) createCollection(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	collection, err := handler.service.CreateCollection(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, collection)
}

func (handler *Handler) getCollection(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.GetCollection(request.Context(), userID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, detail)
}

func (handler *Handler) updateCollection(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	collection, err := handler.service.UpdateCollection(request.Context(), userID, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, collection)
}

func (handler *Handler) deleteCollection(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteCollection(request.Context(), userID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/collections/{id}/cover.

Request:
  - body: multipart/form-data with a "file" part (image, at most 5 MiB)

Response:
  - 200: Collection: With the new cover_url
  - 400: Missing file, unsupported type or too large
*/
func (handler *Handler) uploadCover(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, MaxCoverBytes+multipartOverhead)
	if err := request.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.ValidationError("Cover image too large"))
			return
		}
		respond.Error(writer, request, apperr.ValidationError("Expected a multipart form with a file field"))
		return
	}
	defer request.MultipartForm.RemoveAll()

	file, header, err := request.FormFile(FieldFile)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Missing cover file"))
		return
	}
	defer file.Close()

	// The declared part type is not trusted; sniff the first bytes instead.
	head := make([]byte, 512)
	read, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		respond.Error(writer, request, apperr.ValidationError("Unreadable cover file"))
		return
	}
	head = head[:read]

	collection, err := handler.service.UploadCover(request.Context(), userID, id, CoverUpload{
		Filename:    header.Filename,
		ContentType: http.DetectContentType(head),
		Size:        header.Size,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, collection)
}

/*
POST /api/v1/collections/import.

Request:
  - body: ImportInput (JSON) holding a catalog search result

Response:
  - 201: Detail: The new collection with its issues sorted
  - 400: Missing title
*/
func (handler *Handler) importSeries(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ImportInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.ImportSeries(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, detail)
}

// # Issues

/*
POST /api/v1/collections/{id}/issues.

Response:
  - 201: []Issue: The full issue list, re-sorted
*/
func (handler *Handler) addIssue(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input IssueInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issues, err := handler.service.AddIssue(request.Context(), userID, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, issues)
}

func (handler *Handler) toggleOwned(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	issue, err := handler.service.ToggleOwned(request.Context(), userID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, issue)
}

// rateInput accepts {"rating": 1..5} or {"rating": null}.
type rateInput struct {
	Rating *int `json:"rating"`
}

func (handler *Handler) rateIssue(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := ownerAndID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input rateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	issue, err := handler.service.RateIssue(request.Context(), userID, id, input.Rating)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, issue)
}

// ownerAndID returns the caller's user id and the {id} path parameter.
func ownerAndID(request *http.Request) (string, string, error) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return "", "", err
	}
	id, err := requestutil.ID(request, "id")
	if err != nil {
		return "", "", err
	}
	return userID, id, nil
}
