// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gibiteca/internal/platform/middleware"
	requestutil "github.com/taibuivan/gibiteca/internal/platform/request"
	"github.com/taibuivan/gibiteca/internal/platform/respond"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

/*
Routes returns the catalog endpoints. All of them require a session.

  - GET /providers
  - GET /search?provider=&q=
  - GET /issues?provider=&ref=
*/
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	router.Get("/providers", handler.listProviders)
	router.Get("/search", handler.search)
	router.Get("/issues", handler.listIssues)

	return router
}

func (handler *Handler) listProviders(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.service.Providers())
}

func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	results, err := handler.service.Search(
		request.Context(),
		requestutil.Query(request, FieldProvider),
		requestutil.Query(request, FieldQuery),
	)
	if err != nil {
		respond.Error(writer, request, AsAppError(err))
		return
	}
	respond.OK(writer, results)
}

func (handler *Handler) listIssues(writer http.ResponseWriter, request *http.Request) {
	records, err := handler.service.ResolveIssues(
		request.Context(),
		requestutil.Query(request, FieldProvider),
		requestutil.Query(request, FieldRef),
	)
	if err != nil {
		respond.Error(writer, request, AsAppError(err))
		return
	}
	respond.OK(writer, records)
}
