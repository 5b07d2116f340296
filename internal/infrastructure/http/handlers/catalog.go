package handlers

import (
	"net/http"

	"github.com/yuzvak/storefront/internal/domain/catalog"
	"github.com/yuzvak/storefront/internal/domain/errors"
	"github.com/yuzvak/storefront/internal/infrastructure/http/response"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(products *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: products}
}

func (h *CatalogHandler) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteSuccess(w, h.catalog.Products())
	}
}

func (h *CatalogHandler) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := productIDFromPath(w, r)
		if !ok {
			return
		}

		product, found := h.catalog.Lookup(id)
		if !found {
			response.WriteDomainError(w, errors.ErrProductNotFound)
			return
		}

		response.WriteSuccess(w, product)
	}
}
