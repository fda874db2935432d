package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taveron/agenda-backend/internal/services"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (ch *CatalogHandler) RelationshipTypes(c *gin.Context) {
	out, err := ch.catalogService.RelationshipTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ch *CatalogHandler) PhoneTypes(c *gin.Context) {
	out, err := ch.catalogService.PhoneTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ch *CatalogHandler) EmailTypes(c *gin.Context) {
	out, err := ch.catalogService.EmailTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ch *CatalogHandler) AddressTypes(c *gin.Context) {
	out, err := ch.catalogService.AddressTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func parseCatalogID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador inválido"})
		return uuid.Nil, false
	}
	return id, true
}

func (ch *CatalogHandler) CreateRelationshipType(c *gin.Context) {
	var req services.RelationshipTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}
	rt, err := ch.catalogService.CreateRelationshipType(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rt)
}

func (ch *CatalogHandler) UpdateRelationshipType(c *gin.Context) {
	id, ok := parseCatalogID(c)
	if !ok {
		return
	}
	var req services.RelationshipTypeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}
	rt, err := ch.catalogService.UpdateRelationshipType(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rt)
}

func (ch *CatalogHandler) DeleteRelationshipType(c *gin.Context) {
	id, ok := parseCatalogID(c)
	if !ok {
		return
	}
	if err := ch.catalogService.DeleteRelationshipType(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
