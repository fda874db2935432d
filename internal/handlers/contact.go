package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taveron/agenda-backend/internal/presenter"
	"github.com/taveron/agenda-backend/internal/repos"
	"github.com/taveron/agenda-backend/internal/services"
)

type ContactHandler struct {
	contactService services.ContactService
}

func NewContactHandler(contactService services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

func parseContactID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de contacto inválido"})
		return uuid.Nil, false
	}
	return id, true
}

// projection resolves the ?simple= flag once per request.
func projection(c *gin.Context) presenter.Projection {
	simple, _ := strconv.ParseBool(c.DefaultQuery("simple", "false"))
	return presenter.FromSimpleParam(simple)
}

// parseFilter reads the list filter parameters shared by the collection
// routes. Unknown ordering keys are rejected later by the service.
func parseFilter(c *gin.Context) (repos.ContactFilter, error) {
	f := repos.ContactFilter{
		Term:     strings.TrimSpace(c.Query("search")),
		Empresa:  strings.TrimSpace(c.Query("empresa")),
		Ordering: strings.TrimSpace(c.Query("ordering")),
	}
	if v := c.Query("tipo_relacion"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, err
		}
		f.RelationshipTypeID = &id
	}
	if v := c.Query("favorito"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Favorito = &b
	}
	if v := c.Query("activo"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Activo = &b
	}
	return f, nil
}

// List serves the paginated collection with the full filter surface.
func (ch *ContactHandler) List(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parámetros de filtrado inválidos"})
		return
	}
	p := parsePageParams(c)
	f.Limit = p.PageSize
	f.Offset = p.Offset()

	contacts, total, err := ch.contactService.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	results := presenter.Contacts(contacts, projection(c))
	c.JSON(http.StatusOK, paged(c, total, p, results))
}

// ListAll serves the whole collection without pagination.
func (ch *ContactHandler) ListAll(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parámetros de filtrado inválidos"})
		return
	}
	contacts, err := ch.contactService.ListAll(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presenter.Contacts(contacts, projection(c)))
}

// Favorites lists the caller's favorite contacts, unpaginated.
func (ch *ContactHandler) Favorites(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parámetros de filtrado inválidos"})
		return
	}
	fav := true
	f.Favorito = &fav
	contacts, err := ch.contactService.ListAll(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presenter.Contacts(contacts, projection(c)))
}

// Search runs the free-text search over names, company, position, notes,
// phone numbers and emails, combined with the regular filters. With no
// query and no filters every contact of the caller matches.
func (ch *ContactHandler) Search(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parámetros de filtrado inválidos"})
		return
	}
	f.Term = strings.TrimSpace(c.Query("q"))
	contacts, err := ch.contactService.ListAll(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presenter.Contacts(contacts, projection(c)))
}

func (ch *ContactHandler) Get(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	contact, err := ch.contactService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presenter.Full(contact))
}

func (ch *ContactHandler) Create(c *gin.Context) {
	var req services.ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}
	contact, err := ch.contactService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, presenter.Full(contact))
}

func (ch *ContactHandler) Update(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	var req services.ContactInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cuerpo de la petición inválido"})
		return
	}
	contact, err := ch.contactService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presenter.Full(contact))
}

func (ch *ContactHandler) Delete(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	if err := ch.contactService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GroupByType buckets the caller's contacts under every active relationship
// type, zero-count groups included.
func (ch *ContactHandler) GroupByType(c *gin.Context) {
	groups, err := ch.contactService.GroupByRelationshipType(c.Request.Context(), projection(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (ch *ContactHandler) Statistics(c *gin.Context) {
	stats, err := ch.contactService.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ch *ContactHandler) ToggleFavorite(c *gin.Context) {
	id, ok := parseContactID(c)
	if !ok {
		return
	}
	contact, msg, err := ch.contactService.ToggleFavorite(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  msg,
		"favorito": contact.Favorito,
		"contacto": presenter.Full(contact),
	})
}
