package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/catalog"
)

func (a *API) handleSearchBooks(c *gin.Context) {
	q := c.Query("q")
	genre := c.Query("genre")
	status := c.Query("status")
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	res, err := catalog.Search(a.db, q, genre, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": res, "limit": limit, "offset": offset})
}

func (a *API) handleBookDetail(c *gin.Context) {
	b, err := catalog.GetBook(a.db, c.Param("id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (a *API) handleListGenres(c *gin.Context) {
	genres, err := catalog.ListGenres(a.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, genres)
}

type bookReq struct {
	Title         string `json:"title" binding:"required"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	Genre         string `json:"genre"`
	PublishedYear int    `json:"published_year"`
	Description   string `json:"description"`
	TotalCopies   int    `json:"total_copies" binding:"required,gt=0"`
}

func (r bookReq) input() catalog.BookInput {
	return catalog.BookInput{
		Title:         r.Title,
		Author:        r.Author,
		ISBN:          r.ISBN,
		Genre:         r.Genre,
		PublishedYear: r.PublishedYear,
		Description:   r.Description,
		TotalCopies:   r.TotalCopies,
	}
}

func (a *API) handleCreateBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and total_copies (> 0) required"})
		return
	}
	b, err := catalog.CreateBook(a.db, req.input())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (a *API) handleUpdateBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and total_copies (> 0) required"})
		return
	}
	b, err := catalog.UpdateBook(a.db, c.Param("id"), req.input())
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (a *API) handleDeleteBook(c *gin.Context) {
	if err := catalog.DeleteBook(a.db, c.Param("id")); err != nil {
		abortErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
