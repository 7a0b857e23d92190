package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"student-form-backend/internal/forms"
	"student-form-backend/internal/model"
	"student-form-backend/internal/render"
)

// FormIDHeader carries the id of a newly submitted form next to its PDF.
const FormIDHeader = "X-Form-ID"

func formID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalid"})
		return 0, false
	}
	return id, true
}

func bindInput(c *gin.Context) (forms.Input, bool) {
	var in forms.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cerere invalidă"})
		return forms.Input{}, false
	}
	return in, true
}

func sendPDF(c *gin.Context, form model.StudentForm, pdf []byte) {
	c.Header("Content-Disposition", render.ContentDisposition(form))
	c.Header(FormIDHeader, strconv.FormatInt(form.ID, 10))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListForms returns every submitted form.
func (h *Handler) ListForms(c *gin.Context) {
	list, err := h.forms.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetForm returns one form.
func (h *Handler) GetForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	form, err := h.forms.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// GetFormPDF renders a stored form.
func (h *Handler) GetFormPDF(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	form, pdf, err := h.forms.Document(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sendPDF(c, form, pdf)
}

// SubmitForm stores a new form and answers with its PDF.
func (h *Handler) SubmitForm(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	form, pdf, err := h.forms.Submit(c.Request.Context(), in)
	if err != nil {
		if form.ID != 0 {
			// Stored, but the document could not be produced.
			c.Header(FormIDHeader, strconv.FormatInt(form.ID, 10))
		}
		h.respondError(c, err)
		return
	}
	sendPDF(c, form, pdf)
}

// UpdateForm replaces the editable fields of a form.
func (h *Handler) UpdateForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	in, ok := bindInput(c)
	if !ok {
		return
	}
	if err := h.forms.Update(c.Request.Context(), id, in); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteForm permanently removes a form.
func (h *Handler) DeleteForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}
	if err := h.forms.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Backend API is working!"})
}
