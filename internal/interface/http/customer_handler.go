package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clientsphere/internal/application"
	"github.com/oksasatya/clientsphere/internal/domain"
	"github.com/oksasatya/clientsphere/pkg/response"
	"github.com/oksasatya/clientsphere/pkg/validation"
)

type CustomerHandler struct {
	Svc    *application.CustomerService
	Logger *logrus.Logger
}

func NewCustomerHandler(svc *application.CustomerService, logger *logrus.Logger) *CustomerHandler {
	return &CustomerHandler{Svc: svc, Logger: logger}
}

// writeError maps a classified directory error onto an HTTP status.
func (h *CustomerHandler) writeError(c *gin.Context, err error) {
	switch application.KindOf(err) {
	case application.KindValidation:
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", validation.Details(application.FieldsOf(err)))
	case application.KindDuplicateEmail:
		response.Error[any](c, http.StatusConflict, "email already exists for another customer", map[string]string{"email": "already exists"})
	case application.KindNotFound:
		msg := "customer not found"
		if errors.Is(err, domain.ErrInvalidCustomerID) {
			msg = "invalid customer id format"
		}
		response.Error[any](c, http.StatusNotFound, msg, nil)
	case application.KindStoreUnavailable:
		c.Header("Retry-After", "1")
		response.Error[any](c, http.StatusServiceUnavailable, "customer store unavailable, retry later", nil)
	default:
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("unexpected customer handler error")
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

// List never fails; malformed query values fall back to defaults.
func (h *CustomerHandler) List(c *gin.Context) {
	params := application.ListParams{
		Page:      c.Query("page"),
		PageSize:  c.Query("pageSize"),
		Search:    c.Query("search"),
		Status:    c.Query("status"),
		SortField: c.Query("sortField"),
		SortOrder: c.Query("sortOrder"),
	}
	page := h.Svc.List(c.Request.Context(), params)
	response.Success(c, http.StatusOK, page, "customers", nil)
}

func (h *CustomerHandler) Dashboard(c *gin.Context) {
	d, err := h.Svc.Dashboard(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d, "dashboard", nil)
}

func (h *CustomerHandler) Suggest(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	out, err := h.Svc.Suggest(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out, "suggestions", nil)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	cust, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cust, "customer", nil)
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req application.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	cust, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Location", "/api/customers/"+cust.ID)
	response.Success(c, http.StatusCreated, cust, "customer created", nil)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	var req application.CustomerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	cust, err := h.Svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cust, "customer updated", nil)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "customer deleted", nil)
}
