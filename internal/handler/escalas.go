package handler

import (
	"net/http"

	"otfinanzas/internal/apierror"
	"otfinanzas/internal/dto"
	"otfinanzas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EscalasHandler struct{ svc service.EscalaService }

func NewEscalasHandler(svc service.EscalaService) *EscalasHandler { return &EscalasHandler{svc: svc} }

// Crear godoc
// @Summary      Crear escala de comisión
// @Description  Crea una escala con tramos contiguos; el último tramo debe ser abierto (max_usd nulo).
// @Tags         escalas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearEscalaRequest true "Definición de la escala"
// @Success      201  {object} dto.EscalaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/escalas [post]
func (h *EscalasHandler) Crear(c *gin.Context) {
	var req dto.CrearEscalaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar escalas
// @Tags         escalas
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.EscalaResponse
// @Router       /v1/escalas [get]
func (h *EscalasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener escala por ID
// @Tags         escalas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la escala"
// @Success      200 {object} dto.EscalaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/escalas/{id} [get]
func (h *EscalasHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar escala
// @Description  Reemplaza nombre, descripción o el juego completo de tramos.
// @Tags         escalas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "UUID de la escala"
// @Param        body body dto.ActualizarEscalaRequest true "Campos a actualizar"
// @Success      200  {object} dto.EscalaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/escalas/{id} [put]
func (h *EscalasHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarEscalaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar escala
// @Tags         escalas
// @Security     BearerAuth
// @Param        id path string true "UUID de la escala"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/escalas/{id} [delete]
func (h *EscalasHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activar godoc
// @Summary      Activar escala
// @Description  Deja exactamente una escala activa: desactiva el resto en la misma transacción.
// @Tags         escalas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la escala"
// @Success      200 {object} dto.EscalaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/escalas/{id}/activar [post]
func (h *EscalasHandler) Activar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Activar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearDefault godoc
// @Summary      Crear escala por defecto
// @Description  Crea la escala estándar solo cuando no existe ninguna escala.
// @Tags         escalas
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} dto.EscalaResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/escalas/default [post]
func (h *EscalasHandler) CrearDefault(c *gin.Context) {
	resp, err := h.svc.CrearDefault(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CalcularComision godoc
// @Summary      Resolver monto contra la escala activa
// @Description  Devuelve tramo aplicado, porcentaje, comisión y neto para un monto dado.
// @Tags         escalas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularComisionRequest true "Monto a resolver"
// @Success      200  {object} dto.CalculoComisionResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/escalas/calcular [post]
func (h *EscalasHandler) CalcularComision(c *gin.Context) {
	var req dto.CalcularComisionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CalcularComision(c.Request.Context(), req.MontoUSD)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
