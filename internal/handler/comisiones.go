package handler

import (
	"net/http"

	"otfinanzas/internal/dto"
	"otfinanzas/internal/service"

	"github.com/gin-gonic/gin"
)

type ComisionesHandler struct{ svc service.ComisionesService }

func NewComisionesHandler(svc service.ComisionesService) *ComisionesHandler {
	return &ComisionesHandler{svc: svc}
}

// ObtenerConfig godoc
// @Summary      Obtener configuración de comisiones internas
// @Description  Devuelve los porcentajes vigentes de sales closer, trafficker y chatters. Crea la configuración por defecto si no existe.
// @Tags         comisiones-internas
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.ConfigComisionesResponse
// @Router       /v1/comisiones-internas/config [get]
func (h *ComisionesHandler) ObtenerConfig(c *gin.Context) {
	resp, err := h.svc.ObtenerConfig(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarConfig godoc
// @Summary      Actualizar configuración de comisiones internas
// @Description  Reemplaza porcentajes y la escala de rendimiento de chatters completa.
// @Tags         comisiones-internas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ActualizarConfigComisionesRequest true "Nueva configuración"
// @Success      200  {object} dto.ConfigComisionesResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/comisiones-internas/config [put]
func (h *ComisionesHandler) ActualizarConfig(c *gin.Context) {
	var req dto.ActualizarConfigComisionesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarConfig(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Calcular godoc
// @Summary      Calcular comisiones de los tres roles
// @Description  Computa sales closer (con tope de meses), trafficker y chatters (escala de rendimiento con clamp) en una sola llamada atómica.
// @Tags         comisiones-internas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CalcularComisionesInternasRequest true "Entradas por rol"
// @Success      200  {object} dto.ComisionesInternasResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/comisiones-internas/calcular [post]
func (h *ComisionesHandler) Calcular(c *gin.Context) {
	var req dto.CalcularComisionesInternasRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CalcularTodas(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
