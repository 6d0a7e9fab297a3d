package handler

import (
	"net/http"
	"time"

	"otfinanzas/internal/apierror"
	"otfinanzas/internal/dto"
	"otfinanzas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProcesadoresHandler struct{ svc service.ProcesadorService }

func NewProcesadoresHandler(svc service.ProcesadorService) *ProcesadoresHandler {
	return &ProcesadoresHandler{svc: svc}
}

// Crear godoc
// @Summary      Registrar procesador de pago
// @Description  Registra un procesador con su tipo de fee (PERCENTAGE, FIXED_USD o FIXED_COP) y fecha efectiva.
// @Tags         procesadores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearProcesadorRequest true "Definición del procesador"
// @Success      201  {object} dto.ProcesadorResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/procesadores [post]
func (h *ProcesadoresHandler) Crear(c *gin.Context) {
	var req dto.CrearProcesadorRequest
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
// @Summary      Listar procesadores
// @Tags         procesadores
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProcesadorResponse
// @Router       /v1/procesadores [get]
func (h *ProcesadoresHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener godoc
// @Summary      Obtener procesador por ID
// @Tags         procesadores
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del procesador"
// @Success      200 {object} dto.ProcesadorResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/procesadores/{id} [get]
func (h *ProcesadoresHandler) Obtener(c *gin.Context) {
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
// @Summary      Actualizar procesador
// @Tags         procesadores
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                          true "UUID del procesador"
// @Param        body body dto.ActualizarProcesadorRequest true "Campos a actualizar"
// @Success      200  {object} dto.ProcesadorResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/procesadores/{id} [put]
func (h *ProcesadoresHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarProcesadorRequest
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
// @Summary      Eliminar procesador
// @Tags         procesadores
// @Security     BearerAuth
// @Param        id path string true "UUID del procesador"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/procesadores/{id} [delete]
func (h *ProcesadoresHandler) Eliminar(c *gin.Context) {
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

// ComisionVigente godoc
// @Summary      Calcular fee del procesador vigente
// @Description  Aplica el fee del procesador vigente a la fecha indicada (default: hoy). FIXED_COP convierte por TRM del día.
// @Tags         procesadores
// @Produce      json
// @Security     BearerAuth
// @Param        monto      query number true  "Monto en USD"
// @Param        fecha      query string false "Fecha YYYY-MM-DD (default: hoy)"
// @Param        procesador query string false "Restringe la selección a ese nombre de procesador"
// @Success      200 {object} map[string]interface{}
// @Failure      422 {object} apierror.APIError "TRM del día no disponible"
// @Router       /v1/procesadores/vigente/fee [get]
func (h *ProcesadoresHandler) ComisionVigente(c *gin.Context) {
	monto, err := decimal.NewFromString(c.Query("monto"))
	if err != nil || monto.IsNegative() {
		c.JSON(http.StatusBadRequest, apierror.New("Monto invalido"))
		return
	}
	fecha := time.Now().UTC()
	if raw := c.Query("fecha"); raw != "" {
		fecha, err = time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Fecha invalida, use YYYY-MM-DD"))
			return
		}
	}

	fee, procesador, err := h.svc.ComisionVigente(c.Request.Context(), monto, fecha, c.Query("procesador"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"procesador":    procesador.Nombre,
		"tipo_comision": procesador.TipoComision,
		"monto_usd":     monto,
		"fee_usd":       fee,
		"neto_usd":      monto.Sub(fee),
	})
}
