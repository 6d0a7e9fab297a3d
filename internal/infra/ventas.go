package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// DesgloseVenta es una línea del desglose de ventas netas de una modelo.
type DesgloseVenta struct {
	Origen   string          `json:"origen"`
	MontoUSD decimal.Decimal `json:"monto_usd"`
	Cantidad int             `json:"cantidad"`
}

// VentasNetas es la respuesta del feed de ventas para (modelo, periodo).
type VentasNetas struct {
	ModeloID string          `json:"modelo_id"`
	Mes      int             `json:"mes"`
	Anio     int             `json:"anio"`
	MontoUSD decimal.Decimal `json:"monto_usd"`
	Cantidad int             `json:"cantidad"`
	Desglose []DesgloseVenta `json:"desglose"`
}

// VentasClient consume el feed de ventas (solo lectura) del sistema de
// registro de ventas. El motor nunca escribe en ese sistema.
type VentasClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewVentasClient(baseURL string) *VentasClient {
	return &VentasClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NetSales devuelve las ventas netas de la modelo en el periodo. Los IDs de
// modelo son opacos para el motor; el feed es la única fuente de verdad.
func (c *VentasClient) NetSales(ctx context.Context, modeloID string, mes, anio int) (*VentasNetas, error) {
	url := fmt.Sprintf("%s/ventas/netas?modelo=%s&mes=%d&anio=%d", c.baseURL, modeloID, mes, anio)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ventas: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ventas: feed inalcanzable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("ventas: modelo %s sin ventas en %d/%d", modeloID, mes, anio)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ventas: feed devolvió %d", resp.StatusCode)
	}

	var body VentasNetas
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ventas: decode response: %w", err)
	}
	return &body, nil
}

// ModelosConVentas lista los IDs de modelo con ventas en el periodo; lo usa
// el recálculo por lote cuando no se especifican modelos.
func (c *VentasClient) ModelosConVentas(ctx context.Context, mes, anio int) ([]string, error) {
	url := fmt.Sprintf("%s/ventas/modelos?mes=%d&anio=%d", c.baseURL, mes, anio)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ventas: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ventas: feed inalcanzable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ventas: feed devolvió %d", resp.StatusCode)
	}

	var body struct {
		Modelos []string `json:"modelos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ventas: decode response: %w", err)
	}
	return body.Modelos, nil
}
