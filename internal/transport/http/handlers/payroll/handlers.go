package payrollhandler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"wagecalc/internal/domain/payroll"
	"wagecalc/internal/platform/metrics"
	"wagecalc/internal/transport/http/api"
)

type Handler struct {
	Engine  *payroll.Engine
	Laws    *payroll.LawRegistry
	Calcs   *payroll.CalculatorRegistry
	LawDir  string
	Metrics *metrics.Collector
}

func NewHandler(engine *payroll.Engine, laws *payroll.LawRegistry, calcs *payroll.CalculatorRegistry, lawDir string, collector *metrics.Collector) *Handler {
	return &Handler{Engine: engine, Laws: laws, Calcs: calcs, LawDir: lawDir, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/calculate", h.handleCalculate)
	r.Get("/laws", h.handleListLaws)
	r.Post("/laws/reload", h.handleReloadLaws)
	r.Post("/payslip", h.handlePayslip)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req payroll.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, fmt.Sprintf("invalid pay run request: %v", err))
		return
	}

	result, err := h.Engine.Run(r.Context(), req)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordRun(len(result.Results))
	}
	api.WriteJSON(w, http.StatusOK, result)
}

type lawInfo struct {
	Region  string `json:"region"`
	Version string `json:"version"`
}

func (h *Handler) handleListLaws(w http.ResponseWriter, r *http.Request) {
	laws := h.Laws.Laws()
	infos := make([]lawInfo, 0, len(laws))
	for _, law := range laws {
		infos = append(infos, lawInfo{Region: law.Region, Version: law.Version})
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"laws": infos})
}

// handleReloadLaws re-reads the tax law directory and swaps both
// registries. The swap goes through the engine's write lock, so it never
// overlaps a run in flight.
func (h *Handler) handleReloadLaws(w http.ResponseWriter, r *http.Request) {
	laws, err := payroll.LoadDir(h.LawDir)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	calcs := payroll.Calculators(laws)
	h.Engine.Swap(func() {
		h.Laws.ReplaceAll(laws)
		h.Calcs.ReplaceAll(calcs)
	})

	log.Printf("tax laws reloaded from %s: %d laws, %d calculators", h.LawDir, len(laws), len(calcs))
	api.WriteJSON(w, http.StatusOK, map[string]int{"laws": len(laws), "regions": len(calcs)})
}

type payslipPayload struct {
	Period payroll.PayPeriod      `json:"period"`
	Result payroll.EmployeeResult `json:"result"`
}

// handlePayslip renders a single employee result as a PDF payslip and
// returns it inline. Nothing is written to disk.
func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	var payload payslipPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, fmt.Sprintf("invalid payslip request: %v", err))
		return
	}
	if strings.TrimSpace(payload.Result.Employee.ID) == "" {
		api.Fail(w, http.StatusBadRequest, "payslip request missing employee id")
		return
	}

	doc, err := renderPayslip(payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=payslip-%s.pdf", payload.Result.Employee.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		log.Printf("payslip write failed: %v", err)
	}
}

func renderPayslip(payload payslipPayload) ([]byte, error) {
	emp := payload.Result.Employee

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s (%s)", emp.Name, emp.ID))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Region: %s", emp.HomeRegion))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", payload.Period.Start, payload.Period.End))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %.2f", payload.Result.Gross))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Taxes: %.2f", payload.Result.Taxes))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %.2f", payload.Result.Net))

	if region, ok := payload.Result.Details["tax_region"].(string); ok {
		pdf.Ln(10)
		version, _ := payload.Result.Details["tax_version"].(string)
		pdf.Cell(0, 8, fmt.Sprintf("Tax law: %s %s", region, version))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render payslip: %w", err)
	}
	return buf.Bytes(), nil
}
