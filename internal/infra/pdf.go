package infra

// pdf.go — Protocolo de elaboración en PDF usando go-pdf/fpdf.
// Documento A4 con encabezado de partida, resultado de calidad, tabla de
// insumos consumidos (lote, código, cantidad) y tabla de productos elaborados.
// El archivo queda en storagePath/protocolo_{codigo}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"plantaops/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateProtocoloPDF renders the production protocol for a partida. The
// partida must come with Consumos (and their Lotes), Elaborados and
// Responsable preloaded. Returns the absolute path of the written file.
func GenerateProtocoloPDF(partida *model.Partida, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("protocolo_%s.pdf", partida.Codigo)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Encabezado ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, "Protocolo de Elaboración", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, fmt.Sprintf("Partida %s", partida.Codigo), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Fecha de partida: %s", partida.FechaPartida.Format("02/01/2006")), "", 1, "L", false, 0, "")
	if partida.Responsable != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Responsable: %s", partida.Responsable.Nombre), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Estado: %s / calidad: %s", partida.Estado(), partida.EstadoQA), "", 1, "L", false, 0, "")
	if partida.MotivoQA != nil && *partida.MotivoQA != "" {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Motivo: %s", *partida.MotivoQA), "", 1, "L", false, 0, "")
	}
	if partida.FechaInicio != nil && partida.FechaFin != nil {
		pdf.CellFormat(contentW, 5, fmt.Sprintf("Producción: %s — %s",
			partida.FechaInicio.Format("02/01/2006 15:04"),
			partida.FechaFin.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Insumos consumidos ───────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Insumos consumidos", "", 1, "L", false, 0, "")

	col1 := contentW * 0.40 // insumo
	col2 := contentW * 0.30 // código de lote
	col3 := contentW * 0.30 // cantidad

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Insumo", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Lote", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "Cantidad", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for i := range partida.Consumos {
		c := &partida.Consumos[i]
		nombre, codigo := "", ""
		if c.Lote != nil {
			nombre = c.Lote.Nombre
			codigo = c.Lote.CodigoLote
		}
		pdf.CellFormat(col1, 6, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, codigo, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, fmt.Sprintf("%s %s", c.CantidadConsumida.String(), c.Unidad), "", 1, "R", false, 0, "")
	}
	if len(partida.Consumos) == 0 {
		pdf.CellFormat(contentW, 6, "Sin consumos registrados", "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// ── Productos elaborados ─────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW, 7, "Productos elaborados", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Tamaño", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "Cantidad", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for i := range partida.Elaborados {
		e := &partida.Elaborados[i]
		tam := "-"
		if e.Tamano != nil {
			tam = e.Tamano.String()
			if e.UnidadTamano != nil {
				tam += " " + *e.UnidadTamano
			}
		}
		pdf.CellFormat(col1, 6, e.Nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, tam, "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, fmt.Sprintf("%s %s", e.CantidadProducida.String(), e.UnidadProducida), "", 1, "R", false, 0, "")
	}
	if len(partida.Elaborados) == 0 {
		pdf.CellFormat(contentW, 6, "Sin productos registrados", "", 1, "L", false, 0, "")
	}

	// ── Pie ──────────────────────────────────────────────────────────────────
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Generado el %s", partida.UpdatedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write %s: %w", filePath, err)
	}
	return filePath, nil
}
