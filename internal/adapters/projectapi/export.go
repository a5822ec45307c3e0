package projectapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"navisolcore/pkg/domain"
)

func (h *Handler) handleBOM(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	p, ok := h.Service.GetProject(id)
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	switch len(rest) {
	case 0:
		writeJSON(w, http.StatusOK, map[string]any{"bom_snapshots": p.BOMSnapshots})
	case 1:
		bom, ok := p.FindBOMSnapshot(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "bom snapshot not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bom_snapshot": bom})
	case 2:
		if rest[1] != "export" {
			http.NotFound(w, r)
			return
		}
		bom, ok := p.FindBOMSnapshot(rest[0])
		if !ok {
			writeError(w, http.StatusNotFound, "bom snapshot not found")
			return
		}
		streamBOMCSV(w, p, bom)
	default:
		http.NotFound(w, r)
	}
}

// streamBOMCSV writes one BOM snapshot as a CSV attachment, items first and a
// totals row last.
func streamBOMCSV(w http.ResponseWriter, p domain.Project, bom domain.BOMSnapshot) {
	filename := fmt.Sprintf("%s-bom-%d-%s.csv", p.Code, bom.Sequence, bom.GeneratedAt.UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"article_code", "description", "quantity", "unit_cost_excl_vat", "line_total_excl_vat", "estimated"}
	if err := writer.Write(header); err != nil {
		return
	}
	for _, item := range bom.Items {
		record := []string{
			item.ArticleCode,
			item.Description,
			formatFloat(item.Quantity),
			formatFloat(item.UnitCostExclVat),
			formatFloat(item.LineTotalExclVat),
			strconv.FormatBool(item.IsEstimated),
		}
		if err := writer.Write(record); err != nil {
			return
		}
	}
	totals := []string{
		"TOTAL",
		fmt.Sprintf("%s %s (%s)", string(bom.Status), bom.ConfigSnapshotID, bom.GeneratedAt.UTC().Format(time.RFC3339)),
		"",
		"",
		formatFloat(bom.TotalCostExclVat),
		"",
	}
	_ = writer.Write(totals)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
