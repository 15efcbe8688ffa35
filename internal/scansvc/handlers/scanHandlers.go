package handlers

import (
	"net/http"
)

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "from")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	scans, err := h.scans.ListScans(r.Context(), r.URL.Query().Get("status"), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "scans", scans)
}

func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	scan, err := h.scans.StartScan(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "scan started", Code: http.StatusCreated, Data: scan})
}

func (h *Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	scan, err := h.scans.GetScan(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "scan", scan)
}

func (h *Handler) GetScanResults(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	res, err := h.scans.GetScanSummary(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "scan results", res)
}

func (h *Handler) GetScanSkus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	totals, err := h.scans.GetSkuTotals(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "sku totals", totals)
}

func (h *Handler) ListScanPallets(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	pallets, err := h.scans.ListPallets(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "pallets", pallets)
}

func (h *Handler) FinishScan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	scan, err := h.scans.FinishScan(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "scan finished", scan)
}

func (h *Handler) ReopenScan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	scan, err := h.scans.ReopenScan(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "scan reopened", scan)
}

func (h *Handler) DeleteScan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.scans.DeleteScan(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "scan deleted", nil)
}
