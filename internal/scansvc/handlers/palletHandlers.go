package handlers

import (
	"net/http"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
)

type createPalletRequest struct {
	ScanID       int64   `json:"scanId"`
	PalletNumber *string `json:"palletNumber"`
}

type renamePalletRequest struct {
	PalletNumber string `json:"palletNumber"`
}

func (h *Handler) CreatePallet(w http.ResponseWriter, r *http.Request) {
	var req createPalletRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.pallets.CreatePallet(r.Context(), req.ScanID, req.PalletNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "pallet created", Code: http.StatusCreated, Data: p})
}

func (h *Handler) GetPallet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	p, err := h.pallets.GetPallet(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "pallet", p)
}

func (h *Handler) RenamePallet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	var req renamePalletRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.pallets.RenamePallet(r.Context(), id, req.PalletNumber)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "pallet updated", p)
}

func (h *Handler) DeletePallet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.pallets.DeletePallet(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "pallet deleted", nil)
}

func (h *Handler) ListPalletSkus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	lines, err := h.skus.ListSkuLines(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "sku lines", lines)
}

// recordScanRequest carries either the scanned token or the two legacy fields.
type recordScanRequest struct {
	PalletID  int64  `json:"palletId"`
	ScanField string `json:"scanField"`
	SkuCode   string `json:"skuCode"`
	Quantity  string `json:"quantity"`
}

type recordScanResponse struct {
	Line    models.SkuLine `json:"line"`
	Outcome string         `json:"outcome"`
}

func (h *Handler) RecordScan(w http.ResponseWriter, r *http.Request) {
	var req recordScanRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		res scanning.MergeResult
		err error
	)
	if req.ScanField == "" && (req.SkuCode != "" || req.Quantity != "") {
		res, err = h.skus.RecordFields(r.Context(), req.PalletID, req.SkuCode, req.Quantity)
	} else {
		res, err = h.skus.RecordScan(r.Context(), req.PalletID, req.ScanField)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	code, message := http.StatusOK, "sku merged"
	if res.Outcome == scanning.Created {
		code, message = http.StatusCreated, "sku created"
	}
	h.CreateResponse(w, Response{
		Message: message,
		Code:    code,
		Data:    recordScanResponse{Line: res.Line, Outcome: res.Outcome.String()},
	})
}

func (h *Handler) GetSkuLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	l, err := h.skus.GetSkuLine(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "sku line", l)
}

func (h *Handler) DeleteSkuLine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r)
	if !ok {
		return
	}
	if err := h.skus.DeleteSkuLine(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.ok(w, "sku line deleted", nil)
}
