package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice/export"
	"github.com/invoicely/invoicely/internal/platform/httpx"
	"github.com/invoicely/invoicely/internal/shared"
	"github.com/invoicely/invoicely/internal/view"
)

// PDFSource produces the PDF for an invoice; satisfied by *PDFRenderer.
type PDFSource interface {
	Render(ctx context.Context, inv Invoice, totals Totals, loc i18n.Locale) (export.Document, bool, error)
}

// Handler serves the dashboard, the invoice editor, the PDF download and the JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pdf       PDFSource
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pdf PDFSource, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pdf: pdf, templates: templates, csrf: csrf}
}

// MountRoutes registers page routes on a locale-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showDashboard)
	r.Post("/invoices", h.handleCreate)
	r.Get("/invoices/{id}", h.showInvoice)
	r.Post("/invoices/{id}", h.handleUpdate)
	r.Post("/invoices/{id}/delete", h.handleDelete)
	r.Get("/invoices/{id}/pdf", h.downloadPDF)
}

// MountAPI registers the JSON endpoints.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/", h.apiList)
	r.Get("/{id}", h.apiGet)
}

type dashboardData struct {
	Invoices []Invoice
	Name     string
	Errors   map[string]string
}

type invoicePageData struct {
	Invoice  *Invoice
	Form     UpdateInput
	Errors   map[string]string
	Preview  Preview
	PDFPath  string
	Filename string
}

func (h *Handler) showDashboard(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	invoices, err := h.service.List(r.Context(), owner)
	if err != nil {
		h.fail(w, r, "list invoices", err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/dashboard.html", "Dashboard.title", dashboardData{Invoices: invoices})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	msgs := i18n.MessagesFromContext(r.Context())
	name := r.PostFormValue("name")
	inv, err := h.service.Create(r.Context(), owner, name)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			invoices, _ := h.service.List(r.Context(), owner)
			h.render(w, r, http.StatusBadRequest, "pages/dashboard.html", "Dashboard.title", dashboardData{
				Invoices: invoices,
				Name:     name,
				Errors:   map[string]string{"Name": msgs.Get("Errors.validation")},
			})
			return
		}
		h.fail(w, r, "create invoice", err)
		return
	}
	h.flash(r, "success", msgs.Get("Dashboard.created"))
	http.Redirect(w, r, h.invoicePath(r, inv.ID), http.StatusSeeOther)
}

func (h *Handler) showInvoice(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	inv, totals, err := h.service.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	h.renderInvoice(w, r, http.StatusOK, inv, totals, formFromInvoice(*inv), nil)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	msgs := i18n.MessagesFromContext(r.Context())
	in, parseErrs := parseUpdateForm(r)

	var updated *Invoice
	var err error
	if len(parseErrs) == 0 {
		updated, err = h.service.Update(r.Context(), owner, id, in)
	}
	var verr *ValidationError
	if len(parseErrs) > 0 || errors.As(err, &verr) {
		fields := parseErrs
		if verr != nil {
			fields = verr.Fields
		}
		inv, totals, getErr := h.service.Get(r.Context(), owner, id)
		if getErr != nil {
			h.fail(w, r, "get invoice", getErr)
			return
		}
		errs := make(map[string]string, len(fields))
		for field := range fields {
			errs[field] = msgs.Get("Errors.validation")
		}
		h.renderInvoice(w, r, http.StatusBadRequest, inv, totals, in, errs)
		return
	}
	if err != nil {
		h.fail(w, r, "update invoice", err)
		return
	}
	h.flash(r, "success", msgs.Get("Form.saved"))
	http.Redirect(w, r, h.invoicePath(r, updated.ID), http.StatusSeeOther)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete invoice", err)
		return
	}
	h.flash(r, "success", i18n.MessagesFromContext(r.Context()).Get("Dashboard.deleted"))
	http.Redirect(w, r, "/"+string(i18n.LocaleFromContext(r.Context())), http.StatusSeeOther)
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	inv, totals, err := h.service.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	loc := i18n.LocaleFromContext(r.Context())
	doc, cached, err := h.pdf.Render(r.Context(), *inv, totals, loc)
	if err != nil {
		h.logger.Error("export invoice pdf",
			slog.String("invoice_id", inv.ID),
			slog.String("locale", string(loc)),
			slog.Any("error", err))
		h.exportFailed(w, r, inv, totals)
		return
	}
	h.logger.Debug("export invoice pdf",
		slog.String("invoice_id", inv.ID),
		slog.Int("pages", doc.Pages),
		slog.Bool("cached", cached))

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": Filename(*inv)})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// exportFailed surfaces a failed export: a problem document for API clients,
// the invoice page with an error flash otherwise.
func (h *Handler) exportFailed(w http.ResponseWriter, r *http.Request, inv *Invoice, totals Totals) {
	msg := i18n.MessagesFromContext(r.Context()).Get("Invoice.exportFailed")
	if httpx.WantsJSON(r) {
		httpx.Problem(w, http.StatusBadGateway, "Export Failed", msg)
		return
	}
	h.flash(r, "error", msg)
	h.renderInvoice(w, r, http.StatusBadGateway, inv, totals, formFromInvoice(*inv), nil)
}

func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	owner, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	invoices, err := h.service.List(r.Context(), owner)
	if err != nil {
		h.logger.Error("api list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]summaryJSON, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, newSummaryJSON(inv))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": out})
}

func (h *Handler) apiGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	inv, totals, err := h.service.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("api get invoice", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceJSON(*inv, totals))
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/"+string(i18n.LocaleFromContext(r.Context()))+"/sign-in", http.StatusSeeOther)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, i18n.MessagesFromContext(r.Context()).Get("Errors.notFound"), http.StatusNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) flash(r *http.Request, kind, msg string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: msg})
	}
}

func (h *Handler) invoicePath(r *http.Request, id string) string {
	return "/" + string(i18n.LocaleFromContext(r.Context())) + "/invoices/" + id
}

func (h *Handler) renderInvoice(w http.ResponseWriter, r *http.Request, status int, inv *Invoice, totals Totals, form UpdateInput, errs map[string]string) {
	loc := i18n.LocaleFromContext(r.Context())
	h.render(w, r, status, "pages/invoice.html", "Invoice.title", invoicePageData{
		Invoice:  inv,
		Form:     form,
		Errors:   errs,
		Preview:  NewPreview(*inv, totals, loc),
		PDFPath:  h.invoicePath(r, inv.ID) + "/pdf",
		Filename: Filename(*inv),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, titleKey string, data any) {
	csrfToken, err := h.csrf.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("csrf token", slog.Any("error", err))
	}
	if err := h.templates.Render(w, status, name, view.PageData(r, csrfToken, titleKey, data)); err != nil {
		h.logger.Error("render invoice page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func formFromInvoice(inv Invoice) UpdateInput {
	in := UpdateInput{
		Name:          inv.Name,
		IssuerName:    inv.IssuerName,
		IssuerAddress: inv.IssuerAddress,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		InvoiceDate:   inv.InvoiceDate,
		DueDate:       inv.DueDate,
		VATActive:     inv.VATActive,
		VATRate:       inv.VATRate,
		Lines:         make([]LineInput, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		in.Lines = append(in.Lines, LineInput(l))
	}
	return in
}

// parseUpdateForm reads the editor form. Line fields are parallel arrays;
// rows left completely blank are dropped. Decimal commas are accepted.
func parseUpdateForm(r *http.Request) (UpdateInput, map[string]string) {
	errs := make(map[string]string)
	in := UpdateInput{
		Name:          r.PostFormValue("name"),
		IssuerName:    r.PostFormValue("issuer_name"),
		IssuerAddress: r.PostFormValue("issuer_address"),
		ClientName:    r.PostFormValue("client_name"),
		ClientAddress: r.PostFormValue("client_address"),
		VATActive:     r.PostFormValue("vat_active") != "",
	}
	var err error
	if in.InvoiceDate, err = parseDate(r.PostFormValue("invoice_date")); err != nil {
		errs["InvoiceDate"] = "date"
	}
	if in.DueDate, err = parseDate(r.PostFormValue("due_date")); err != nil {
		errs["DueDate"] = "date"
	}
	if raw := r.PostFormValue("vat_rate"); raw != "" {
		if in.VATRate, err = parseNumber(raw); err != nil {
			errs["VATRate"] = "number"
		}
	}

	descriptions := r.PostForm["line_description"]
	quantities := r.PostForm["line_quantity"]
	prices := r.PostForm["line_unit_price"]
	for i := range descriptions {
		line := LineInput{Description: descriptions[i]}
		qty, price := valueAt(quantities, i), valueAt(prices, i)
		if strings.TrimSpace(line.Description) == "" && qty == "" && price == "" {
			continue
		}
		idx := strconv.Itoa(len(in.Lines))
		if qty != "" {
			if line.Quantity, err = parseNumber(qty); err != nil {
				errs["Lines["+idx+"].Quantity"] = "number"
			}
		}
		if price != "" {
			if line.UnitPrice, err = parseNumber(price); err != nil {
				errs["Lines["+idx+"].UnitPrice"] = "number"
			}
		}
		in.Lines = append(in.Lines, line)
	}
	return in, errs
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

// parseNumber reads a decimal with either separator. Inf and NaN are rejected.
func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invoice: %q is not a finite number", raw)
	}
	return v, nil
}
