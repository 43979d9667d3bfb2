package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFiles = map[invoicing.Template]string{
	invoicing.TemplateEnglish: "templates/invoice_english.html",
	invoicing.TemplateArabic:  "templates/invoice_arabic.html",
}

// Labels are the fixed captions printed on an invoice
type Labels struct {
	Title       string
	Number      string
	BillTo      string
	IssueDate   string
	DueDate     string
	Status      string
	Description string
	Quantity    string
	UnitPrice   string
	LineTotal   string
	Subtotal    string
	Tax         string
	Total       string
	Paid        string
	BalanceDue  string
	Notes       string
	TaxID       string
	QRCaption   string
}

type locale struct {
	tag        language.Tag
	dir        string
	dateLayout string
	labels     Labels
	statuses   map[invoicing.InvoiceStatus]string
}

var locales = map[invoicing.Template]locale{
	invoicing.TemplateEnglish: {
		tag:        language.English,
		dir:        "ltr",
		dateLayout: "02 Jan 2006",
		labels: Labels{
			Title:       "INVOICE",
			Number:      "Invoice #",
			BillTo:      "Bill To",
			IssueDate:   "Invoice Date",
			DueDate:     "Due Date",
			Status:      "Status",
			Description: "Description",
			Quantity:    "Qty",
			UnitPrice:   "Unit Price",
			LineTotal:   "Total",
			Subtotal:    "Subtotal",
			Tax:         "Tax",
			Total:       "Total",
			Paid:        "Paid",
			BalanceDue:  "Balance Due",
			Notes:       "Notes",
			TaxID:       "VAT",
			QRCaption:   "Compliance QR Code",
		},
	},
	invoicing.TemplateArabic: {
		tag:        language.Arabic,
		dir:        "rtl",
		dateLayout: "2006-01-02",
		labels: Labels{
			Title:       "فاتورة ضريبية",
			Number:      "رقم الفاتورة",
			BillTo:      "فاتورة إلى",
			IssueDate:   "تاريخ الفاتورة",
			DueDate:     "تاريخ الاستحقاق",
			Status:      "الحالة",
			Description: "الوصف",
			Quantity:    "الكمية",
			UnitPrice:   "سعر الوحدة",
			LineTotal:   "المجموع",
			Subtotal:    "المجموع الفرعي",
			Tax:         "ضريبة القيمة المضافة",
			Total:       "الإجمالي",
			Paid:        "المدفوع",
			BalanceDue:  "الرصيد المستحق",
			Notes:       "ملاحظات",
			TaxID:       "الرقم الضريبي",
			QRCaption:   "رمز الاستجابة السريعة",
		},
		statuses: map[invoicing.InvoiceStatus]string{
			invoicing.InvoiceStatusDraft:     "مسودة",
			invoicing.InvoiceStatusSent:      "مرسلة",
			invoicing.InvoiceStatusPaid:      "مدفوعة",
			invoicing.InvoiceStatusOverdue:   "متأخرة",
			invoicing.InvoiceStatusCancelled: "ملغاة",
		},
	},
}

// InvoiceDocument is everything printed on one invoice
type InvoiceDocument struct {
	Invoice *invoicing.Invoice
	Seller  *identity.Tenant
	// CompliancePayload is encoded into the QR code; empty omits it
	CompliancePayload string
}

type partyView struct {
	Name    string
	Email   string
	Phone   string
	Address string
	TaxID   string
}

type itemView struct {
	Name        string
	Description string
	Quantity    string
	UnitPrice   string
	Total       string
}

type invoiceView struct {
	Lang       string
	Dir        string
	Labels     Labels
	Number     string
	IssueDate  string
	DueDate    string
	Status     string
	Seller     partyView
	Client     partyView
	Items      []itemView
	Subtotal   string
	TaxRate    string
	TaxAmount  string
	Total      string
	Paid       string
	BalanceDue string
	HasPayment bool
	Notes      string
	QRCode     template.URL
}

// DocumentOption configures a DocumentRenderer
type DocumentOption func(*DocumentRenderer)

// WithQRSize sets the QR code edge length in pixels
func WithQRSize(px int) DocumentOption {
	return func(r *DocumentRenderer) {
		if px > 0 {
			r.qrSize = px
		}
	}
}

// WithDefaultTemplate sets the layout used when an invoice has none
func WithDefaultTemplate(t invoicing.Template) DocumentOption {
	return func(r *DocumentRenderer) {
		if t.IsValid() {
			r.defaultTemplate = t
		}
	}
}

// DocumentRenderer fills the invoice HTML layouts
type DocumentRenderer struct {
	templates       map[invoicing.Template]*template.Template
	qrSize          int
	defaultTemplate invoicing.Template
}

// NewDocumentRenderer parses the embedded layouts
func NewDocumentRenderer(opts ...DocumentOption) (*DocumentRenderer, error) {
	r := &DocumentRenderer{
		templates:       make(map[invoicing.Template]*template.Template, len(templateFiles)),
		qrSize:          DefaultQRSize,
		defaultTemplate: invoicing.TemplateEnglish,
	}
	for _, opt := range opts {
		opt(r)
	}

	for name, file := range templateFiles {
		tmpl, err := template.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s layout: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// RenderInvoice returns the invoice as a standalone HTML page
func (r *DocumentRenderer) RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	if doc.Invoice == nil || doc.Seller == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "invoice and seller are required", nil)
	}

	layout := r.layoutFor(doc.Invoice)
	view, err := r.view(doc, locales[layout])
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.templates[layout].Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to execute invoice layout", err)
	}
	return buf.Bytes(), nil
}

// Title returns the document title used for PDF metadata and file names
func (r *DocumentRenderer) Title(inv *invoicing.Invoice) string {
	return locales[r.layoutFor(inv)].labels.Title + " " + inv.InvoiceNumber
}

func (r *DocumentRenderer) layoutFor(inv *invoicing.Invoice) invoicing.Template {
	if _, ok := r.templates[inv.Template]; ok {
		return inv.Template
	}
	return r.defaultTemplate
}

func (r *DocumentRenderer) view(doc InvoiceDocument, loc locale) (*invoiceView, error) {
	inv, seller := doc.Invoice, doc.Seller
	p := message.NewPrinter(loc.tag)
	amount := func(d decimal.Decimal) string {
		return p.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
	}

	view := &invoiceView{
		Lang:      loc.tag.String(),
		Dir:       loc.dir,
		Labels:    loc.labels,
		Number:    inv.InvoiceNumber,
		IssueDate: inv.IssueDate().Format(loc.dateLayout),
		DueDate:   inv.DueDate.Format(loc.dateLayout),
		Status:    statusLabel(loc, inv.Status),
		Seller: partyView{
			Name:    seller.Name,
			Email:   seller.Email,
			Phone:   seller.Phone,
			Address: seller.Address,
			TaxID:   seller.TaxID,
		},
		Client: partyView{
			Name:    inv.Client.Name,
			Email:   inv.Client.Email,
			Address: inv.Client.Address,
			TaxID:   inv.Client.TaxID,
		},
		Items:      make([]itemView, 0, len(inv.Items)),
		Subtotal:   amount(inv.Subtotal),
		TaxRate:    p.Sprint(number.Decimal(inv.TaxRate.InexactFloat64(), number.MaxFractionDigits(2))),
		TaxAmount:  amount(inv.TaxAmount),
		Total:      amount(inv.Total),
		Paid:       amount(inv.AmountPaid()),
		BalanceDue: amount(inv.BalanceDue()),
		HasPayment: inv.AmountPaid().IsPositive(),
		Notes:      inv.Notes,
	}

	for _, item := range inv.Items {
		view.Items = append(view.Items, itemView{
			Name:        item.Name,
			Description: item.Description,
			Quantity:    p.Sprint(number.Decimal(item.Quantity.InexactFloat64(), number.MaxFractionDigits(4))),
			UnitPrice:   amount(item.UnitPrice),
			Total:       amount(item.Total),
		})
	}

	if inv.IncludeQR && doc.CompliancePayload != "" {
		uri, err := QRCodeDataURI(doc.CompliancePayload, r.qrSize)
		if err != nil {
			return nil, err
		}
		view.QRCode = uri
	}
	return view, nil
}

func statusLabel(loc locale, status invoicing.InvoiceStatus) string {
	if label, ok := loc.statuses[status]; ok {
		return label
	}
	return cases.Title(loc.tag).String(string(status))
}
