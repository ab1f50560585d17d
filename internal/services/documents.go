package services

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/maghrebglobal/backoffice/internal/apiclient"
	"github.com/maghrebglobal/backoffice/internal/billing"
	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/pdf"
	"github.com/maghrebglobal/backoffice/internal/trash"
	"github.com/maghrebglobal/backoffice/validation"
)

// Numbers used when the API does not return one.
const (
	FallbackInvoiceNumber  = "NO-REF"
	FallbackDeliveryNumber = "BL-TEMP"
)

// LineInput is a requested document line.
type LineInput struct {
	ProductID models.ProductID
	Quantity  int
}

// DocumentInput is a document creation request. Date defaults to today.
type DocumentInput struct {
	ClientID string
	Date     string
	Lines    []LineInput
}

// CreateInvoice validates the request, snapshots product names and prices,
// computes totals with the company VAT rate and registers the invoice.
func (b *Backoffice) CreateInvoice(ctx context.Context, in DocumentInput) (*models.Document, error) {
	return b.createDocument(ctx, models.DocTypeInvoice, in)
}

// CreateDeliverySlip is CreateInvoice for delivery slips, which carry no totals.
func (b *Backoffice) CreateDeliverySlip(ctx context.Context, in DocumentInput) (*models.Document, error) {
	return b.createDocument(ctx, models.DocTypeDeliverySlip, in)
}

func (b *Backoffice) createDocument(ctx context.Context, kind models.DocType, in DocumentInput) (*models.Document, error) {
	doc, err := b.draft(kind, in)
	if err != nil {
		return nil, err
	}

	req := apiclient.DocumentRequest{
		ClientID: doc.ClientID,
		Lines: lo.Map(doc.Items, func(it models.LineItem, _ int) apiclient.DocumentLine {
			return apiclient.DocumentLine{ProductID: it.ProductID, Quantity: it.Quantity}
		}),
	}
	var created apiclient.DocumentCreated
	if doc.IsInvoice() {
		created, err = b.api.CreateInvoice(ctx, req)
	} else {
		created, err = b.api.CreateDeliverySlip(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	doc.ID = created.ID
	if doc.ID == "" {
		doc.ID = b.newID()
	}
	doc.Number = created.Number
	if doc.Number == "" {
		doc.Number = FallbackInvoiceNumber
		if doc.IsDeliverySlip() {
			doc.Number = FallbackDeliveryNumber
		}
	}
	doc.Status = models.DocStatusValidated

	b.mu.Lock()
	docs := make([]*models.Document, 0, len(b.documents)+1)
	docs = append(docs, b.documents...)
	b.documents = append(docs, doc)
	snapshot := b.documents
	b.mu.Unlock()

	b.persistDocuments(ctx, snapshot)
	b.log.Info("document created",
		zap.String("type", string(doc.Type)),
		zap.String("number", doc.Number),
		zap.Float64("total_ttc", doc.TotalTTC))
	return doc, nil
}

// draft validates in against the active clients and products and builds the
// unsaved document.
func (b *Backoffice) draft(kind models.DocType, in DocumentInput) (*models.Document, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := validation.Violations{}
	clientID := strings.TrimSpace(in.ClientID)
	var client *models.Client
	if clientID == "" {
		v["client"] = "client_required"
	} else if c, ok := trash.Find(trash.ListActive(b.clients), clientID); ok {
		client = c
	} else {
		v["client"] = "unknown_client"
	}

	items := make([]models.LineItem, 0, len(in.Lines))
	switch {
	case len(in.Lines) == 0:
		v["items"] = "items_required"
	case lo.SomeBy(in.Lines, func(l LineInput) bool { return l.ProductID == "" }):
		v["items"] = "items_incomplete"
	default:
		active := trash.ListActive(b.products)
		for _, l := range in.Lines {
			if l.Quantity <= 0 {
				v["items"] = "must_be_positive"
				break
			}
			p, ok := trash.Find(active, l.ProductID)
			if !ok {
				v["items"] = "unknown_product"
				break
			}
			items = append(items, models.NewLineItem(p, l.Quantity))
		}
	}
	if !v.Empty() {
		return nil, &InvalidError{Violations: v}
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = b.now().Format("2006-01-02")
	}
	doc := &models.Document{
		Type:       kind,
		Date:       date,
		ClientID:   client.ID,
		ClientName: client.Name,
		Items:      items,
		Status:     models.DocStatusDraft,
	}
	totals := billing.DeliveryTotals()
	if kind == models.DocTypeInvoice {
		totals = billing.ComputeTotals(items, b.company.VATRate)
	}
	totals.Apply(doc)
	return doc, nil
}

// Document returns a document by id, trashed ones included.
func (b *Backoffice) Document(id string) (*models.Document, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.Find(b.documents, id)
}

// ActiveDocuments returns the documents outside the trash, oldest first.
func (b *Backoffice) ActiveDocuments() []*models.Document {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return trash.ListActive(b.documents)
}

// History lists active documents of one kind, newest first, narrowed by a
// search on number or client name.
func (b *Backoffice) History(kind models.DocType, term string) []*models.Document {
	term = strings.TrimSpace(term)
	docs := lo.Filter(b.ActiveDocuments(), func(d *models.Document, _ int) bool {
		if d.Type != kind {
			return false
		}
		return term == "" || containsFold(d.Number, term) || containsFold(d.ClientName, term)
	})
	return lo.Reverse(docs)
}

// TrashDocument moves a document to the trash.
func (b *Backoffice) TrashDocument(ctx context.Context, id string) error {
	b.mu.Lock()
	if _, ok := trash.Find(b.documents, id); !ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	b.documents = trash.SoftDelete(b.documents, id, b.now())
	snapshot := b.documents
	b.mu.Unlock()
	b.persistDocuments(ctx, snapshot)
	return nil
}

// RenderPDF renders a document locally.
func (b *Backoffice) RenderPDF(id string) ([]byte, string, error) {
	doc, ok := b.Document(id)
	if !ok {
		return nil, "", ErrNotFound
	}
	client, _ := b.Client(doc.ClientID)
	data, err := pdf.Render(doc, b.Company(), client)
	if err != nil {
		return nil, "", err
	}
	return data, pdf.Filename(doc), nil
}

// DocumentPDF downloads the PDF generated by the API and falls back to the
// local rendering when the download fails.
func (b *Backoffice) DocumentPDF(ctx context.Context, id string) ([]byte, string, error) {
	doc, ok := b.Document(id)
	if !ok {
		return nil, "", ErrNotFound
	}
	data, name, err := b.api.DocumentPDF(ctx, doc)
	if err == nil {
		return data, name, nil
	}
	b.log.Warn("remote pdf unavailable, rendering locally", zap.String("id", id), zap.Error(err))
	data, name, lerr := b.RenderPDF(id)
	if lerr != nil {
		return nil, "", errors.CombineErrors(err, lerr)
	}
	return data, name, nil
}
