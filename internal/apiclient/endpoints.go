package apiclient

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"github.com/maghrebglobal/backoffice/internal/models"
	"github.com/maghrebglobal/backoffice/internal/pdf"
)

// Remote endpoints.
const (
	EndpointClients         = "clients.php"
	EndpointAddClient       = "add_client.php"
	EndpointDeleteClient    = "delete_client.php"
	EndpointProducts        = "produits.php"
	EndpointAddProduct      = "add_produit.php"
	EndpointUpdateProduct   = "update_produit.php"
	EndpointDeleteProduct   = "delete_produit.php"
	EndpointAddInvoice      = "add_facture.php"
	EndpointAddDelivery     = "add_bl.php"
	EndpointInvoicePDF      = "generate_facture_pdf.php"
	EndpointDeliverySlipPDF = "generate_bl_pdf.php"
)

// ID is an identifier the API sends either as a number or as a string.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	var p models.ProductID
	if err := p.UnmarshalJSON(b); err != nil {
		return err
	}
	*id = ID(p)
	return nil
}

// ClientInput is the payload of add_client.php.
type ClientInput struct {
	Name    string `json:"name"`
	ICE     string `json:"ice"`
	Phone   string `json:"telephone"`
	Address string `json:"adresse"`
}

// ProductInput is the payload of add_produit.php and update_produit.php.
type ProductInput struct {
	ID      models.ProductID `json:"id,omitempty"`
	Name    string           `json:"nom"`
	PriceHT float64          `json:"prix_ht"`
	Format  *string          `json:"format"`
}

// DocumentLine is one line of a document creation request.
type DocumentLine struct {
	ProductID models.ProductID `json:"produit_id"`
	Quantity  int              `json:"quantite"`
}

// DocumentRequest is the payload of add_facture.php and add_bl.php.
type DocumentRequest struct {
	ClientID string         `json:"client_id"`
	Lines    []DocumentLine `json:"lignes"`
}

// DocumentCreated is the API answer to a document creation. Number is
// empty when the API did not return one.
type DocumentCreated struct {
	ID     string
	Number string
}

type remoteClient struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	ICE       string `json:"ice"`
	Phone     string `json:"telephone"`
	Address   string `json:"adresse"`
	CreatedAt string `json:"created_at"`
}

// ListClients fetches the client directory. A non-array answer yields an
// empty list.
func (c *Client) ListClients(ctx context.Context) ([]*models.Client, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, EndpointClients, &raw); err != nil {
		return nil, err
	}
	var rows []remoteClient
	if !isArray(raw) {
		return []*models.Client{}, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode clients"), ErrDecode)
	}
	out := make([]*models.Client, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.Client{
			ID:        string(r.ID),
			Name:      r.Name,
			ICE:       r.ICE,
			Phone:     r.Phone,
			Address:   r.Address,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// AddClient registers a new client.
func (c *Client) AddClient(ctx context.Context, in ClientInput) error {
	return c.Post(ctx, EndpointAddClient, in, nil)
}

// DeleteClient removes a client remotely.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.Post(ctx, EndpointDeleteClient, map[string]string{"id": id}, nil)
}

// ListProducts fetches the catalog. A non-array answer yields an empty list.
func (c *Client) ListProducts(ctx context.Context) ([]*models.Product, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, EndpointProducts, &raw); err != nil {
		return nil, err
	}
	if !isArray(raw) {
		return []*models.Product{}, nil
	}
	var out []*models.Product
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode products"), ErrDecode)
	}
	return out, nil
}

// SaveProduct adds a product, or updates it when in.ID is set.
func (c *Client) SaveProduct(ctx context.Context, in ProductInput) error {
	endpoint := EndpointAddProduct
	if in.ID != "" {
		endpoint = EndpointUpdateProduct
	}
	return c.Post(ctx, endpoint, in, nil)
}

// DeleteProduct removes a product. The API answers 409 (ErrConflict) when
// the product is still referenced by a document.
func (c *Client) DeleteProduct(ctx context.Context, id models.ProductID) error {
	return c.Post(ctx, EndpointDeleteProduct, map[string]models.ProductID{"id": id}, nil)
}

// CreateInvoice registers an invoice and returns its id and number.
func (c *Client) CreateInvoice(ctx context.Context, req DocumentRequest) (DocumentCreated, error) {
	var resp struct {
		ID     ID     `json:"id"`
		Number string `json:"facture_number"`
	}
	if err := c.Post(ctx, EndpointAddInvoice, req, &resp); err != nil {
		return DocumentCreated{}, err
	}
	return DocumentCreated{ID: string(resp.ID), Number: resp.Number}, nil
}

// CreateDeliverySlip registers a delivery slip and returns its id and number.
func (c *Client) CreateDeliverySlip(ctx context.Context, req DocumentRequest) (DocumentCreated, error) {
	var resp struct {
		ID     ID     `json:"id"`
		Number string `json:"bl_number"`
	}
	if err := c.Post(ctx, EndpointAddDelivery, req, &resp); err != nil {
		return DocumentCreated{}, err
	}
	return DocumentCreated{ID: string(resp.ID), Number: resp.Number}, nil
}

// DocumentPDF downloads the PDF generated remotely for doc and returns it
// with its download filename.
func (c *Client) DocumentPDF(ctx context.Context, doc *models.Document) ([]byte, string, error) {
	endpoint := EndpointInvoicePDF
	if doc.IsDeliverySlip() {
		endpoint = EndpointDeliverySlipPDF
	}
	data, err := c.DownloadPDF(ctx, withQuery(endpoint, "id", doc.ID))
	if err != nil {
		return nil, "", err
	}
	return data, pdf.Filename(doc), nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
