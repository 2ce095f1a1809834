package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// Document types stored on titles created from orders
const (
	DocumentTypeSalesOrder    = "pv"
	DocumentTypePurchaseOrder = "oc"
)

// PostingConfig holds the ledger settings used when posting orders
type PostingConfig struct {
	ReceivablePrefix string
	PayablePrefix    string
	OperationTimeout time.Duration
}

// DefaultPostingConfig returns the PV/OC prefixes and a 15 second timeout
func DefaultPostingConfig() PostingConfig {
	return PostingConfig{
		ReceivablePrefix: "PV",
		PayablePrefix:    "OC",
		OperationTimeout: 15 * time.Second,
	}
}

func (c PostingConfig) prefix(d finance.TitleDirection) string {
	if d == finance.TitleDirectionPayable {
		return c.PayablePrefix
	}
	return c.ReceivablePrefix
}

// OrderDirectionFor maps a title direction to the order direction it is posted from
func OrderDirectionFor(d finance.TitleDirection) trade.OrderDirection {
	if d == finance.TitleDirectionPayable {
		return trade.OrderDirectionPurchase
	}
	return trade.OrderDirectionSales
}

// DocumentNumberFor returns the trimmed order number, or <PREFIX>-<orderId>
// when the order has none.
func (c PostingConfig) DocumentNumberFor(order *trade.CommercialOrder, d finance.TitleDirection) string {
	if n := order.Number(); n != "" {
		return n
	}
	return fmt.Sprintf("%s-%s", c.prefix(d), order.ID)
}

// buildTitle derives title fields and lines from an order. today is used
// when the order carries no date.
func buildTitle(order *trade.CommercialOrder, d finance.TitleDirection, documentNumber string, today time.Time) (finance.TitleParams, []finance.LedgerTitleLine) {
	docDate := firstDate(today, order.DocumentDate, order.OrderDate)
	launchDate := firstDate(docDate, order.LaunchDate)
	dueDate := firstDate(docDate, order.DueDate)

	net := order.TotalAmount.Abs()
	lines := buildLines(order, net, documentNumber)

	// net is the order total and net = gross - discount on the header,
	// whatever the items add up to.
	discount, tax := decimal.Zero, decimal.Zero
	for _, l := range lines {
		discount = discount.Add(l.Discount)
		tax = tax.Add(l.Tax)
	}
	gross := net.Add(discount)

	docType := DocumentTypeSalesOrder
	verb := "Pedido"
	if d == finance.TitleDirectionPayable {
		docType = DocumentTypePurchaseOrder
		verb = "Compra"
	}
	note := strings.TrimSpace(order.Notes)
	if note == "" {
		note = fmt.Sprintf("%s %s (ID %s)", verb, documentNumber, order.ID)
	}

	return finance.TitleParams{
		TenantID:         order.TenantID,
		Direction:        d,
		SourceOrderID:    order.ID,
		CounterpartyID:   order.CounterpartyID,
		CounterpartyName: order.CounterpartyName,
		DocumentNumber:   documentNumber,
		DocumentType:     docType,
		IssueDate:        docDate,
		LaunchDate:       launchDate,
		DueDate:          dueDate,
		GrossAmount:      gross,
		DiscountAmount:   discount,
		TaxAmount:        tax,
		NetAmount:        net,
		Note:             note,
		CategoryID:       order.CategoryID,
		ProfitCenterID:   order.ProfitCenterID,
		BranchID:         order.BranchID,
		BusinessUnitID:   order.BusinessUnitID,
	}, lines
}

func buildLines(order *trade.CommercialOrder, net decimal.Decimal, documentNumber string) []finance.LedgerTitleLine {
	one := decimal.NewFromInt(1)

	if len(order.Items) == 0 {
		desc := strings.TrimSpace(order.Description)
		if desc == "" {
			desc = "Total " + documentNumber
		}
		return []finance.LedgerTitleLine{{
			LineType:       finance.LineTypeSynthetic,
			Description:    desc,
			Quantity:       one,
			UnitValue:      net,
			GrossValue:     net,
			Discount:       decimal.Zero,
			Tax:            decimal.Zero,
			NetValue:       net,
			BusinessUnitID: order.BusinessUnitID,
		}}
	}

	lines := make([]finance.LedgerTitleLine, 0, len(order.Items))
	for i, it := range order.Items {
		q := decimal.Max(one, it.Quantity)
		unit := it.UnitPrice.Abs()
		gross := q.Mul(unit)
		if gross.IsZero() && it.Total != nil {
			gross = it.Total.Abs()
		}
		discount := it.Discount.Abs()
		lineNet := gross.Sub(discount)
		if it.Total != nil {
			lineNet = it.Total.Abs()
		}
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = fmt.Sprintf("Item %d", i+1)
		}

		lines = append(lines, finance.LedgerTitleLine{
			LineType:           finance.LineTypeItem,
			Description:        desc,
			Quantity:           q,
			UnitValue:          unit,
			GrossValue:         gross,
			Discount:           discount,
			Tax:                it.Tax.Abs(),
			NetValue:           lineNet,
			ProductOrServiceID: it.ProductOrServiceID,
			BusinessUnitID:     order.BusinessUnitID,
		})
	}
	return lines
}

func firstDate(fallback time.Time, candidates ...*time.Time) time.Time {
	for _, c := range candidates {
		if c != nil && !c.IsZero() {
			return finance.DateOnly(*c)
		}
	}
	return finance.DateOnly(fallback)
}
