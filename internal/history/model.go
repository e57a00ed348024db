package history

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

var (
	ErrNotFound    = errors.New("history: entry not found")
	ErrInvalidSort = errors.New("history: invalid sort")
)

// Sort orders history listings.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortQuoteAsc  Sort = "quote-asc"
	SortQuoteDesc Sort = "quote-desc"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// ParseSort maps a query value to a Sort. An empty value means newest first.
func ParseSort(v string) (Sort, error) {
	switch s := Sort(v); s {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortQuoteAsc, SortQuoteDesc:
		return s, nil
	default:
		return "", ErrInvalidSort
	}
}

// Entry is one archived quotation: listing metadata plus the payload it was rendered from.
// The rendered PDF is stored alongside and loaded separately.
type Entry struct {
	ID           uuid.UUID         `json:"id"`
	QuoteNumber  string            `json:"quote_number"`
	QuoteDate    string            `json:"date"`
	CompanyName  string            `json:"company_name"`
	CustomerName string            `json:"customer_name"`
	GrandTotal   float64           `json:"grand_total"`
	PageCount    int               `json:"page_count"`
	Filename     string            `json:"filename"`
	Checksum     string            `json:"checksum"`
	Truncated    bool              `json:"truncated"`
	CreatedAt    time.Time         `json:"created_at"`
	Payload      quotation.Request `json:"payload"`
}

// Filter narrows a listing. Query matches quote number, date, company name and customer name.
type Filter struct {
	Query  string
	Sort   Sort
	Limit  int
	Offset int
}

func (f Filter) normalized() Filter {
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
