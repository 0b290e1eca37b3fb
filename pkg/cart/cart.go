// Package cart implements the session cart as a plain value. Every operation
// returns a new Cart and leaves its input untouched, so callers load, mutate
// and save explicitly.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/example/artshop/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	ErrUnavailableProduct = errors.New("this print is currently unavailable")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 100")
)

// MaxQuantity caps the copies of one print a cart may hold.
const MaxQuantity = 100

// Entry is the snapshot of a print taken when it was first added.
type Entry struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Title    string          `json:"title"`
	Slug     string          `json:"slug"`
}

// MarshalJSON writes the price with two fixed decimals, e.g. "10.00".
func (e Entry) MarshalJSON() ([]byte, error) {
	type wire struct {
		Quantity int    `json:"quantity"`
		Price    string `json:"price"`
		Title    string `json:"title"`
		Slug     string `json:"slug"`
	}
	return json.Marshal(wire{
		Quantity: e.Quantity,
		Price:    e.Price.StringFixed(2),
		Title:    e.Title,
		Slug:     e.Slug,
	})
}

func (e Entry) Subtotal() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Cart maps print ids to entries.
type Cart map[uint]Entry

// Store persists carts per browser session. A missing cart loads as empty.
type Store interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
	Clear(ctx context.Context, sessionID string) error
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	for id, e := range c {
		out[id] = e
	}
	return out
}

// IDs returns the print ids in ascending order.
func (c Cart) IDs() []uint {
	ids := make([]uint, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Add puts qty copies of p into the cart. An existing entry keeps its first
// price snapshot and only gains quantity.
func Add(c Cart, p *models.ArtPrint, qty int) (Cart, error) {
	if !p.IsAvailable {
		return c, ErrUnavailableProduct
	}
	if qty < 1 || qty > MaxQuantity {
		return c, ErrInvalidQuantity
	}

	out := c.clone()
	if e, ok := out[p.ID]; ok {
		if qty > MaxQuantity-e.Quantity {
			return c, ErrInvalidQuantity
		}
		e.Quantity += qty
		out[p.ID] = e
		return out, nil
	}
	out[p.ID] = Entry{
		Quantity: qty,
		Price:    p.Price,
		Title:    p.Title,
		Slug:     p.Slug,
	}
	return out, nil
}

func Remove(c Cart, id uint) Cart {
	out := c.clone()
	delete(out, id)
	return out
}

// UpdateQuantity overwrites the quantity of id. A quantity below one removes
// the entry; an unknown id is ignored.
func UpdateQuantity(c Cart, id uint, qty int) (Cart, error) {
	if qty < 1 {
		return Remove(c, id), nil
	}
	if qty > MaxQuantity {
		return c, ErrInvalidQuantity
	}
	out := c.clone()
	if e, ok := out[id]; ok {
		e.Quantity = qty
		out[id] = e
	}
	return out, nil
}

func Total(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, e := range c {
		total = total.Add(e.Subtotal())
	}
	return total
}

// Count is the number of items, not distinct prints.
func Count(c Cart) int {
	n := 0
	for _, e := range c {
		n += e.Quantity
	}
	return n
}

// ReconcileStale drops entries whose print no longer exists. The dropped ids
// are returned for logging.
func ReconcileStale(c Cart, exists func(id uint) bool) (Cart, []uint) {
	out := make(Cart, len(c))
	var pruned []uint
	for _, id := range c.IDs() {
		if exists(id) {
			out[id] = c[id]
			continue
		}
		pruned = append(pruned, id)
	}
	return out, pruned
}
