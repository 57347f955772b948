package domain

import "errors"

var ErrCatalogEmpty = errors.New("wish catalog must contain at least one entry")

// defaultWishes is the built-in catalog, in the original bot's language.
var defaultWishes = []string{
	"Сегодня хороший день, чтобы позволить себе спокойствие.",
	"Пусть сегодняшнее утро начнётся мягко.",
	"Иногда достаточно одного шага, и этого уже достаточно.",
	"Внутри всегда больше сил, чем кажется.",
	"Этот день может принести что-то хорошее.",
	"Пусть сегодня будет немного света.",
	"Хорошие перемены приходят постепенно.",
	"Можно замедлиться и позволить себе передышку.",
	"Сегодня подойдёт для чего-то приятного.",
	"Пусть мысли становятся мягче, а сердце теплее.",
	"Путь продолжается, даже если шаги маленькие.",
	"Можно опереться на то, что уже есть.",
	"Пусть этот день будет чуть легче.",
	"Всё нужное уже рядом.",
	"Пусть сегодня получится найти что-то доброе.",
}

// Catalog is an immutable ordered set of wish texts.
type Catalog struct {
	wishes []string
}

func NewCatalog(wishes []string) (*Catalog, error) {
	if len(wishes) == 0 {
		return nil, ErrCatalogEmpty
	}
	owned := make([]string, len(wishes))
	copy(owned, wishes)
	return &Catalog{wishes: owned}, nil
}

// DefaultCatalog returns the built-in wish list.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(defaultWishes)
	return c
}

func (c *Catalog) Size() int {
	return len(c.wishes)
}

func (c *Catalog) At(index int) string {
	return c.wishes[index]
}

// ForDate picks the wish for a calendar date deterministically: the epoch
// day modulo catalog size. Consecutive days always land on different
// entries (when the catalog has more than one), and every entry comes up
// as days cycle through the residues.
func (c *Catalog) ForDate(d Date) string {
	idx := d.EpochDays() % len(c.wishes)
	if idx < 0 {
		idx += len(c.wishes)
	}
	return c.wishes[idx]
}
