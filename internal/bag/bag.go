// Package bag models a player's bag: an ordered list of slots that each
// reference a catalog disc and carry the processed photo, the plastic, the
// color and a shop link. A bag round-trips through a shareable URL whose
// fragment holds the bag as URI-component-encoded JSON.
package bag

import (
	"errors"
	"fmt"

	"github.com/ironsheep/disc-photo-mcp/internal/pipeline"
)

// DefaultSize is the number of slots in a new bag.
const DefaultSize = 12

var (
	// ErrSlotIndex is returned for an index outside the bag.
	ErrSlotIndex = errors.New("slot index out of range")

	// ErrLastSlot is returned when removing the only remaining slot.
	ErrLastSlot = errors.New("a bag keeps at least one slot")
)

// Slot is one position in the bag. Nil fields are unset; the JSON form
// writes them as null.
type Slot struct {
	DiscID  *int    `json:"discId"`
	Photo   *string `json:"photo"`
	Plastic *string `json:"plastic"`
	Color   *string `json:"color"`
	Link    *string `json:"link"`
}

// Empty reports whether no disc is selected.
func (s Slot) Empty() bool {
	return s.DiscID == nil
}

// Bag is a named list of slots.
type Bag struct {
	Slots []Slot `json:"bag"`
	Name  string `json:"name"`
}

// New returns a bag with size empty slots, or DefaultSize when size is not
// positive.
func New(size int) *Bag {
	if size <= 0 {
		size = DefaultSize
	}
	return &Bag{Slots: make([]Slot, size)}
}

// Len returns the number of slots.
func (b *Bag) Len() int {
	return len(b.Slots)
}

// AddSlot appends an empty slot.
func (b *Bag) AddSlot() {
	b.Slots = append(b.Slots, Slot{})
}

// RemoveLastSlot drops the last slot.
func (b *Bag) RemoveLastSlot() error {
	if len(b.Slots) <= 1 {
		return ErrLastSlot
	}
	b.Slots = b.Slots[:len(b.Slots)-1]
	return nil
}

// Slot returns a pointer to slot i for in-place updates.
func (b *Bag) Slot(i int) (*Slot, error) {
	if i < 0 || i >= len(b.Slots) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSlotIndex, i, len(b.Slots))
	}
	return &b.Slots[i], nil
}

// SelectDisc sets the disc of slot i and keeps its other fields.
func (b *Bag) SelectDisc(i, discID int) error {
	s, err := b.Slot(i)
	if err != nil {
		return err
	}
	s.DiscID = &discID
	return nil
}

// Clear resets slot i to empty.
func (b *Bag) Clear(i int) error {
	s, err := b.Slot(i)
	if err != nil {
		return err
	}
	*s = Slot{}
	return nil
}

// SetPlastic sets or, with an empty string, unsets the plastic of slot i.
func (b *Bag) SetPlastic(i int, plastic string) error {
	return b.setField(i, plastic, func(s *Slot) **string { return &s.Plastic })
}

// SetLink sets or, with an empty string, unsets the shop link of slot i.
func (b *Bag) SetLink(i int, link string) error {
	return b.setField(i, link, func(s *Slot) **string { return &s.Link })
}

// SetColor sets or, with an empty string, unsets the color of slot i.
func (b *Bag) SetColor(i int, color string) error {
	return b.setField(i, color, func(s *Slot) **string { return &s.Color })
}

func (b *Bag) setField(i int, value string, field func(*Slot) **string) error {
	s, err := b.Slot(i)
	if err != nil {
		return err
	}
	if value == "" {
		*field(s) = nil
		return nil
	}
	*field(s) = &value
	return nil
}

// ApplyResult stores a processed photo in slot i: the cropped image (or the
// original reference on fallback) as the photo and the dominant color as the
// color.
func (b *Bag) ApplyResult(i int, r *pipeline.Result) error {
	s, err := b.Slot(i)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}
	photo, color := r.CroppedImageData, r.DominantColorHex
	s.Photo = &photo
	s.Color = &color
	return nil
}
