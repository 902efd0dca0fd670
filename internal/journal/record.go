// Package journal keeps an append-only CBOR log of timer transitions so a
// device's history survives restarts and can be inspected offline.
package journal

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/sweeney/countdown-timer/internal/logic"
)

// Record is one journaled timer transition.
// CBOR encoding uses integer keys for compactness.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	BootID    string    `cbor:"2,keyasint"`
	Type      string    `cbor:"3,keyasint"`
	Channel   string    `cbor:"4,keyasint,omitempty"`
	Seconds   uint32    `cbor:"5,keyasint,omitempty"`
	Previous  string    `cbor:"6,keyasint,omitempty"`
	Status    string    `cbor:"7,keyasint"`
	Reason    string    `cbor:"8,keyasint,omitempty"`
}

// FromEvent builds a record from a timer event.
func FromEvent(bootID string, ev logic.Event) Record {
	return Record{
		Timestamp: ev.Timestamp,
		BootID:    bootID,
		Type:      string(ev.Type),
		Channel:   ev.Channel,
		Seconds:   ev.Seconds,
		Previous:  string(ev.Previous),
		Status:    string(ev.Status),
	}
}

// String renders the record as one human-readable line.
func (r Record) String() string {
	s := fmt.Sprintf("%s %s %s", r.Timestamp.Format(time.RFC3339), r.BootID, r.Type)
	if r.Channel != "" {
		s += " channel=" + r.Channel
	}
	if r.Seconds != 0 {
		s += fmt.Sprintf(" seconds=%d", r.Seconds)
	}
	if r.Previous != "" {
		s += fmt.Sprintf(" %s->%s", r.Previous, r.Status)
	}
	if r.Reason != "" {
		s += " reason=" + r.Reason
	}
	return s
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("journal: cbor encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("journal: cbor decoder mode: %v", err))
	}
}

// Encode encodes a record to CBOR bytes.
func Encode(r Record) ([]byte, error) {
	return encMode.Marshal(r)
}

// Decode decodes CBOR bytes into a record.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := decMode.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func newEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

func newDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}
