package rtc

import (
	"fmt"
	"io"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"
)

// Bus is an I2C bus that can be closed.
type Bus interface {
	drivers.I2C
	io.Closer
}

// DS3231 is a Maxim DS3231 real-time clock. The chip keeps wall-clock fields
// without a zone; they are read back and written as local time.
type DS3231 struct {
	dev ds3231.Device
	bus Bus
}

// OpenDS3231 opens the DS3231 on the i2c-dev node at path (e.g. /dev/i2c-1)
// and verifies it answers.
func OpenDS3231(path string) (*DS3231, error) {
	bus, err := OpenI2C(path)
	if err != nil {
		return nil, err
	}
	c, err := NewDS3231(bus)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return c, nil
}

// NewDS3231 wraps a DS3231 on bus and verifies it answers.
func NewDS3231(bus Bus) (*DS3231, error) {
	c := &DS3231{
		dev: ds3231.New(bus),
		bus: bus,
	}
	if _, err := c.dev.ReadTime(); err != nil {
		return nil, fmt.Errorf("couldn't find rtc: %w", err)
	}
	return c, nil
}

// Now reads the calendar time.
func (c *DS3231) Now() (time.Time, error) {
	t, err := c.dev.ReadTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read rtc: %w", err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
}

// LostPower reports whether the oscillator-stop flag is set. A failed read is
// returned as an error, never as power loss, so a bus glitch cannot trigger a
// reseed of a clock that is still running.
func (c *DS3231) LostPower() (bool, error) {
	status := []byte{0}
	if err := c.bus.Tx(uint16(ds3231.Address), []byte{ds3231.REG_STATUS}, status); err != nil {
		return false, fmt.Errorf("read rtc status: %w", err)
	}
	return status[0]&(1<<ds3231.OSF) != 0, nil
}

// Adjust writes t, as local time, to the chip. The driver clears the
// oscillator-stop flag as part of the write.
func (c *DS3231) Adjust(t time.Time) error {
	if err := c.dev.SetTime(t.In(time.Local)); err != nil {
		return fmt.Errorf("set rtc: %w", err)
	}
	return nil
}

// Close releases the I2C bus.
func (c *DS3231) Close() error {
	return c.bus.Close()
}
