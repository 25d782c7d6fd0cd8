package sensorbus

import (
	"fmt"
	"strings"

	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/devices/v3/ds18b20"
)

// DS18B20Probe reads DS18B20 sensors on a 1-Wire bus.
type DS18B20Probe struct {
	bus        onewire.BusCloser
	resolution int
	devs       []*ds18b20.Dev
}

// OpenDS18B20 opens the named 1-Wire bus ("" for the first registered one).
// host.Init must have been called.
func OpenDS18B20(name string, resolutionBits int) (*DS18B20Probe, error) {
	if resolutionBits < 9 || resolutionBits > 12 {
		return nil, fmt.Errorf("invalid resolution %d bits, want 9..12", resolutionBits)
	}
	bus, err := onewirereg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening 1-wire bus %q: %w", name, err)
	}
	return &DS18B20Probe{bus: bus, resolution: resolutionBits}, nil
}

// Scan searches the bus and returns the address of every DS18B20 found.
func (p *DS18B20Probe) Scan() ([]string, error) {
	addrs, err := p.bus.Search(false)
	if err != nil {
		return nil, fmt.Errorf("searching 1-wire bus: %w", err)
	}

	p.devs = p.devs[:0]
	var out []string
	for _, a := range addrs {
		dev, err := ds18b20.New(p.bus, a, p.resolution)
		if err != nil {
			// Not a DS18B20 family device.
			continue
		}
		p.devs = append(p.devs, dev)
		out = append(out, FormatAddress(uint64(a)))
	}
	return out, nil
}

// ReadAll starts one conversion on every sensor and returns the results
// in scan order.
func (p *DS18B20Probe) ReadAll() []Result {
	results := make([]Result, len(p.devs))
	if err := ds18b20.ConvertAll(p.bus, p.resolution); err != nil {
		for i := range results {
			results[i].Err = fmt.Errorf("converting: %w", err)
		}
		return results
	}
	for i, dev := range p.devs {
		t, err := dev.LastTemp()
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].Celsius = t.Celsius()
	}
	return results
}

// Close releases the bus.
func (p *DS18B20Probe) Close() error {
	return p.bus.Close()
}

// FormatAddress renders a 1-Wire ROM code family byte first, two hex
// digits per byte.
func FormatAddress(rom uint64) string {
	var b strings.Builder
	b.Grow(16)
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&b, "%02x", byte(rom>>(8*i)))
	}
	return b.String()
}
