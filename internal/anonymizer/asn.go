package anonymizer

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// ASNInfo is the owning network organization of an address.
type ASNInfo struct {
	Number       uint
	Organization string
}

// ASNDatabase resolves addresses to their autonomous-system organization
// using a local offline database. Absence of the database file disables this
// signal, not the detector.
type ASNDatabase struct {
	reader *geoip2.Reader
}

// OpenASNDatabase opens the ASN database at path.
func OpenASNDatabase(path string) (*ASNDatabase, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asn database: %w", err)
	}
	return &ASNDatabase{reader: reader}, nil
}

// Org resolves the owning organization for the address.
func (d *ASNDatabase) Org(address string) (ASNInfo, error) {
	ip := net.ParseIP(address)
	if ip == nil {
		return ASNInfo{}, fmt.Errorf("invalid address %q", address)
	}
	rec, err := d.reader.ASN(ip)
	if err != nil {
		return ASNInfo{}, fmt.Errorf("asn lookup: %w", err)
	}
	return ASNInfo{
		Number:       rec.AutonomousSystemNumber,
		Organization: rec.AutonomousSystemOrganization,
	}, nil
}

// Close releases the database handle.
func (d *ASNDatabase) Close() error {
	return d.reader.Close()
}
