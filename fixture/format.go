package fixture

import "fmt"

// Format renders Material as the bytes of one fixture file.
type Format interface {
	// Name returns the format's registry name.
	Name() string

	// Ext returns the file extension, without the dot.
	Ext() string

	// Render encodes m. Failures wrap ErrRender.
	Render(m *Material) ([]byte, error)

	// Parse decodes a rendered file back into Material. Message and
	// Algorithm are not part of any file and are left unset.
	// Failures wrap ErrRender.
	Parse(data []byte) (*Material, error)
}

// Formats, by registry name.
var (
	CircomJSON    Format = circomJSON{}
	NoirFieldTOML Format = noirFieldTOML{}
	NoirBytesTOML Format = noirBytesTOML{}
	GnarkJSON     Format = gnarkJSON{}
)

// LookupFormat returns the format registered under name.
func LookupFormat(name string) (Format, error) {
	for _, f := range []Format{CircomJSON, NoirFieldTOML, NoirBytesTOML, GnarkJSON} {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}
