package fixture

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"

	"github.com/blockberries/p256-fixtures/fieldenc"
)

type noirFieldTOML struct{}

func (noirFieldTOML) Name() string { return "noir-field" }
func (noirFieldTOML) Ext() string  { return "toml" }

// noirFieldKeys lists the keys of the packed-field layout in file order.
func noirFieldKeys(m *Material) []struct {
	key   string
	value *[]byte
} {
	return []struct {
		key   string
		value *[]byte
	}{
		{"hashed_message", &m.Digest},
		{"pub_key_x", &m.PubKeyX},
		{"pub_key_y", &m.PubKeyY},
		{"signature_r", &m.R},
		{"signature_s", &m.S},
	}
}

// Render writes one key per value, each packed into 31-byte BN254 elements.
// A single element is written as a bare string, longer sequences as an array.
func (noirFieldTOML) Render(m *Material) ([]byte, error) {
	var sb strings.Builder
	for _, e := range noirFieldKeys(m) {
		elems := fieldenc.PackedField.Encode(*e.value)

		sb.WriteString(e.key)
		sb.WriteString(" = ")
		if len(elems) == 1 {
			sb.WriteString(strconv.Quote(elems[0]))
		} else {
			quoted := make([]string, len(elems))
			for i, el := range elems {
				quoted[i] = strconv.Quote(el)
			}
			sb.WriteString("[" + strings.Join(quoted, ", ") + "]")
		}
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

func (noirFieldTOML) Parse(data []byte) (*Material, error) {
	return ParseNoirFieldTOML(data)
}

// ParseNoirFieldTOML decodes a packed-field Noir fixture. Every element must be
// a canonical BN254 scalar and the elements of each key must unpack to 32 bytes.
func ParseNoirFieldTOML(data []byte) (*Material, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: noir toml: %w", ErrRender, err)
	}

	m := &Material{}
	for _, e := range noirFieldKeys(m) {
		elems, err := tomlStrings(tree.Get(e.key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, e.key, err)
		}
		if err := fieldenc.CheckBN254(elems); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, e.key, err)
		}
		b, err := fieldenc.PackedField.Unpack(elems, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, e.key, err)
		}
		*e.value = b
	}
	return m, nil
}

// tomlStrings accepts a bare string or an array of strings.
func tomlStrings(v interface{}) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not a string", i, el)
			}
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("missing")
	default:
		return nil, fmt.Errorf("unexpected %T value", v)
	}
}

type noirBytesTOML struct{}

func (noirBytesTOML) Name() string { return "noir-bytes" }
func (noirBytesTOML) Ext() string  { return "toml" }

// Render writes each value as an array of byte values, one per line.
// The signature is the 64-byte r||s. There is no trailing newline.
func (noirBytesTOML) Render(m *Material) ([]byte, error) {
	entries := []struct {
		key   string
		value []byte
	}{
		{"hashed_message", m.Digest},
		{"pub_key_x", m.PubKeyX},
		{"pub_key_y", m.PubKeyY},
		{"signature", m.Signature()},
	}

	blocks := make([]string, len(entries))
	for i, e := range entries {
		values := make([]string, len(e.value))
		for j, b := range e.value {
			values[j] = strconv.Itoa(int(b))
		}
		blocks[i] = e.key + " = [\n    " + strings.Join(values, ",\n    ") + "\n]"
	}
	return []byte(strings.Join(blocks, "\n")), nil
}

// Parse decodes a raw-byte Noir fixture and splits the signature into r and s.
func (noirBytesTOML) Parse(data []byte) (*Material, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: noir toml: %w", ErrRender, err)
	}

	m := &Material{}
	var sig []byte
	entries := []struct {
		key  string
		size int
		dst  *[]byte
	}{
		{"hashed_message", 32, &m.Digest},
		{"pub_key_x", 32, &m.PubKeyX},
		{"pub_key_y", 32, &m.PubKeyY},
		{"signature", 64, &sig},
	}
	for _, e := range entries {
		b, err := tomlBytes(tree.Get(e.key), e.size)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRender, e.key, err)
		}
		*e.dst = b
	}
	m.R, m.S = sig[:32], sig[32:]
	return m, nil
}

// tomlBytes reads an array of exactly size integers in [0, 255].
func tomlBytes(v interface{}, size int) ([]byte, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array of bytes, got %T", v)
	}
	if len(arr) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(arr))
	}
	out := make([]byte, size)
	for i, el := range arr {
		n, ok := el.(int64)
		if !ok || n < 0 || n > 255 {
			return nil, fmt.Errorf("element %d is not a byte: %v", i, el)
		}
		out[i] = byte(n)
	}
	return out, nil
}
