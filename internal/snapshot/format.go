package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Format names a textual serialization of a snapshot.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

var ErrUnknownFormat = errors.New("unknown format")

// Formats lists the supported formats; JSON is the default.
func Formats() []Format {
	return []Format{JSON, YAML, TOML}
}

func formatNames() string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%s (valid options: %s)", s, formatNames())
}

func (f Format) String() string { return string(f) }

// Set implements pflag.Value.
func (f *Format) Set(s string) error {
	parsed, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Type implements pflag.Value.
func (f *Format) Type() string { return "format" }

// Codec serializes snapshots in one format.
type Codec interface {
	// Marshal renders s as text
	Marshal(s Snapshot) ([]byte, error)

	// Unmarshal parses text produced by Marshal, or edited by hand
	Unmarshal(data []byte) (Snapshot, error)
}

// NewCodec returns the codec for f.
func NewCodec(f Format) (Codec, error) {
	switch f {
	case JSON:
		return &jsonCodec{}, nil
	case YAML:
		return &yamlCodec{}, nil
	case TOML:
		return &tomlCodec{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%s (valid options: %s)", f, formatNames())
	}
}

// Marshal renders s in format f.
func Marshal(f Format, s Snapshot) ([]byte, error) {
	c, err := NewCodec(f)
	if err != nil {
		return nil, err
	}
	return c.Marshal(s)
}

// Unmarshal parses data in format f. Missing versions are filled in with
// the oldest supported version.
func Unmarshal(f Format, data []byte) (Snapshot, error) {
	c, err := NewCodec(f)
	if err != nil {
		return Snapshot{}, err
	}
	s, err := c.Unmarshal(data)
	if err != nil {
		return Snapshot{}, err
	}
	v, err := ParseVersion(string(s.Version))
	if err != nil {
		return Snapshot{}, err
	}
	s.Version = v
	return s, nil
}

//go:embed snapshot.schema.json
var snapshotSchema string

var schema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchema)

type jsonCodec struct{}

func (c *jsonCodec) Marshal(s Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't encode snapshot as json")
	}
	return append(data, '\n'), nil
}

func (c *jsonCodec) Unmarshal(data []byte) (Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, errors.Wrapf(ErrInvalidSnapshot, "json: %v", err)
	}
	if err := schema.Validate(doc); err != nil {
		return Snapshot{}, errors.Wrapf(ErrInvalidSnapshot, "%v", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrapf(ErrInvalidSnapshot, "json: %v", err)
	}
	return s, nil
}

type yamlCodec struct{}

func (c *yamlCodec) Marshal(s Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't encode snapshot as yaml")
	}
	return data, nil
}

func (c *yamlCodec) Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrapf(ErrInvalidSnapshot, "yaml: %v", err)
	}
	return s, nil
}

type tomlCodec struct{}

func (c *tomlCodec) Marshal(s Snapshot) ([]byte, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't encode snapshot as toml")
	}
	return data, nil
}

func (c *tomlCodec) Unmarshal(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := toml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, errors.Wrapf(ErrInvalidSnapshot, "toml: %v", err)
	}
	return s, nil
}
