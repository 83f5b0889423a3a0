package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/GlitchKit/greatfet/pkg/greatfet/flash"
	"github.com/GlitchKit/greatfet/pkg/greatfet/spi"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

type Schema struct {
	Board []*BoardSchema `hcl:"board,block"`
}

type BoardSchema struct {
	Name   string       `hcl:"name,label"`
	Serial string       `hcl:"serial,optional"`
	Flash  *FlashSchema `hcl:"flash,block"`
	SPI    *SPISchema   `hcl:"spi,block"`
}

type FlashSchema struct {
	Size      string `hcl:"size,optional"`
	ChunkSize string `hcl:"chunksize,optional"`
}

type SPISchema struct {
	BufferSize int `hcl:"buffersize,optional"`
}

func parseByteValue(val string) (int64, error) {
	multiplier := int64(1)
	s := strings.Trim(strings.ToLower(val), " \t\r\n")
	if s == "" {
		return 0, nil
	}

	suffix := s[len(s)-1:] // Get the last byte
	switch suffix {
	case "b":
		multiplier = 1
		s = s[:len(s)-1]
	case "k":
		multiplier = 1024
		s = s[:len(s)-1]
	case "m":
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	case "g":
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: %w", val, err)
	}
	return i * multiplier, nil
}

// FlashConfig builds a flash layer config from the schema, falling back to
// the defaults for anything unset.
func (bs *BoardSchema) FlashConfig() (*flash.Config, error) {
	conf := flash.NewConfig()
	if bs.Flash == nil {
		return conf, nil
	}
	if bs.Flash.Size != "" {
		size, err := parseByteValue(bs.Flash.Size)
		if err != nil {
			return nil, err
		}
		conf.WithMaxLength(int(size))
	}
	if bs.Flash.ChunkSize != "" {
		size, err := parseByteValue(bs.Flash.ChunkSize)
		if err != nil {
			return nil, err
		}
		conf.WithChunkSize(int(size))
	}
	return conf, nil
}

// SPIConfig builds an SPI bus config from the schema.
func (bs *BoardSchema) SPIConfig() *spi.Config {
	conf := spi.NewConfig()
	if bs.SPI != nil && bs.SPI.BufferSize != 0 {
		conf.WithBufferSize(bs.SPI.BufferSize)
	}
	return conf
}

// FindBoard returns the board entry matching the serial, or the first entry
// when serial is empty. Returns nil when nothing matches.
func (s *Schema) FindBoard(serial string) *BoardSchema {
	for _, b := range s.Board {
		if serial == "" || b.Serial == serial {
			return b
		}
	}
	return nil
}

func ReadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	s := new(Schema)
	return s, s.Decode(data)
}

func (s *Schema) Decode(data []byte) error {
	file, diag := hclsyntax.ParseConfig(data, "", hcl.Pos{Line: 1, Column: 1})
	if diag.HasErrors() {
		return diag.Errs()[0]
	}

	diag = gohcl.DecodeBody(file.Body, nil, s)
	if diag.HasErrors() {
		return diag.Errs()[0]
	}

	return nil
}

func (s *Schema) Encode() ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(s, f.Body())
	return f.Bytes(), nil
}
