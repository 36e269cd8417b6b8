package codec

import (
	"fmt"
	"io"

	"github.com/katalvlaran/hredes/catalog"
	"github.com/katalvlaran/hredes/hydraulic"
	"github.com/katalvlaran/hredes/network"
	"github.com/katalvlaran/hredes/optimize"
)

// Project is the input document: records plus optional design settings.
type Project struct {
	Name             string                `json:"name,omitempty" yaml:"name,omitempty"`
	Scope            string                `json:"scope,omitempty" yaml:"scope,omitempty"`
	Nodes            []network.Node        `json:"nodes" yaml:"nodes"`
	Links            []network.Link        `json:"links" yaml:"links"`
	Catalog          []catalog.Entry       `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	CatalogTolerance float64               `json:"catalogTolerance,omitempty" yaml:"catalogTolerance,omitempty"`
	Patterns         []hydraulic.Pattern   `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Constraints      *optimize.Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// DecodeProject reads one Project document.
func DecodeProject(r io.Reader, f Format) (*Project, error) {
	var p Project
	if err := decode(r, f, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeProject writes p.
func EncodeProject(w io.Writer, f Format, p *Project) error {
	return encode(w, f, p)
}

// Build validates the records and returns the network and the catalog. A
// project without catalog entries gets catalog.DefaultPVC.
func (p *Project) Build() (*network.Network, *catalog.Catalog, error) {
	net, err := network.Build(p.Nodes, p.Links)
	if err != nil {
		return nil, nil, err
	}
	if len(p.Catalog) == 0 {
		return net, catalog.DefaultPVC(), nil
	}

	var opts []catalog.Option
	if p.CatalogTolerance != 0 {
		opts = append(opts, catalog.WithTolerance(p.CatalogTolerance))
	}
	cat, err := catalog.New(p.Catalog, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("codec: project catalog: %w", err)
	}
	return net, cat, nil
}
