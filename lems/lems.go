package lems

import (
	"encoding/xml"
	"io"
	"os"

	"github.com/neurobench/neuro-runtime/errors"
)

// Component is one entry of a declarative model description's component
// list: an identifier plus the declared type string. The type is the XML
// element name; the description format does not constrain it to a closed
// vocabulary, so classification works on the raw string.
type Component struct {
	ID   string
	Type string
}

// ReadComponents parses the component list of a model description file.
func ReadComponents(path string) ([]Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open model description", err)
	}
	defer f.Close()
	return ParseComponents(f)
}

// ParseComponents extracts the ordered component list from a declarative
// model description document. Components are the id-carrying elements
// directly below the document root; nested structure belongs to the model
// compiler, not to this resolver.
func ParseComponents(r io.Reader) ([]Component, error) {
	dec := xml.NewDecoder(r)

	var components []Component
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.PhaseResolve, errors.KindInvalidInput, err, "parse model description")
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				if id, ok := attr(el, "id"); ok {
					components = append(components, Component{ID: id, Type: el.Name.Local})
				}
			}
		case xml.EndElement:
			depth--
		}
	}

	if depth != 0 {
		return nil, errors.InvalidInput(errors.PhaseResolve, "unbalanced model description document")
	}
	return components, nil
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
