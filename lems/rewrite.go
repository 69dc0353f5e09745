package lems

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"

	"github.com/neurobench/neuro-runtime/errors"
)

// SetComponentAttrs rewrites the description at path, setting the given
// attributes on every element whose id matches componentID. Attributes not
// present on the element are appended. Values are written verbatim, so
// dimensioned values must already carry their unit suffix.
func SetComponentAttrs(path, componentID string, attrs map[string]string) error {
	return rewrite(path, func(se *xml.StartElement) {
		if id, ok := attr(*se, "id"); ok && id == componentID {
			setAttrs(se, attrs)
		}
	})
}

// SetSimulationAttrs rewrites the description at path, setting the given
// attributes on every Simulation element. Used for run parameters such as
// length and step.
func SetSimulationAttrs(path string, attrs map[string]string) error {
	return rewrite(path, func(se *xml.StartElement) {
		if se.Name.Local == "Simulation" {
			setAttrs(se, attrs)
		}
	})
}

func setAttrs(se *xml.StartElement, attrs map[string]string) {
	for name, value := range attrs {
		found := false
		for i := range se.Attr {
			if se.Attr[i].Name.Local == name {
				se.Attr[i].Value = value
				found = true
				break
			}
		}
		if !found {
			se.Attr = append(se.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
		}
	}
}

// rewrite streams the document through a token-level copy, letting edit
// mutate each start element in place. The on-disk file is replaced only
// after the whole document re-encodes cleanly.
func rewrite(path string, edit func(*xml.StartElement)) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Load("read model description", err)
	}

	var buf bytes.Buffer
	dec := xml.NewDecoder(bytes.NewReader(src))
	enc := xml.NewEncoder(&buf)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Load("parse model description", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			edit(&se)
			tok = se
		}
		if err := enc.EncodeToken(tok); err != nil {
			return errors.Load("rewrite model description", err)
		}
	}
	if err := enc.Flush(); err != nil {
		return errors.Load("rewrite model description", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Load("write model description", err)
	}
	return nil
}
