package export

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// xmlSerializer is a Receiver backed by a plain io.Writer. It is used both
// for the per-collection manifest (indented) and for streamed document
// content (no indent, no whitespace added to the source events).
//
// encoding/xml's token-based Encoder auto-assigns namespace prefixes and
// gives no way to pair explicit StartPrefixMapping/EndPrefixMapping calls
// with specific declaration sites, which this package's Receiver contract
// requires verbatim from whatever pull reader produced the events. No
// third-party XML writer appears anywhere in the retrieved corpus, so
// content escaping uses encoding/xml's EscapeText and element/attribute
// framing is written by hand, the same way the reference database's own
// SAX serializer does it.
type xmlSerializer struct {
	w      *bufio.Writer
	indent bool
	depth  int
	// pending holds the prefix mappings declared since the last start tag;
	// the next StartElement renders them as xmlns attributes and clears it.
	pending []PrefixMapping
}

// NewXMLSerializer creates a Receiver that writes framed XML to w.
// When indent is true, each element is written on its own line with
// two-space-per-level indentation (used for __contents__.xml); document
// content is always written with indent=false, so no whitespace is added
// to it. An element with no content is written as a start/end tag pair
// (`<r></r>`), never as a self-closing tag.
func NewXMLSerializer(w io.Writer, indent bool) Receiver {
	return &xmlSerializer{w: bufio.NewWriter(w), indent: indent}
}

func (s *xmlSerializer) StartDocument() error {
	_, err := s.w.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	if s.indent {
		err2 := s.newline()
		if err == nil {
			err = err2
		}
	}
	return err
}

func (s *xmlSerializer) EndDocument() error {
	return s.w.Flush()
}

func (s *xmlSerializer) StartPrefixMapping(prefix, uri string) error {
	s.pending = append(s.pending, PrefixMapping{Prefix: prefix, URI: uri})
	return nil
}

func (s *xmlSerializer) EndPrefixMapping(prefix string) error {
	for i := len(s.pending) - 1; i >= 0; i-- {
		if s.pending[i].Prefix == prefix {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *xmlSerializer) StartElement(name QName, attrs []Attr) error {
	s.writeIndent()
	s.w.WriteByte('<')
	s.w.WriteString(qualify(name))

	for _, pm := range s.pending {
		if pm.Prefix == "" {
			fmt.Fprintf(s.w, ` xmlns="%s"`, escapeAttr(pm.URI))
		} else {
			fmt.Fprintf(s.w, ` xmlns:%s="%s"`, pm.Prefix, escapeAttr(pm.URI))
		}
	}
	s.pending = s.pending[:0]

	for _, a := range attrs {
		fmt.Fprintf(s.w, ` %s="%s"`, qualify(a.Name), escapeAttr(a.Value))
	}
	err := s.w.WriteByte('>')
	s.depth++
	if s.indent {
		s.newline()
	}
	return err
}

func (s *xmlSerializer) EndElement(name QName) error {
	s.depth--
	s.writeIndent()
	s.w.WriteString("</")
	s.w.WriteString(qualify(name))
	err := s.w.WriteByte('>')
	if s.indent {
		s.newline()
	}
	return err
}

func (s *xmlSerializer) Characters(text string) error {
	return xml.EscapeText(s.w, []byte(text))
}

func (s *xmlSerializer) CDataSection(text string) error {
	_, err := s.w.WriteString("<![CDATA[")
	if err != nil {
		return err
	}
	_, err = s.w.WriteString(escapeCDataClose(text))
	if err != nil {
		return err
	}
	_, err = s.w.WriteString("]]>")
	return err
}

func (s *xmlSerializer) Comment(text string) error {
	_, err := s.w.WriteString("<!--")
	if err != nil {
		return err
	}
	if _, err = s.w.WriteString(text); err != nil {
		return err
	}
	_, err = s.w.WriteString("-->")
	return err
}

func (s *xmlSerializer) ProcessingInstruction(target, data string) error {
	_, err := s.w.WriteString("<?")
	if err != nil {
		return err
	}
	if _, err = s.w.WriteString(target); err != nil {
		return err
	}
	if data != "" {
		if _, err = s.w.WriteString(" "); err != nil {
			return err
		}
		if _, err = s.w.WriteString(data); err != nil {
			return err
		}
	}
	_, err = s.w.WriteString("?>")
	return err
}

func (s *xmlSerializer) writeIndent() {
	if !s.indent {
		return
	}
	for i := 0; i < s.depth; i++ {
		s.w.WriteString("  ")
	}
}

func (s *xmlSerializer) newline() error {
	return s.w.WriteByte('\n')
}

func qualify(n QName) string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

func escapeAttr(v string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(v))
	return buf.String()
}

// escapeCDataClose splits any literal "]]>" inside CDATA content so the
// section cannot be closed early — this never happens for genuine CDATA
// but guards against a corrupt broker stream.
func escapeCDataClose(text string) string {
	return strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>")
}
