package parser

import (
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/riskibarqy/sportsfeed/internal/record"
)

// decodeXML honours the encoding named in the XML declaration, so
// ISO-8859-1 and windows-1252 feeds decode like UTF-8 ones.
func decodeXML(payload []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

type xmlNode struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

func (n *xmlNode) attrMap() map[string]string {
	if n == nil {
		return nil
	}
	out := make(map[string]string, len(n.Attrs))
	for _, a := range n.Attrs {
		out[a.Name.Local] = a.Value
	}
	return out
}

func (n *xmlNode) score() *string {
	if n == nil {
		return nil
	}
	for _, a := range n.Attrs {
		if a.Name.Local == "score" {
			v := a.Value
			return &v
		}
	}
	return nil
}

type xmlMatch struct {
	Attrs       []xml.Attr `xml:",any,attr"`
	LocalTeam   *xmlNode   `xml:"localteam"`
	VisitorTeam *xmlNode   `xml:"visitorteam"`
	Events      []xmlNode  `xml:"events>event"`
	HT          *xmlNode   `xml:"ht"`
	FT          *xmlNode   `xml:"ft"`
	ET          *xmlNode   `xml:"et"`
	Innings     []xmlNode  `xml:"innings"`
	LiveStats   *xmlNode   `xml:"live_stats"`
}

type xmlCategory struct {
	Name    string     `xml:"name,attr"`
	ID      string     `xml:"id,attr"`
	Matches []xmlMatch `xml:"matches>match"`
}

// The root name is left open: the feed uses <scores> but a bare wrapper of
// categories is accepted too.
type xmlScores struct {
	Categories []xmlCategory `xml:"category"`
}

// ParseScoresXML reads scores > category > matches > match. Every match
// attribute is kept verbatim next to the typed projection.
func ParseScoresXML(payload []byte) ([]record.LiveMatch, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, parseErr("empty scores document", nil)
	}
	var doc xmlScores
	if err := decodeXML(payload, &doc); err != nil {
		return nil, parseErr("scores xml", err)
	}

	out := make([]record.LiveMatch, 0)
	for _, cat := range doc.Categories {
		for i := range cat.Matches {
			m := &cat.Matches[i]
			node := matchNode{
				attrs:    (&xmlNode{Attrs: m.Attrs}).attrMap(),
				local:    m.LocalTeam.attrMap(),
				visitor:  m.VisitorTeam.attrMap(),
				ht:       m.HT.score(),
				ft:       m.FT.score(),
				et:       m.ET.score(),
				category: strings.TrimSpace(cat.Name),
				catID:    strings.TrimSpace(cat.ID),
			}
			node.addPeriod("ht", m.HT.attrMap())
			node.addPeriod("ft", m.FT.attrMap())
			node.addPeriod("et", m.ET.attrMap())
			if _, ok := node.attrs["live_stats"]; !ok && m.LiveStats != nil {
				if value, ok := m.LiveStats.attrMap()["value"]; ok {
					node.attrs["live_stats"] = value
				}
			}
			for j := range m.Events {
				node.events = append(node.events, m.Events[j].attrMap())
			}
			for j := range m.Innings {
				node.innings = append(node.innings, m.Innings[j].attrMap())
			}
			out = append(out, node.project(record.KindXMLMatch))
		}
	}
	return out, nil
}

type xmlMapping struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr"`
	Country string `xml:"country,attr"`
	Season  string `xml:"season,attr"`
}

type xmlMappings struct {
	Mappings []xmlMapping `xml:"mapping"`
	Nested   []xmlMapping `xml:"fixtures>mapping"`
}

// ParseLeagueMappingXML reads mapping elements at the root or under
// fixtures. Entries without id or name are skipped.
func ParseLeagueMappingXML(payload []byte) ([]record.LeagueMapping, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, parseErr("empty mapping document", nil)
	}
	var doc xmlMappings
	if err := decodeXML(payload, &doc); err != nil {
		return nil, parseErr("mapping xml", err)
	}

	out := make([]record.LeagueMapping, 0, len(doc.Mappings)+len(doc.Nested))
	for _, m := range append(doc.Mappings, doc.Nested...) {
		id := strings.TrimSpace(m.ID)
		name := strings.TrimSpace(m.Name)
		if id == "" || name == "" {
			continue
		}
		out = append(out, record.LeagueMapping{
			ID:      id,
			Name:    name,
			Country: strings.TrimSpace(m.Country),
			Season:  strings.TrimSpace(m.Season),
		})
	}
	return out, nil
}
