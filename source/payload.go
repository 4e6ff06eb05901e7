package source

import (
	"bytes"
	"encoding/json"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/sheet"
)

var ErrMalformedPayload = eris.New("source: malformed payload")

// DecodePayload reads {"values": [...]} and/or {"Sheet": {"values": [...]}}.
// Input that is not valid JSON gets one repair attempt before failing, so b
// must be the complete body.
func DecodePayload(b []byte) (Payload, error) {
	doc, err := decodeObject(b)
	if err != nil {
		repaired, rerr := jsonrepair.RepairJSON(string(b))
		if rerr != nil {
			return Payload{}, eris.Wrap(ErrMalformedPayload, err.Error())
		}
		if doc, err = decodeObject([]byte(repaired)); err != nil {
			return Payload{}, eris.Wrap(ErrMalformedPayload, err.Error())
		}
	}

	var p Payload
	for k, v := range doc {
		if k == "values" {
			p.Values = toGrid(v)
			continue
		}
		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if vals, ok := sub["values"]; ok {
			if p.Tables == nil {
				p.Tables = map[string]sheet.Grid{}
			}
			p.Tables[k] = toGrid(vals)
		}
	}
	return p, nil
}

func decodeObject(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, eris.New("payload is not an object")
	}
	return doc, nil
}

// toGrid accepts an array of arrays; anything else becomes an empty row.
func toGrid(v any) sheet.Grid {
	rows, ok := v.([]any)
	if !ok {
		return nil
	}
	g := make(sheet.Grid, 0, len(rows))
	for _, r := range rows {
		cells, _ := r.([]any)
		g = append(g, cells)
	}
	return g
}
