package pubchem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Endpoint names used in logs, metrics and errors.
const (
	EndpointCIDs        = "cids"
	EndpointProperties  = "properties"
	EndpointSynonyms    = "synonyms"
	EndpointStructure3D = "structure_3d"
	EndpointStructure2D = "structure_2d"
)

// cidsResponse is the body of /compound/name/{name}/cids/JSON.
type cidsResponse struct {
	IdentifierList struct {
		CID []int64 `json:"CID"`
	} `json:"IdentifierList"`
}

// propertiesResponse is the body of /compound/cid/{cid}/property/.../JSON.
type propertiesResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              int64          `json:"CID"`
			IUPACName        string         `json:"IUPACName"`
			MolecularFormula string         `json:"MolecularFormula"`
			MolecularWeight  flexibleNumber `json:"MolecularWeight"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

// synonymsResponse is the body of /compound/cid/{cid}/synonyms/JSON.
type synonymsResponse struct {
	InformationList struct {
		Information []struct {
			CID     int64    `json:"CID"`
			Synonym []string `json:"Synonym"`
		} `json:"Information"`
	} `json:"InformationList"`
}

// flexibleNumber decodes a JSON number or a numeric string. PubChem reports
// MolecularWeight as a string ("180.16") in current responses and as a number
// in older ones.
type flexibleNumber float64

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("pubchem: molecular weight %q is not numeric: %w", s, err)
		}
		*n = flexibleNumber(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexibleNumber(v)
	return nil
}
