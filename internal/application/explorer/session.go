package explorer

import (
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molexplorer/internal/application/resolver"
	"github.com/turtacn/molexplorer/internal/domain/compound"
)

// Session is the currently displayed compound. A Session is never mutated;
// the explorer replaces it whole. The zero-CID session at version 0 is the
// initial empty state.
type Session struct {
	Version     uint64                    `json:"version"`
	ID          uuid.UUID                 `json:"id"`
	CID         compound.CID              `json:"cid,omitempty"`
	Query       string                    `json:"query,omitempty"`
	DisplayName string                    `json:"display_name,omitempty"`
	Properties  compound.Properties       `json:"properties"`
	Structure   compound.StructuralRecord `json:"-"`
	Info        Info                      `json:"info"`
	LoadedAt    time.Time                 `json:"loaded_at,omitempty"`
}

// Loaded reports whether the session holds a structure.
func (s *Session) Loaded() bool {
	return s != nil && !s.Structure.Empty()
}

func emptySession(version uint64) *Session {
	return &Session{Version: version, ID: uuid.New(), Info: EmptyInfo()}
}

func sessionFrom(version uint64, res *resolver.Result, info Info, now time.Time) *Session {
	return &Session{
		Version:     version,
		ID:          uuid.New(),
		CID:         res.CID,
		Query:       res.Query,
		DisplayName: res.DisplayName,
		Properties:  res.Properties,
		Structure:   res.Structure,
		Info:        info,
		LoadedAt:    now,
	}
}
